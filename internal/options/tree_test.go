package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) Tree {
	t.Helper()
	tree, err := Parse([]byte(doc))
	require.NoError(t, err)
	return tree
}

func TestResolvePrecedence(t *testing.T) {
	tree := mustParse(t, `{
		"defaultCharset": "utf-8",
		"perDomain": {
			"/^www\\./": {"defaultCharset": "koi8-r"},
			".example.com": {"defaultCharset": "windows-1251", "proxy": "http://p:1"},
			"api.example.com": {"defaultCharset": "iso-8859-1"},
			"other.org": {"proxy": "http://o:2"}
		}
	}`)

	tests := []struct {
		name     string
		key      Key
		host     string
		expected string
	}{
		{"exact wins over patterns", KeyDefaultCharset, "api.example.com", "iso-8859-1"},
		{"first pattern wins", KeyDefaultCharset, "www.example.com", "koi8-r"},
		{"suffix pattern", KeyDefaultCharset, "m.example.com", "windows-1251"},
		{"suffix pattern matches bare domain", KeyDefaultCharset, "example.com", "windows-1251"},
		{"suffix pattern is anchored", KeyDefaultCharset, "notexample.com", "utf-8"},
		{"regex is case-insensitive", KeyDefaultCharset, "WWW.site.net", "koi8-r"},
		{"exact entry without key falls through", KeyProxy, "api.example.com", "http://p:1"},
		{"global fallback", KeyDefaultCharset, "unknown.net", "utf-8"},
		{"exact only key", KeyProxy, "other.org", "http://o:2"},
		{"missing everywhere", KeyForceCharset, "example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tree.String(tt.key, tt.host))
		})
	}
}

func TestParsePreservesDomainOrder(t *testing.T) {
	tree := mustParse(t, `{"perDomain": {"z.com": {}, ".a.com": {}, "/m/": {}}}`)
	require.NotNil(t, tree.Domains())
	assert.Equal(t, []string{"z.com", ".a.com", "/m/"}, tree.Domains().Keys())

	yamlTree := mustParse(t, "perDomain:\n  z.com:\n    proxy: x\n  .a.com:\n    proxy: y\n")
	assert.Equal(t, []string{"z.com", ".a.com"}, yamlTree.Domains().Keys())
	assert.Equal(t, "y", yamlTree.String(KeyProxy, "b.a.com"))
}

func TestMerge(t *testing.T) {
	base := mustParse(t, `{"proxy": "http://a", "defaultCharset": "utf-8", "nested": {"x": 1, "y": 2}, "list": [1, 2, 3]}`)
	overlay := mustParse(t, `{"proxy": null, "nested": {"y": 3, "z": 4}, "list": [9], "httpMethod": "GET"}`)

	base.Merge(overlay)

	_, hasProxy := base["proxy"]
	assert.False(t, hasProxy)
	assert.Equal(t, "utf-8", base["defaultCharset"])
	assert.Equal(t, Tree{"x": float64(1), "y": float64(3), "z": float64(4)}, base["nested"])
	assert.Equal(t, []interface{}{float64(9)}, base["list"])
	assert.Equal(t, "GET", base["httpMethod"])
}

func TestMergeReplacesScalarWithObject(t *testing.T) {
	base := Tree{"a": "scalar"}
	base.Merge(Tree{"a": map[string]interface{}{"b": true}})
	assert.Equal(t, Tree{"b": true}, base["a"])
}

func TestMergeNewLeavesInputsUntouched(t *testing.T) {
	base := mustParse(t, `{"defaultCharset": "utf-8", "perDomain": {"a.com": {"proxy": "p1"}}}`)
	overlay := mustParse(t, `{"perDomain": {"a.com": {"proxy": "p2"}, "b.com": {"proxy": "p3"}}}`)

	merged := MergeNew(base, overlay)

	assert.Equal(t, "p2", merged.String(KeyProxy, "a.com"))
	assert.Equal(t, "p3", merged.String(KeyProxy, "b.com"))
	assert.Equal(t, []string{"a.com", "b.com"}, merged.Domains().Keys())

	assert.Equal(t, "p1", base.String(KeyProxy, "a.com"))
	assert.Equal(t, "", base.String(KeyProxy, "b.com"))
}

func TestMergeDeletesDomain(t *testing.T) {
	base := mustParse(t, `{"perDomain": {"a.com": {"proxy": "p1"}, "b.com": {"proxy": "p2"}}}`)
	base.Merge(mustParse(t, `{"perDomain": {"a.com": null}}`))
	assert.Equal(t, []string{"b.com"}, base.Domains().Keys())
	assert.Equal(t, "", base.String(KeyProxy, "a.com"))
}

func TestOverlay(t *testing.T) {
	request := Tree{
		"httpMethod": "GET",
		"options": map[string]interface{}{
			"defaultCharset": "windows-1251",
			"httpMethod":     "PUT",
		},
	}
	overlay := Overlay(request)
	assert.Equal(t, "PUT", overlay["httpMethod"])
	assert.Equal(t, "windows-1251", overlay["defaultCharset"])
	_, nested := overlay["options"]
	assert.False(t, nested)

	assert.Equal(t, Tree{"httpMethod": "GET"}, Overlay(Tree{"httpMethod": "GET"}))
}

func TestNormalize(t *testing.T) {
	tree, err := Normalize(map[string]interface{}{
		"DEFAULT_CHARSET": "koi8-r",
		"PER_DOMAIN": map[string]interface{}{
			"b.com": map[string]interface{}{"FORCE_CHARSET": "utf-8"},
			"a.com": map[string]interface{}{"PROXY": "x"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "koi8-r", tree.String(KeyDefaultCharset, ""))
	assert.Equal(t, "utf-8", tree.String(KeyForceCharset, "b.com"))
	assert.Equal(t, "x", tree.String(KeyProxy, "a.com"))
	assert.Equal(t, []string{"a.com", "b.com"}, tree.Domains().Keys())

	fromString, err := Normalize(`{"proxy": "http://p"}`)
	require.NoError(t, err)
	assert.Equal(t, "http://p", fromString.String(KeyProxy, "any.com"))

	_, err = Normalize(42)
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, mustParse(t, `{"defaultCharset": "utf-8", "other": 5}`).Validate())
	assert.ErrorIs(t, mustParse(t, `{"forceCharset": 5}`).Validate(), ErrInvalidOption)
	assert.ErrorIs(t, mustParse(t, `{"perDomain": {"a.com": {"requestCharset": ["x"]}}}`).Validate(), ErrInvalidOption)
}

func TestStrings(t *testing.T) {
	tree := mustParse(t, `{"sslEnabledProtocols": ["TLSv1.2", "TLSv1.3"], "perDomain": {"old.com": {"sslEnabledProtocols": ["TLSv1"]}}}`)

	list, ok := tree.Strings(KeySSLEnabledProtocols, "new.com")
	assert.True(t, ok)
	assert.Equal(t, []string{"TLSv1.2", "TLSv1.3"}, list)

	list, ok = tree.Strings(KeySSLEnabledProtocols, "old.com")
	assert.True(t, ok)
	assert.Equal(t, []string{"TLSv1"}, list)

	_, ok = tree.Strings(KeySSLEnabledCipherSuites, "new.com")
	assert.False(t, ok)
}

func TestDomainsJSON(t *testing.T) {
	tree := mustParse(t, `{"perDomain": {"z.com": {"proxy": "1"}, "a.com": {"proxy": "2"}}}`)
	data, err := tree.Domains().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z.com":{"proxy":"1"},"a.com":{"proxy":"2"}}`, string(data))

	var d Domains
	require.NoError(t, d.UnmarshalJSON(data))
	assert.Equal(t, []string{"z.com", "a.com"}, d.Keys())
}
