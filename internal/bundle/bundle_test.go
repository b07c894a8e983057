package bundle

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `<?xml version="1.0" encoding="utf-8"?>
<provider>
	<id version="12">ab-test</id>
	<name>Test provider</name>
	<description><![CDATA[Shows the <b>balance</b>]]></description>
	<files>
		<icon>icon.png</icon>
		<preferences>preferences.xml</preferences>
		<js>library.js</js>
		<js>main.js</js>
	</files>
	<counters>
		<counter id="balance" name="Balance"/>
	</counters>
</provider>`

const testPreferences = `<?xml version="1.0" encoding="utf-8"?>
<PreferenceScreen xmlns:android="http://schemas.android.com/apk/res/android">
	<EditTextPreference key="login" title="Login"/>
	<EditTextPreference android:key="password" android:inputType="textPassword" title="Password"/>
	<PreferenceCategory title="Extra">
		<EditTextPreference key="pin" inputType="numberPassword"/>
	</PreferenceCategory>
	<ListPreference key="type" inputType="password"/>
</PreferenceScreen>`

func testFiles() map[string]string {
	return map[string]string{
		ManifestName:      testManifest,
		"preferences.xml": testPreferences,
		"library.js":      "function lib() { return 1; }",
		"main.js":         "function main() { AnyBalance.setResult({v: lib()}); }",
		"icon.png":        "\x89PNG",
	}
}

func mapFS(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for name, data := range files {
		m[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return m
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestOpenSources(t *testing.T) {
	dir := t.TempDir()
	for name, data := range testFiles() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	archive := filepath.Join(t.TempDir(), "provider.zip")
	require.NoError(t, os.WriteFile(archive, zipBytes(t, testFiles()), 0o644))

	tests := []struct {
		name string
		open func() (*Bundle, error)
	}{
		{"directory", func() (*Bundle, error) { return Open(dir) }},
		{"zip file", func() (*Bundle, error) { return Open(archive) }},
		{"zip bytes", func() (*Bundle, error) { return FromBytes(zipBytes(t, testFiles())) }},
		{"fs", func() (*Bundle, error) { return FromFS(mapFS(testFiles())) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.open()
			require.NoError(t, err)
			defer b.Close()

			assert.Equal(t, "ab-test", b.ID)
			assert.Equal(t, 12, b.Version)
			assert.Equal(t, "Test provider", b.Name)
			assert.Equal(t, "Shows the <b>balance</b>", b.Description)

			script, err := b.Script()
			require.NoError(t, err)
			assert.Equal(t, "function lib() { return 1; }\nfunction main() { AnyBalance.setResult({v: lib()}); }", script)

			icon, err := b.Icon()
			require.NoError(t, err)
			assert.Equal(t, []byte("\x89PNG"), icon)
		})
	}
}

func TestCounters(t *testing.T) {
	b, err := FromFS(mapFS(testFiles()))
	require.NoError(t, err)
	assert.Equal(t, `<counter id="balance" name="Balance"/>`, b.Counters())
}

func TestMaskedPreferences(t *testing.T) {
	b, err := FromFS(mapFS(testFiles()))
	require.NoError(t, err)

	keys, err := b.MaskedPreferences()
	require.NoError(t, err)
	assert.Equal(t, []string{"password", "pin"}, keys)

	masked := Mask(map[string]interface{}{"login": "bob", "password": "secret"}, keys)
	assert.Equal(t, map[string]interface{}{"login": "bob", "password": "***"}, masked)
}

func TestOptionalFiles(t *testing.T) {
	files := map[string]string{
		ManifestName: `<provider><id>bare</id><files><js>main.js</js></files></provider>`,
		"main.js":    "function main() {}",
	}
	b, err := FromFS(mapFS(files))
	require.NoError(t, err)

	assert.Equal(t, 0, b.Version)

	prefs, err := b.Preferences()
	require.NoError(t, err)
	assert.Empty(t, prefs)

	keys, err := b.MaskedPreferences()
	require.NoError(t, err)
	assert.Empty(t, keys)

	icon, err := b.Icon()
	require.NoError(t, err)
	assert.Nil(t, icon)
	assert.Empty(t, b.Counters())
}

func TestInvalidBundles(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{"no manifest", map[string]string{"main.js": ""}, nil},
		{"no id", map[string]string{ManifestName: `<provider><name>x</name></provider>`}, ErrBadManifest},
		{"bad version", map[string]string{ManifestName: `<provider><id version="x">a</id></provider>`}, ErrBadManifest},
		{"malformed xml", map[string]string{ManifestName: `<provider><id>`}, ErrBadManifest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromFS(mapFS(tt.files))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestScriptErrors(t *testing.T) {
	b, err := FromFS(mapFS(map[string]string{ManifestName: `<provider><id>a</id></provider>`}))
	require.NoError(t, err)
	_, err = b.Script()
	assert.ErrorIs(t, err, ErrNoScript)

	b, err = FromFS(mapFS(map[string]string{ManifestName: `<provider><id>a</id><files><js>missing.js</js></files></provider>`}))
	require.NoError(t, err)
	_, err = b.Script()
	assert.Error(t, err)
}
