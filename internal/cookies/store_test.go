package cookies

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }

func names(cookies []*http.Cookie) []string {
	out := make([]string, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, c.Name+"="+c.Value)
	}
	return out
}

func TestSetCookiesFromResponse(t *testing.T) {
	s := New()
	u := mustURL(t, "https://www.example.com/account/login")

	s.SetCookies(u, []*http.Cookie{
		{Name: "host", Value: "1"},
		{Name: "dom", Value: "2", Domain: "example.com", Path: "/"},
		{Name: "evil", Value: "3", Domain: "other.com"},
		{Name: "tld", Value: "4", Domain: "com"},
	})

	assert.Equal(t, []string{"host=1", "dom=2"}, names(s.Cookies(mustURL(t, "https://www.example.com/account/x"))))
	assert.Equal(t, []string{"dom=2"}, names(s.Cookies(mustURL(t, "https://m.example.com/"))))
	assert.Empty(t, s.Cookies(mustURL(t, "https://other.com/")))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "www.example.com", all[0].Domain)
	assert.Equal(t, "/account", all[0].Path)
	assert.Equal(t, ".example.com", all[1].Domain)
}

func TestSecureAndPathMatching(t *testing.T) {
	s := New()
	s.SetCookies(mustURL(t, "https://a.com/"), []*http.Cookie{
		{Name: "sec", Value: "1", Secure: true},
		{Name: "deep", Value: "2", Path: "/app"},
	})

	assert.Equal(t, []string{"deep=2", "sec=1"}, names(s.Cookies(mustURL(t, "https://a.com/app/page"))))
	assert.Equal(t, []string{"deep=2"}, names(s.Cookies(mustURL(t, "http://a.com/app"))))
	assert.Empty(t, names(s.Cookies(mustURL(t, "http://a.com/apple"))))
}

func TestExpiryRemovesCookie(t *testing.T) {
	s := New()
	u := mustURL(t, "https://a.com/")
	s.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "1"}})
	s.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "", MaxAge: -1}})
	assert.Empty(t, s.All())
}

func TestExplicitSet(t *testing.T) {
	s := New()

	require.NoError(t, s.Set("a.com", "host", strPtr("1"), types.CookieParams{}))
	require.NoError(t, s.Set(".a.com", "dom", strPtr("2"), types.CookieParams{Path: "/x", Secure: true}))
	require.NoError(t, s.Set("a.com", "keep", strPtr("3"), types.CookieParams{Expires: "Fri, 01 Jan 2100 00:00:00 GMT"}))

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, types.Cookie{Name: "host", Value: "1", Domain: "a.com", Path: "/"}, all[0])
	assert.Equal(t, types.Cookie{Name: "dom", Value: "2", Domain: ".a.com", Path: "/x", Secure: true}, all[1])
	assert.True(t, all[2].Persistent)
	assert.Equal(t, "Fri, 01 Jan 2100 00:00:00 GMT", all[2].Expires)

	assert.Equal(t, []string{"host=1", "keep=3"}, names(s.Cookies(mustURL(t, "http://a.com/"))))
	assert.Equal(t, []string{"dom=2"}, names(s.Cookies(mustURL(t, "https://sub.a.com/x/y"))))
}

func TestExplicitDelete(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("a.com", "sid", strPtr("1"), types.CookieParams{}))
	require.NoError(t, s.Set("a.com", "sid", nil, types.CookieParams{}))
	assert.Empty(t, s.All())
}

func TestExplicitSetBadExpiry(t *testing.T) {
	s := New()
	err := s.Set("a.com", "sid", strPtr("1"), types.CookieParams{Expires: "tomorrow-ish"})
	assert.ErrorIs(t, err, ErrBadExpiry)
}

func TestReplaceKeepsPosition(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("a.com", "first", strPtr("1"), types.CookieParams{}))
	require.NoError(t, s.Set("a.com", "second", strPtr("2"), types.CookieParams{}))
	require.NoError(t, s.Set("a.com", "first", strPtr("3"), types.CookieParams{}))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Name)
	assert.Equal(t, "3", all[0].Value)
}

func TestClockExpiry(t *testing.T) {
	s := New()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.SetCookies(mustURL(t, "https://a.com/"), []*http.Cookie{{Name: "short", Value: "1", MaxAge: 60}})
	assert.Len(t, s.All(), 1)

	now = now.Add(2 * time.Minute)
	assert.Empty(t, s.All())
}

func TestLookup(t *testing.T) {
	list := []types.Cookie{
		{Name: "sid", Value: "root", Domain: ".a.com", Path: "/"},
		{Name: "sid", Value: "deep", Domain: "www.b.com", Path: "/app"},
	}

	v, ok := Lookup(list, "sid", "", "")
	assert.True(t, ok)
	assert.Equal(t, "root", v)

	v, ok = Lookup(list, "sid", "www.b.com", "/app/x")
	assert.True(t, ok)
	assert.Equal(t, "deep", v)

	_, ok = Lookup(list, "sid", "c.com", "")
	assert.False(t, ok)

	_, ok = Lookup(list, "missing", "", "")
	assert.False(t, ok)
}

func TestParseExpires(t *testing.T) {
	for _, s := range []string{
		"Fri, 01 Jan 2100 00:00:00 GMT",
		"2100-01-01T00:00:00Z",
		"Fri Jan 01 2100",
	} {
		ts, err := ParseExpires(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2100, ts.Year())
	}
}
