package cookie

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTier(t *testing.T) (*Tier, http.CookieJar, *url.URL) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	base, err := url.Parse("https://api.example.com")
	require.NoError(t, err)
	return New(jar, base), jar, base
}

func TestTier_GetAndClear(t *testing.T) {
	tier, jar, base := newTier(t)

	jar.SetCookies(base, []*http.Cookie{
		{Name: "token", Value: "AT1", Path: "/"},
		{Name: "refresh_token", Value: "RT1", Path: "/"},
	})

	require.Equal(t, "AT1", tier.Get("token"))
	require.Equal(t, "RT1", tier.Get("refresh_token"))
	require.Empty(t, tier.Get("other"))

	tier.Clear("token", "refresh_token")
	require.Empty(t, tier.Get("token"))
	require.Empty(t, tier.Get("refresh_token"))
}
