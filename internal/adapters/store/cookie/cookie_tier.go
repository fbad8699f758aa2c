// Package cookie exposes the HTTP client's jar as the fallback token tier.
// The server mirrors credentials into cookies (the access one HttpOnly in
// the browser; a plain jar here), so a session can be recovered even when
// the local store is empty.
package cookie

import (
	"net/http"
	"net/url"
)

type Tier struct {
	jar  http.CookieJar
	base *url.URL
}

func New(jar http.CookieJar, base *url.URL) *Tier {
	return &Tier{jar: jar, base: base}
}

func (t *Tier) Get(name string) string {
	for _, c := range t.jar.Cookies(t.base) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// Clear expires the named cookies in the jar.
func (t *Tier) Clear(names ...string) {
	expired := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		expired = append(expired, &http.Cookie{
			Name:   name,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}
	t.jar.SetCookies(t.base, expired)
}
