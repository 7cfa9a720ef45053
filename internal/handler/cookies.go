package handler

import (
	"net/http"
	"time"

	"videomate-auth/internal/model"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// CookieCodec moves token pairs in and out of HTTP cookies. It is the only
// seam between the session coordinator and the HTTP layer: handlers hand it
// a pair to set and ask it for presented tokens, nothing else.
//
// In production the cookies are Secure with SameSite=None so the browser
// clients on other origins can send them; in development they stay Lax over
// plain HTTP.
type CookieCodec struct {
	secure     bool
	sameSite   http.SameSite
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCookieCodec(production bool, accessTTL time.Duration, refreshTTL time.Duration) *CookieCodec {
	sameSite := http.SameSiteLaxMode
	if production {
		sameSite = http.SameSiteNoneMode
	}

	return &CookieCodec{
		secure:     production,
		sameSite:   sameSite,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (c *CookieCodec) Write(w http.ResponseWriter, pair model.TokenPair) {
	http.SetCookie(w, c.cookie(AccessTokenCookie, pair.AccessToken, c.accessTTL))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, pair.RefreshToken, c.refreshTTL))
}

// Clear expires both token cookies. Called on logout and on every auth
// rejection so clients do not retry with a token that can only keep failing.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.expired(AccessTokenCookie))
	http.SetCookie(w, c.expired(RefreshTokenCookie))
}

func (c *CookieCodec) AccessToken(r *http.Request) string {
	return cookieValue(r, AccessTokenCookie)
}

func (c *CookieCodec) RefreshToken(r *http.Request) string {
	return cookieValue(r, RefreshTokenCookie)
}

func (c *CookieCodec) cookie(name string, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	}
}

func (c *CookieCodec) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
