package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videomate-auth/internal/model"
)

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()

	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestCookieCodecWriteDevelopment(t *testing.T) {
	codec := NewCookieCodec(false, 15*time.Minute, 240*time.Hour)

	rec := httptest.NewRecorder()
	codec.Write(rec, model.TokenPair{AccessToken: "access-value", RefreshToken: "refresh-value"})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	access := findCookie(t, cookies, AccessTokenCookie)
	assert.Equal(t, "access-value", access.Value)
	assert.True(t, access.HttpOnly)
	assert.False(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)

	refresh := findCookie(t, cookies, RefreshTokenCookie)
	assert.Equal(t, "refresh-value", refresh.Value)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, int((240 * time.Hour).Seconds()), refresh.MaxAge)
}

func TestCookieCodecWriteProduction(t *testing.T) {
	codec := NewCookieCodec(true, 15*time.Minute, 240*time.Hour)

	rec := httptest.NewRecorder()
	codec.Write(rec, model.TokenPair{AccessToken: "access-value", RefreshToken: "refresh-value"})

	for _, c := range rec.Result().Cookies() {
		assert.True(t, c.Secure)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
	}
}

func TestCookieCodecClear(t *testing.T) {
	codec := NewCookieCodec(false, 15*time.Minute, 240*time.Hour)

	rec := httptest.NewRecorder()
	codec.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
}

func TestCookieCodecRoundTrip(t *testing.T) {
	codec := NewCookieCodec(false, 15*time.Minute, 240*time.Hour)

	rec := httptest.NewRecorder()
	codec.Write(rec, model.TokenPair{AccessToken: "access-value", RefreshToken: "refresh-value"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	assert.Equal(t, "access-value", codec.AccessToken(req))
	assert.Equal(t, "refresh-value", codec.RefreshToken(req))
}
