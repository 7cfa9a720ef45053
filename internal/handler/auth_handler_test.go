package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videomate-auth/internal/model"
	"videomate-auth/internal/repository"
	"videomate-auth/internal/service"
	"videomate-auth/internal/token"
)

func newTestHandler(t *testing.T) *AuthHandler {
	t.Helper()

	tokens, err := token.NewManager("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	require.NoError(t, err)

	sessions := service.NewSessionService(repository.NewMemoryStore(), tokens, nil)
	cookies := NewCookieCodec(false, 15*time.Minute, 240*time.Hour)

	_, err = sessions.Register(context.Background(), model.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	return NewAuthHandler(sessions, cookies)
}

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, path string, payload any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestLoginSetsTokenCookies(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Login, "/api/v1/auth/login",
		map[string]string{"identifier": "alice", "password": "secret123"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	access := findCookie(t, cookies, AccessTokenCookie)
	refresh := findCookie(t, cookies, RefreshTokenCookie)
	assert.NotEmpty(t, access.Value)
	assert.NotEmpty(t, refresh.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
}

func TestLoginFailureClearsCookies(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Login, "/api/v1/auth/login",
		map[string]string{"identifier": "alice", "password": "wrongpass"}, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
}

func TestLoginUnknownAccountMatchesWrongPassword(t *testing.T) {
	h := newTestHandler(t)

	wrongPassword := postJSON(t, h.Login, "/api/v1/auth/login",
		map[string]string{"identifier": "alice", "password": "wrongpass"}, nil)
	unknownAccount := postJSON(t, h.Login, "/api/v1/auth/login",
		map[string]string{"identifier": "nobody", "password": "wrongpass"}, nil)

	assert.Equal(t, wrongPassword.Code, unknownAccount.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownAccount.Body.String())
}

func TestRefreshFromCookie(t *testing.T) {
	h := newTestHandler(t)

	login := postJSON(t, h.Login, "/api/v1/auth/login",
		map[string]string{"identifier": "alice", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, login.Code)

	loginCookies := login.Result().Cookies()
	oldRefresh := findCookie(t, loginCookies, RefreshTokenCookie).Value

	refresh := postJSON(t, h.Refresh, "/api/v1/auth/refresh", map[string]string{}, loginCookies)
	require.Equal(t, http.StatusOK, refresh.Code)

	newRefresh := findCookie(t, refresh.Result().Cookies(), RefreshTokenCookie).Value
	assert.NotEmpty(t, newRefresh)
	assert.NotEqual(t, oldRefresh, newRefresh)
}

func TestRefreshFromBodyFallback(t *testing.T) {
	h := newTestHandler(t)

	login := postJSON(t, h.Login, "/api/v1/auth/login",
		map[string]string{"identifier": "alice", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, login.Code)

	refreshToken := findCookie(t, login.Result().Cookies(), RefreshTokenCookie).Value

	rec := postJSON(t, h.Refresh, "/api/v1/auth/refresh",
		map[string]string{"refresh_token": refreshToken}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshReplayRejectedAndCookiesCleared(t *testing.T) {
	h := newTestHandler(t)

	login := postJSON(t, h.Login, "/api/v1/auth/login",
		map[string]string{"identifier": "alice", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, login.Code)
	loginCookies := login.Result().Cookies()

	first := postJSON(t, h.Refresh, "/api/v1/auth/refresh", map[string]string{}, loginCookies)
	require.Equal(t, http.StatusOK, first.Code)

	// Replaying the original cookie after rotation must fail and clear the
	// session cookies so the client stops retrying.
	second := postJSON(t, h.Refresh, "/api/v1/auth/refresh", map[string]string{}, loginCookies)
	require.Equal(t, http.StatusUnauthorized, second.Code)

	for _, c := range second.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
}

func TestRefreshWithoutTokenRejected(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Refresh, "/api/v1/auth/refresh", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
