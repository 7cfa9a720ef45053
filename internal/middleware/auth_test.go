package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videomate-auth/internal/token"
)

func newAuthedHandler(t *testing.T) (*token.Manager, http.Handler, *string) {
	t.Helper()

	tokens, err := token.NewManager("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	require.NoError(t, err)

	var seenAccountID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := AccountIDFromContext(r.Context())
		require.True(t, ok)
		seenAccountID = accountID
		w.WriteHeader(http.StatusOK)
	})

	return tokens, NewAuthMiddleware(tokens).RequireAuth(next), &seenAccountID
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	_, handler, _ := newAuthedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAcceptsBearerHeader(t *testing.T) {
	tokens, handler, seen := newAuthedHandler(t)

	pair, err := tokens.IssuePair("account-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "account-1", *seen)
}

func TestRequireAuthAcceptsAccessCookie(t *testing.T) {
	tokens, handler, seen := newAuthedHandler(t)

	pair, err := tokens.IssuePair("account-2")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: pair.AccessToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "account-2", *seen)
}

func TestRequireAuthRejectsRefreshTokenAsBearer(t *testing.T) {
	tokens, handler, _ := newAuthedHandler(t)

	pair, err := tokens.IssuePair("account-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	_, handler, _ := newAuthedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
