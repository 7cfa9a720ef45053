package middleware

import (
	"context"
	"net/http"
	"strings"

	"videomate-auth/internal/model"
	"videomate-auth/internal/token"
)

type accessVerifier interface {
	Verify(tokenString string, kind token.Kind) (string, error)
}

type contextKey string

const accountIDContextKey contextKey = "account_id"

// accessTokenCookie mirrors handler.AccessTokenCookie; the middleware reads
// it directly to avoid an import cycle with the handler package.
const accessTokenCookie = "access_token"

type AuthMiddleware struct {
	verifier accessVerifier
}

func NewAuthMiddleware(verifier accessVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth accepts the access token from the Authorization header or the
// access cookie. Only the account id goes into the context; anything else
// about the account must be re-fetched from the store.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := bearerToken(r)
		if presented == "" {
			if cookie, err := r.Cookie(accessTokenCookie); err == nil {
				presented = cookie.Value
			}
		}

		if presented == "" {
			writeUnauthorized(w, "authentication required")
			return
		}

		accountID, err := m.verifier.Verify(presented, token.KindAccess)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), accountIDContextKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AccountIDFromContext(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(accountIDContextKey).(string)
	return accountID, ok && accountID != ""
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}
