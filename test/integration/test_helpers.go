//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"videomate-auth/internal/config"
	"videomate-auth/internal/event"
	"videomate-auth/internal/handler"
	"videomate-auth/internal/middleware"
	"videomate-auth/internal/model"
	"videomate-auth/internal/repository"
	"videomate-auth/internal/router"
	"videomate-auth/internal/service"
	"videomate-auth/internal/token"
)

// memoryRecorder keeps audit entries in memory so the full router can be
// exercised without PostgreSQL.
type memoryRecorder struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (m *memoryRecorder) Log(_ context.Context, entry model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryRecorder) Query(_ context.Context, _ model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.AuditEntry, len(m.entries))
	copy(items, m.entries)
	return items, model.Meta{Page: 1, Limit: 50, Total: len(items), TotalPages: 1}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		ServerPort:         "0",
		Environment:        "development",
		DatabaseURL:        "unused",
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    240 * time.Hour,
		RequestTimeout:     15 * time.Second,
		CORSOrigins:        []string{"*"},
		RateLimitRPM:       10000,
		AuthRateLimitRPM:   10000,
	}
	require.NoError(t, cfg.Validate())

	tokens, err := token.NewManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	require.NoError(t, err)

	bus := event.NewBus()

	auditCtx, auditCancel := context.WithCancel(context.Background())
	t.Cleanup(auditCancel)
	auditService := service.NewAuditService(&memoryRecorder{}, bus)
	auditService.Start(auditCtx)

	sessions := service.NewSessionService(repository.NewMemoryStore(), tokens, bus)
	cookies := handler.NewCookieCodec(cfg.IsProduction(), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(tokens), router.Handlers{
		Auth:  handler.NewAuthHandler(sessions, cookies),
		Audit: handler.NewAuditHandler(auditService),
	})

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var parsed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return parsed
}

func registerAccount(t *testing.T, serverURL string) {
	t.Helper()

	resp := postJSON(t, serverURL+"/api/v1/auth/register", map[string]string{
		"username":  "alice",
		"email":     "alice@example.com",
		"full_name": "Alice Example",
		"password":  "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func dataField(t *testing.T, parsed map[string]any, key string) string {
	t.Helper()

	data, ok := parsed["data"].(map[string]any)
	require.True(t, ok, "response has no data object")
	value, _ := data[key].(string)
	return value
}
