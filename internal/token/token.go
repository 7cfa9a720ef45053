package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"videomate-auth/internal/model"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Pair is one access/refresh issuance. ExpiresIn is the access token
// lifetime in seconds, for clients that schedule their own refresh.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type sessionClaims struct {
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager signs and verifies the access/refresh token pair. The two kinds
// use distinct HS256 secrets, so a refresh token can never verify as an
// access token or vice versa even if the typ claim were forged.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewManager(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*Manager, error) {
	if strings.TrimSpace(accessSecret) == "" || strings.TrimSpace(refreshSecret) == "" {
		return nil, errors.New("token manager: both signing secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("token manager: access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token manager: token lifetimes must be positive")
	}

	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// IssuePair mints a fresh access/refresh pair bound to accountID. It has no
// side effects; persisting the refresh token is the caller's job.
func (m *Manager) IssuePair(accountID string) (Pair, error) {
	access, err := m.sign(accountID, KindAccess)
	if err != nil {
		return Pair{}, err
	}

	refresh, err := m.sign(accountID, KindRefresh)
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

// Verify checks signature, expiry and kind, and returns the embedded account
// id. Callers must not trust anything else about the account without
// re-fetching it from the store.
func (m *Manager) Verify(tokenString string, kind Kind) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)

	parsed, err := parser.ParseWithClaims(tokenString, &sessionClaims{}, func(*jwt.Token) (any, error) {
		return m.secretFor(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", model.ErrExpiredToken
		}
		return "", model.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return "", model.ErrInvalidToken
	}
	if claims.Kind != string(kind) || claims.Subject == "" {
		return "", model.ErrInvalidToken
	}

	return claims.Subject, nil
}

func (m *Manager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *Manager) sign(accountID string, kind Kind) (string, error) {
	now := m.now().UTC()
	ttl := m.accessTTL
	if kind == KindRefresh {
		ttl = m.refreshTTL
	}

	claims := sessionClaims{
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretFor(kind))
}

func (m *Manager) secretFor(kind Kind) []byte {
	if kind == KindRefresh {
		return m.refreshSecret
	}
	return m.accessSecret
}
