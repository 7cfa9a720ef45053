package service

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"videomate-auth/internal/event"
	"videomate-auth/internal/model"
	"videomate-auth/internal/token"
	"videomate-auth/pkg/apierror"
)

const bcryptCost = 12

// CredentialStore is the persistence seam of the session coordinator. All
// operations are single-record and atomic; RotateRefreshToken in particular
// must be an update-if-matches, not a read followed by a write.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (model.Account, error)
	FindByIdentifier(ctx context.Context, identifier string) (model.Account, error)
	Exists(ctx context.Context, username string, email string) (bool, error)
	Create(ctx context.Context, a model.Account) error
	SetRefreshToken(ctx context.Context, id string, refreshToken string) error
	RotateRefreshToken(ctx context.Context, id string, presented string, next string) error
	ClearRefreshToken(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
}

// SessionService orchestrates login, logout, refresh rotation and password
// changes on top of the credential store and the token manager.
type SessionService struct {
	store  CredentialStore
	tokens *token.Manager
	bus    event.Bus
}

func NewSessionService(store CredentialStore, tokens *token.Manager, bus event.Bus) *SessionService {
	return &SessionService{store: store, tokens: tokens, bus: bus}
}

func (s *SessionService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthAccount, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)

	if username == "" || email == "" || req.Password == "" {
		return model.AuthAccount{}, apierror.New("BAD_REQUEST", "username, email and password are required", "", http.StatusBadRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.AuthAccount{}, apierror.New("BAD_REQUEST", "invalid email address", email, http.StatusBadRequest)
	}

	exists, err := s.store.Exists(ctx, username, email)
	if err != nil {
		return model.AuthAccount{}, err
	}
	if exists {
		return model.AuthAccount{}, model.ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return model.AuthAccount{}, err
	}

	now := time.Now().UTC()
	account := model.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, account); err != nil {
		return model.AuthAccount{}, err
	}

	s.publish(event.TypeRegister, account.ID, account.Username, event.StatusSuccess, "")
	return authAccount(account), nil
}

// Login authenticates by username or email. An unknown identifier and a
// wrong password both come back as ErrInvalidCredentials so the response
// never reveals whether the account exists.
func (s *SessionService) Login(ctx context.Context, identifier string, password string) (model.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	account, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			s.publish(event.TypeLogin, "", identifier, event.StatusDenied, model.ErrInvalidCredentials.Error())
			return model.TokenPair{}, model.ErrInvalidCredentials
		}
		return model.TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.publish(event.TypeLogin, account.ID, account.Username, event.StatusDenied, model.ErrInvalidCredentials.Error())
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(account.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.store.SetRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
		return model.TokenPair{}, err
	}

	s.publish(event.TypeLogin, account.ID, account.Username, event.StatusSuccess, "")
	return tokenPair(pair, account), nil
}

// Refresh exchanges a still-valid refresh token for a new pair. The stored
// token is replaced by the new one in a single conditional update, so each
// issued refresh token succeeds at most once; a replayed token fails with
// ErrTokenReuse.
func (s *SessionService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return model.TokenPair{}, model.ErrUnauthenticated
	}

	accountID, err := s.tokens.Verify(presented, token.KindRefresh)
	if err != nil {
		return model.TokenPair{}, err
	}

	account, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.TokenPair{}, model.ErrInvalidToken
		}
		return model.TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(account.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.store.RotateRefreshToken(ctx, account.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, model.ErrTokenReuse) {
			s.publish(event.TypeTokenReuse, account.ID, account.Username, event.StatusDenied, err.Error())
		}
		return model.TokenPair{}, err
	}

	s.publish(event.TypeRefresh, account.ID, account.Username, event.StatusSuccess, "")
	return tokenPair(pair, account), nil
}

// Logout invalidates the current refresh token. Logging out twice is fine.
func (s *SessionService) Logout(ctx context.Context, accountID string) error {
	if err := s.store.ClearRefreshToken(ctx, accountID); err != nil {
		return err
	}

	s.publish(event.TypeLogout, accountID, "", event.StatusSuccess, "")
	return nil
}

// ChangePassword re-verifies the old password before replacing the hash. The
// current refresh token stays valid; the session that changed the password
// keeps its login.
func (s *SessionService) ChangePassword(ctx context.Context, accountID string, oldPassword string, newPassword string) error {
	if newPassword == "" {
		return apierror.New("BAD_REQUEST", "new password is required", "", http.StatusBadRequest)
	}

	account, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(oldPassword)); err != nil {
		s.publish(event.TypePasswordChange, account.ID, account.Username, event.StatusDenied, model.ErrInvalidCredentials.Error())
		return model.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}

	if err := s.store.UpdatePasswordHash(ctx, account.ID, string(hash)); err != nil {
		return err
	}

	s.publish(event.TypePasswordChange, account.ID, account.Username, event.StatusSuccess, "")
	return nil
}

func (s *SessionService) CurrentAccount(ctx context.Context, accountID string) (model.AuthAccount, error) {
	account, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return model.AuthAccount{}, err
	}
	return authAccount(account), nil
}

func (s *SessionService) publish(eventType event.Type, actorID string, username string, status string, errText string) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Username:  username,
		Status:    status,
		Error:     errText,
		Timestamp: time.Now().UTC(),
	})
}

func authAccount(a model.Account) model.AuthAccount {
	return model.AuthAccount{ID: a.ID, Username: a.Username, Email: a.Email, FullName: a.FullName}
}

func tokenPair(p token.Pair, a model.Account) model.TokenPair {
	return model.TokenPair{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    p.ExpiresIn,
		Account:      authAccount(a),
	}
}
