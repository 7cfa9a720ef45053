package repository

import (
	"context"
	"strings"
	"sync"

	"videomate-auth/internal/model"
)

// MemoryStore is an in-process credential store with the same contract as
// AccountRepository, used by tests and local development without PostgreSQL.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: map[string]model.Account{}}
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, model.ErrAccountNotFound
	}
	return a, nil
}

func (s *MemoryStore) FindByIdentifier(_ context.Context, identifier string) (model.Account, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if strings.ToLower(a.Username) == key || strings.ToLower(a.Email) == key {
			return a, nil
		}
	}
	return model.Account{}, model.ErrAccountNotFound
}

func (s *MemoryStore) Exists(_ context.Context, username string, email string) (bool, error) {
	usernameKey := strings.ToLower(strings.TrimSpace(username))
	emailKey := strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if strings.ToLower(a.Username) == usernameKey || strings.ToLower(a.Email) == emailKey {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Create(_ context.Context, a model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[a.ID]; ok {
		return model.ErrAccountExists
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *MemoryStore) SetRefreshToken(_ context.Context, id string, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	a.RefreshToken = refreshToken
	s.accounts[id] = a
	return nil
}

// RotateRefreshToken performs the compare-and-swap under the store lock, so
// concurrent refreshes with the same presented token have exactly one winner.
func (s *MemoryStore) RotateRefreshToken(_ context.Context, id string, presented string, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.RefreshToken == "" || a.RefreshToken != presented {
		return model.ErrTokenReuse
	}
	a.RefreshToken = next
	s.accounts[id] = a
	return nil
}

func (s *MemoryStore) ClearRefreshToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	a.RefreshToken = ""
	s.accounts[id] = a
	return nil
}

func (s *MemoryStore) UpdatePasswordHash(_ context.Context, id string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	a.PasswordHash = passwordHash
	s.accounts[id] = a
	return nil
}
