package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videomate-auth/internal/model"
)

func seedAccount(t *testing.T, store *MemoryStore) model.Account {
	t.Helper()

	account := model.Account{
		ID:       "account-1",
		Username: "alice",
		Email:    "alice@example.com",
	}
	require.NoError(t, store.Create(context.Background(), account))
	return account
}

func TestFindByIdentifierMatchesUsernameAndEmail(t *testing.T) {
	store := NewMemoryStore()
	seedAccount(t, store)

	byUsername, err := store.FindByIdentifier(context.Background(), "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "account-1", byUsername.ID)

	byEmail, err := store.FindByIdentifier(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "account-1", byEmail.ID)

	_, err = store.FindByIdentifier(context.Background(), "bob")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestRotateRefreshTokenIsCompareAndSwap(t *testing.T) {
	store := NewMemoryStore()
	account := seedAccount(t, store)
	ctx := context.Background()

	require.NoError(t, store.SetRefreshToken(ctx, account.ID, "token-1"))

	require.NoError(t, store.RotateRefreshToken(ctx, account.ID, "token-1", "token-2"))

	// The old value no longer matches.
	err := store.RotateRefreshToken(ctx, account.ID, "token-1", "token-3")
	assert.ErrorIs(t, err, model.ErrTokenReuse)

	require.NoError(t, store.RotateRefreshToken(ctx, account.ID, "token-2", "token-3"))
}

func TestRotateRefreshTokenAfterClear(t *testing.T) {
	store := NewMemoryStore()
	account := seedAccount(t, store)
	ctx := context.Background()

	require.NoError(t, store.SetRefreshToken(ctx, account.ID, "token-1"))
	require.NoError(t, store.ClearRefreshToken(ctx, account.ID))

	err := store.RotateRefreshToken(ctx, account.ID, "token-1", "token-2")
	assert.ErrorIs(t, err, model.ErrTokenReuse)
}

func TestClearRefreshTokenIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	account := seedAccount(t, store)
	ctx := context.Background()

	require.NoError(t, store.ClearRefreshToken(ctx, account.ID))
	require.NoError(t, store.ClearRefreshToken(ctx, account.ID))
	require.NoError(t, store.ClearRefreshToken(ctx, "missing"))
}

func TestConcurrentRotationHasOneWinner(t *testing.T) {
	store := NewMemoryStore()
	account := seedAccount(t, store)
	ctx := context.Background()

	require.NoError(t, store.SetRefreshToken(ctx, account.ID, "token-1"))

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan int, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := store.RotateRefreshToken(ctx, account.ID, "token-1", "next"); err == nil {
				wins <- n
			}
		}(i)
	}

	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}
