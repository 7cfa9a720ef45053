package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"videomate-auth/internal/model"
)

// AccountRepository is the PostgreSQL credential store. Refresh-token
// rotation is a single conditional UPDATE so two concurrent refreshes with
// the same token can never both succeed.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (model.Account, error) {
	return r.findOne(ctx,
		`SELECT id, username, email, full_name, password_hash, COALESCE(refresh_token, ''), created_at, updated_at
		 FROM accounts WHERE id = $1`, id)
}

// FindByIdentifier resolves a username or an email; both are unique at
// creation time, so at most one row can match.
func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (model.Account, error) {
	return r.findOne(ctx,
		`SELECT id, username, email, full_name, password_hash, COALESCE(refresh_token, ''), created_at, updated_at
		 FROM accounts WHERE lower(username) = lower($1) OR lower(email) = lower($1)`,
		strings.TrimSpace(identifier))
}

func (r *AccountRepository) Exists(ctx context.Context, username string, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM accounts
		   WHERE lower(username) = lower($1) OR lower(email) = lower($2)
		 )`, strings.TrimSpace(username), strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	return exists, nil
}

func (r *AccountRepository) Create(ctx context.Context, a model.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (id, username, email, full_name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Username, a.Email, a.FullName, a.PasswordHash, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) SetRefreshToken(ctx context.Context, id string, refreshToken string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET refresh_token = $2, updated_at = $3 WHERE id = $1`,
		id, refreshToken, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

// RotateRefreshToken replaces the stored refresh token only if the presented
// value still matches it. A zero-row update means the presented token was
// already rotated, or cleared by logout.
func (r *AccountRepository) RotateRefreshToken(ctx context.Context, id string, presented string, next string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET refresh_token = $3, updated_at = $4
		 WHERE id = $1 AND refresh_token = $2`,
		id, presented, next, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenReuse
	}
	return nil
}

// ClearRefreshToken is idempotent; clearing an already-cleared or unknown
// account is not an error.
func (r *AccountRepository) ClearRefreshToken(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET refresh_token = NULL, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg any) (model.Account, error) {
	var a model.Account
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&a.ID, &a.Username, &a.Email, &a.FullName, &a.PasswordHash, &a.RefreshToken, &a.CreatedAt, &a.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("find account: %w", err)
	}
	return a, nil
}
