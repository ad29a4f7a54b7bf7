package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"artisanhub/services/marketplace-api/internal/identity"
)

const pgUniqueViolation = "23505"

type AccountsPG struct {
	DB *pgxpool.Pool
}

func (r *AccountsPG) Create(ctx context.Context, a identity.Account) error {
	_, err := r.DB.Exec(ctx, `
		insert into accounts(id, email, password_hash, created_at)
		values ($1, $2, $3, $4)
	`, a.ID, a.Email, a.PasswordHash, a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return identity.ErrEmailTaken
	}
	return err
}

func (r *AccountsPG) ByEmail(ctx context.Context, email string) (identity.Account, error) {
	var a identity.Account
	err := r.DB.QueryRow(ctx, `
		select id, email, password_hash, created_at from accounts where email = $1
	`, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.Account{}, identity.ErrUnknownAccount
	}
	if err != nil {
		return identity.Account{}, fmt.Errorf("select account: %w", err)
	}
	return a, nil
}
