package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"artisanhub/services/marketplace-api/internal/identity"
)

type AuthSessionsPG struct {
	DB *pgxpool.Pool
}

const sessionColumns = `id, account_id, created_at, expires_at`

func scanSession(row pgx.Row) (identity.Session, error) {
	var s identity.Session
	err := row.Scan(&s.ID, &s.AccountID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.Session{}, identity.ErrNoSession
	}
	return s, err
}

func (r *AuthSessionsPG) Create(ctx context.Context, s identity.Session) error {
	_, err := r.DB.Exec(ctx, `
		insert into auth_sessions(id, account_id, created_at, expires_at)
		values ($1, $2, $3, $4)
	`, s.ID, s.AccountID, s.CreatedAt, s.ExpiresAt)
	return err
}

func (r *AuthSessionsPG) Get(ctx context.Context, id string) (identity.Session, error) {
	return scanSession(r.DB.QueryRow(ctx, `
		select `+sessionColumns+` from auth_sessions where id = $1 and revoked_at is null
	`, id))
}

func (r *AuthSessionsPG) Revoke(ctx context.Context, id string) (identity.Session, error) {
	return scanSession(r.DB.QueryRow(ctx, `
		update auth_sessions set revoked_at = now()
		where id = $1 and revoked_at is null
		returning `+sessionColumns, id))
}

func (r *AuthSessionsPG) Active(ctx context.Context, now time.Time) ([]identity.Session, error) {
	rows, err := r.DB.Query(ctx, `
		select `+sessionColumns+` from auth_sessions
		where revoked_at is null and expires_at > $1
		order by created_at
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []identity.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
