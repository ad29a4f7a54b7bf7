// Package identity is the account and session authority: it owns credentials,
// issues session tokens and announces sign-in/sign-out changes.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("no active session")
	ErrUnknownAccount     = errors.New("unknown account")
	ErrPasswordTooLong    = errors.New("password too long")
)

type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Grant is the result of a successful sign-in.
type Grant struct {
	Token   string
	Session Session
}

type Accounts interface {
	Create(ctx context.Context, a Account) error
	ByEmail(ctx context.Context, email string) (Account, error)
}

// Sessions stores auth sessions. Get and Revoke return ErrNoSession for
// unknown or revoked sessions.
type Sessions interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Revoke(ctx context.Context, id string) (Session, error)
	Active(ctx context.Context, now time.Time) ([]Session, error)
}
