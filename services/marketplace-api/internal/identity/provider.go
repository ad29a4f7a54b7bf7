package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

type Provider struct {
	accounts Accounts
	sessions Sessions
	tokens   *Tokens
	notifier *Notifier
	ttl      time.Duration

	// HashCost is the bcrypt cost for new passwords.
	HashCost int
	now      func() time.Time
}

func NewProvider(accounts Accounts, sessions Sessions, tokens *Tokens, notifier *Notifier, ttl time.Duration) *Provider {
	return &Provider{
		accounts: accounts,
		sessions: sessions,
		tokens:   tokens,
		notifier: notifier,
		ttl:      ttl,
		HashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount registers email/password and signs the new account in.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (Grant, error) {
	if len(p.tokens.secret) == 0 {
		return Grant{}, errEmptySecret
	}
	if len(password) > MaxPasswordBytes {
		return Grant{}, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.HashCost)
	if err != nil {
		return Grant{}, fmt.Errorf("hash password: %w", err)
	}
	acc := Account{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.accounts.Create(ctx, acc); err != nil {
		return Grant{}, fmt.Errorf("create account: %w", err)
	}
	return p.startSession(ctx, acc.ID)
}

func (p *Provider) VerifyCredentials(ctx context.Context, email, password string) (Grant, error) {
	acc, err := p.accounts.ByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrUnknownAccount) {
		return Grant{}, ErrInvalidCredentials
	}
	if err != nil {
		return Grant{}, fmt.Errorf("lookup account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return Grant{}, ErrInvalidCredentials
	}
	return p.startSession(ctx, acc.ID)
}

func (p *Provider) startSession(ctx context.Context, accountID string) (Grant, error) {
	now := p.now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(p.ttl),
	}
	token, err := p.tokens.Issue(s)
	if err != nil {
		return Grant{}, fmt.Errorf("issue token: %w", err)
	}
	if err := p.sessions.Create(ctx, s); err != nil {
		return Grant{}, fmt.Errorf("create session: %w", err)
	}
	p.notifier.Publish(ctx, Event{Kind: SignedIn, Session: s})
	return Grant{Token: token, Session: s}, nil
}

// Current returns the live session behind token.
func (p *Provider) Current(ctx context.Context, token string) (Session, error) {
	now := p.now()
	claims, err := p.tokens.Parse(token, now)
	if err != nil {
		return Session{}, err
	}
	s, err := p.sessions.Get(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if s.AccountID != claims.Subject || s.Expired(now) {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Terminate revokes the session behind token.
func (p *Provider) Terminate(ctx context.Context, token string) error {
	claims, err := p.tokens.Parse(token, p.now())
	if err != nil {
		return err
	}
	s, err := p.sessions.Revoke(ctx, claims.ID)
	if err != nil {
		return err
	}
	p.notifier.Publish(ctx, Event{Kind: SignedOut, Session: s})
	return nil
}

func (p *Provider) ActiveSessions(ctx context.Context) ([]Session, error) {
	return p.sessions.Active(ctx, p.now())
}

func (p *Provider) Subscribe(fn Listener) func() {
	return p.notifier.Subscribe(fn)
}
