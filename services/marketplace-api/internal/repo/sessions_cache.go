package repo

import (
	"context"
	"encoding/json"
	"time"

	"artisanhub/services/marketplace-api/internal/identity"
	"artisanhub/shared/pkg/cache"
)

// AuthSessionsCached reads sessions through Redis, falling back to Postgres.
type AuthSessionsCached struct {
	PG    *AuthSessionsPG
	Redis *cache.Redis
}

func sessionKey(id string) string { return "auth_session:" + id }

func (r *AuthSessionsCached) Create(ctx context.Context, s identity.Session) error {
	if err := r.PG.Create(ctx, s); err != nil {
		return err
	}
	r.store(ctx, s)
	return nil
}

func (r *AuthSessionsCached) Get(ctx context.Context, id string) (identity.Session, error) {
	if raw, err := r.Redis.GetString(ctx, sessionKey(id)); err == nil {
		var s identity.Session
		if json.Unmarshal([]byte(raw), &s) == nil {
			return s, nil
		}
	}
	// cache miss or redis down

	s, err := r.PG.Get(ctx, id)
	if err != nil {
		return identity.Session{}, err
	}
	r.store(ctx, s)
	return s, nil
}

func (r *AuthSessionsCached) Revoke(ctx context.Context, id string) (identity.Session, error) {
	s, err := r.PG.Revoke(ctx, id)
	_ = r.Redis.Delete(ctx, sessionKey(id))
	return s, err
}

func (r *AuthSessionsCached) Active(ctx context.Context, now time.Time) ([]identity.Session, error) {
	return r.PG.Active(ctx, now)
}

func (r *AuthSessionsCached) store(ctx context.Context, s identity.Session) {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return
	}
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	_ = r.Redis.SetString(ctx, sessionKey(s.ID), string(b), ttl)
}
