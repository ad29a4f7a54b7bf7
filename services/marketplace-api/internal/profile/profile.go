// Package profile lets users read and edit their own profile.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/services/marketplace-api/internal/policy"
	"artisanhub/services/marketplace-api/internal/session"
	"artisanhub/shared/pkg/models"
)

type Repo interface {
	Get(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, id string, upd models.ProfileUpdate) (models.User, error)
}

type Refresher interface {
	RefreshProfile(ctx context.Context, accountID string) (models.User, error)
}

type Service struct {
	Repo     Repo
	Sessions Refresher
	Log      zerolog.Logger
}

func (s *Service) Get(ctx context.Context, actor policy.Actor, id string) (models.User, error) {
	if err := policy.Can(actor, policy.ActionRead, policy.Profile(id)); err != nil {
		return models.User{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, apperr.Invalid("id", "must be a uuid")
	}
	return s.Repo.Get(ctx, id)
}

// Update applies upd to the actor's own profile and refreshes the session cache.
func (s *Service) Update(ctx context.Context, actor policy.Actor, upd models.ProfileUpdate) (models.User, error) {
	if err := policy.Can(actor, policy.ActionUpdate, policy.Profile(actor.ID)); err != nil {
		return models.User{}, err
	}
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Location = strings.TrimSpace(upd.Location)
	if upd.Name == "" {
		return models.User{}, apperr.Invalid("name", "is required")
	}
	if upd.Description != nil {
		d := strings.TrimSpace(*upd.Description)
		if d == "" {
			upd.Description = nil
		} else {
			upd.Description = &d
		}
	}
	if err := session.ValidateCoordinates(upd.Latitude, upd.Longitude); err != nil {
		return models.User{}, err
	}

	u, err := s.Repo.Update(ctx, actor.ID, upd)
	if err != nil {
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	// The update has committed; a stale cache entry is reloaded on the next Resolve.
	if _, err := s.Sessions.RefreshProfile(ctx, actor.ID); err != nil {
		s.Log.Warn().Err(err).Str("user_id", actor.ID).Msg("refresh session profile failed")
	}
	return u, nil
}
