package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/services/marketplace-api/internal/artisans"
	"artisanhub/services/marketplace-api/internal/catalog"
	"artisanhub/services/marketplace-api/internal/geocode"
	"artisanhub/services/marketplace-api/internal/identity"
	"artisanhub/services/marketplace-api/internal/orders"
	"artisanhub/services/marketplace-api/internal/policy"
	"artisanhub/services/marketplace-api/internal/profile"
	"artisanhub/services/marketplace-api/internal/session"
)

const maxJSONBody = 1 << 20

type Subscriber interface {
	Subscribe(fn identity.Listener) func()
}

type Handlers struct {
	Log      zerolog.Logger
	Sessions *session.Store
	Profiles *profile.Service
	Catalog  *catalog.Service
	Orders   *orders.Service
	Artisans *artisans.Service
	Geocoder geocode.Geocoder
	Events   Subscriber
	Upgrader websocket.Upgrader
}

func actor(ctx context.Context) policy.Actor {
	e, ok := session.FromContext(ctx)
	if !ok {
		return policy.Actor{}
	}
	return e.Actor()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v); err != nil {
		return apperr.Invalid("body", "bad json")
	}
	return nil
}

// fail maps a service error to its status code and a short message.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *apperr.ValidationError
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Msg, "field": ve.Field})
		return
	case errors.Is(err, apperr.ErrInvalid):
		status, msg = http.StatusBadRequest, "invalid input"
	case errors.Is(err, identity.ErrPasswordTooLong):
		status, msg = http.StatusBadRequest, "password too long"
	case errors.Is(err, identity.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, identity.ErrNoSession):
		status, msg = http.StatusUnauthorized, "no active session"
	case errors.Is(err, identity.ErrEmailTaken):
		status, msg = http.StatusConflict, "email already registered"
	case errors.Is(err, orders.ErrInvalidTransition):
		status, msg = http.StatusConflict, "invalid status transition"
	case errors.Is(err, apperr.ErrConflict):
		status, msg = http.StatusConflict, "order changed, reload and retry"
	case errors.Is(err, apperr.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, geocode.ErrNoMatch):
		status, msg = http.StatusNotFound, "no match for place"
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, geocode.ErrUpstream):
		status, msg = http.StatusBadGateway, "geocoding unavailable"
	case errors.Is(err, catalog.ErrPhotosDisabled):
		status, msg = http.StatusServiceUnavailable, "photo storage not configured"
	case errors.Is(err, session.ErrLoading):
		status, msg = http.StatusServiceUnavailable, "session loading"
	}
	if status >= 500 {
		h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
