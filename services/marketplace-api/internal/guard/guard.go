// Package guard gates routes on session state and role.
package guard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"artisanhub/services/marketplace-api/internal/session"
	"artisanhub/shared/pkg/models"
)

type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

type Outcome int

const (
	Wait Outcome = iota
	RedirectSignIn
	RedirectHome
	Render
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case RedirectSignIn:
		return "redirect_signin"
	case RedirectHome:
		return "redirect_home"
	case Render:
		return "render"
	}
	return "unknown"
}

// Decide maps the session state and the user's role to a routing outcome.
// An empty required role admits any signed-in user.
func Decide(state State, role models.Role, required models.Role) Outcome {
	switch state {
	case StateLoading:
		return Wait
	case StateUnauthenticated:
		return RedirectSignIn
	}
	if required != "" && role != required {
		return RedirectHome
	}
	return Render
}

type Resolver interface {
	Resolve(ctx context.Context, token string) (session.Entry, error)
}

// TokenFromRequest reads a bearer token, falling back to the token query
// parameter used by websocket clients.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		const prefix = "bearer "
		if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			return strings.TrimSpace(h[len(prefix):])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Require admits requests whose session satisfies required.
func Require(res Resolver, required models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry, state, err := resolve(r, res)
			if err != nil {
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": "session lookup failed"})
				return
			}
			switch Decide(state, entry.Role(), required) {
			case Wait:
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session loading"})
			case RedirectSignIn:
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required", "redirect": "/signin"})
			case RedirectHome:
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "not allowed for this role", "redirect": "/"})
			default:
				next.ServeHTTP(w, r.WithContext(session.WithEntry(r.Context(), entry)))
			}
		})
	}
}

// Optional attaches the session when one resolves and never rejects.
func Optional(res Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry, state, err := resolve(r, res)
			if err == nil && state == StateAuthenticated {
				r = r.WithContext(session.WithEntry(r.Context(), entry))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolve(r *http.Request, res Resolver) (session.Entry, State, error) {
	token := TokenFromRequest(r)
	entry, err := res.Resolve(r.Context(), token)
	switch {
	case err == nil:
		return entry, StateAuthenticated, nil
	case errors.Is(err, session.ErrLoading):
		return session.Entry{}, StateLoading, nil
	case errors.Is(err, session.ErrNoSession):
		return session.Entry{}, StateUnauthenticated, nil
	}
	return session.Entry{}, StateUnauthenticated, err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
