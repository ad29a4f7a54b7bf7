// Package session keeps the signed-in users and their profiles for the API.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/services/marketplace-api/internal/identity"
	"artisanhub/services/marketplace-api/internal/policy"
	"artisanhub/shared/pkg/geo"
	"artisanhub/shared/pkg/metrics"
	"artisanhub/shared/pkg/models"
)

const minPasswordLen = 6

var (
	ErrLoading          = errors.New("session store loading")
	ErrNoSession        = identity.ErrNoSession
	ErrPasswordTooShort = apperr.Invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	ErrPasswordTooLong  = apperr.Invalid("password", fmt.Sprintf("must be at most %d bytes", identity.MaxPasswordBytes))
	ErrPasswordMismatch = apperr.Invalid("confirm_password", "passwords do not match")
)

type Identity interface {
	CreateAccount(ctx context.Context, email, password string) (identity.Grant, error)
	VerifyCredentials(ctx context.Context, email, password string) (identity.Grant, error)
	Terminate(ctx context.Context, token string) error
	Current(ctx context.Context, token string) (identity.Session, error)
	ActiveSessions(ctx context.Context) ([]identity.Session, error)
	Subscribe(fn identity.Listener) func()
}

type Profiles interface {
	Create(ctx context.Context, u models.User) error
	Get(ctx context.Context, id string) (models.User, error)
}

// Entry is the current user and, once created, their profile.
type Entry struct {
	Session identity.Session `json:"session"`
	Profile *models.User     `json:"profile"`
}

func (e Entry) Actor() policy.Actor {
	a := policy.Actor{ID: e.Session.AccountID}
	if e.Profile != nil {
		a.Role = e.Profile.Role
	}
	return a
}

func (e Entry) Role() models.Role {
	if e.Profile == nil {
		return ""
	}
	return e.Profile.Role
}

// Result is returned by SignUp and SignIn.
type Result struct {
	Token string `json:"token"`
	Entry
}

type SignUpInput struct {
	Email       string
	Password    string
	Confirm     string
	Name        string
	Role        models.Role
	Location    string
	Latitude    *float64
	Longitude   *float64
	Description *string
}

// Store starts in the loading state; Init warms it and subscribes to
// identity changes, Close releases the subscription.
type Store struct {
	identity Identity
	profiles Profiles
	log      zerolog.Logger

	mu          sync.RWMutex
	loading     bool
	cache       map[string]models.User
	sessions    map[string]struct{}
	unsubscribe func()
}

func New(id Identity, profiles Profiles, log zerolog.Logger) *Store {
	return &Store{
		identity: id,
		profiles: profiles,
		log:      log,
		loading:  true,
		cache:    make(map[string]models.User),
		sessions: make(map[string]struct{}),
	}
}

func (s *Store) Init(ctx context.Context) error {
	unsubscribe := s.identity.Subscribe(s.onEvent)

	active, err := s.identity.ActiveSessions(ctx)
	if err != nil {
		unsubscribe()
		return fmt.Errorf("load active sessions: %w", err)
	}
	for _, sess := range active {
		s.trackSession(sess.ID, true)
		if _, err := s.loadProfile(ctx, sess.AccountID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			unsubscribe()
			return fmt.Errorf("load profile %s: %w", sess.AccountID, err)
		}
	}

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.loading = false
	s.mu.Unlock()

	s.log.Info().Int("sessions", len(active)).Msg("session store ready")
	return nil
}

func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.loading = true
	s.cache = make(map[string]models.User)
	s.sessions = make(map[string]struct{})
	s.mu.Unlock()

	metrics.ActiveSessions.Set(0)
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Resolve maps a bearer token to the current user and profile.
func (s *Store) Resolve(ctx context.Context, token string) (Entry, error) {
	if s.Loading() {
		return Entry{}, ErrLoading
	}
	if token == "" {
		return Entry{}, ErrNoSession
	}
	sess, err := s.identity.Current(ctx, token)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Session: sess}
	p, err := s.profile(ctx, sess.AccountID)
	switch {
	case err == nil:
		e.Profile = &p
	case errors.Is(err, apperr.ErrNotFound):
	default:
		return Entry{}, err
	}
	return e, nil
}

func (s *Store) SignUp(ctx context.Context, in SignUpInput) (Result, error) {
	if len(in.Password) < minPasswordLen {
		return Result{}, ErrPasswordTooShort
	}
	if len(in.Password) > identity.MaxPasswordBytes {
		return Result{}, ErrPasswordTooLong
	}
	if in.Password != in.Confirm {
		return Result{}, ErrPasswordMismatch
	}
	u, err := newProfile(in)
	if err != nil {
		return Result{}, err
	}
	if !validEmail(in.Email) {
		return Result{}, apperr.Invalid("email", "must be a valid address")
	}

	grant, err := s.identity.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return Result{}, err
	}
	u.ID = grant.Session.AccountID
	if err := s.profiles.Create(ctx, u); err != nil {
		return Result{}, fmt.Errorf("create profile: %w", err)
	}
	created, err := s.profiles.Get(ctx, u.ID)
	if err != nil {
		return Result{}, fmt.Errorf("reload profile: %w", err)
	}
	s.remember(created)
	metrics.SignupsTotal.WithLabelValues(string(created.Role)).Inc()

	return Result{Token: grant.Token, Entry: Entry{Session: grant.Session, Profile: &created}}, nil
}

func (s *Store) SignIn(ctx context.Context, email, password string) (Result, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Result{}, apperr.Invalid("credentials", "email and password are required")
	}
	grant, err := s.identity.VerifyCredentials(ctx, email, password)
	if err != nil {
		result := "error"
		if errors.Is(err, identity.ErrInvalidCredentials) {
			result = "rejected"
		}
		metrics.SignInsTotal.WithLabelValues(result).Inc()
		return Result{}, err
	}
	metrics.SignInsTotal.WithLabelValues("ok").Inc()

	e := Entry{Session: grant.Session}
	p, err := s.profile(ctx, grant.Session.AccountID)
	switch {
	case err == nil:
		e.Profile = &p
	case errors.Is(err, apperr.ErrNotFound):
	default:
		return Result{}, err
	}
	return Result{Token: grant.Token, Entry: e}, nil
}

func (s *Store) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoSession
	}
	return s.identity.Terminate(ctx, token)
}

// RefreshProfile reloads the stored profile of accountID into the cache.
func (s *Store) RefreshProfile(ctx context.Context, accountID string) (models.User, error) {
	return s.loadProfile(ctx, accountID)
}

func (s *Store) onEvent(ctx context.Context, ev identity.Event) {
	switch ev.Kind {
	case identity.SignedIn:
		s.trackSession(ev.Session.ID, true)
		if _, err := s.loadProfile(ctx, ev.Session.AccountID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			s.log.Warn().Err(err).Str("account_id", ev.Session.AccountID).Msg("profile load on sign-in failed")
		}
	case identity.SignedOut:
		s.trackSession(ev.Session.ID, false)
		s.mu.Lock()
		delete(s.cache, ev.Session.AccountID)
		s.mu.Unlock()
	}
}

func (s *Store) trackSession(id string, active bool) {
	s.mu.Lock()
	if active {
		s.sessions[id] = struct{}{}
	} else {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
}

func (s *Store) profile(ctx context.Context, accountID string) (models.User, error) {
	s.mu.RLock()
	u, ok := s.cache[accountID]
	s.mu.RUnlock()
	if ok {
		return u, nil
	}
	return s.loadProfile(ctx, accountID)
}

func (s *Store) loadProfile(ctx context.Context, accountID string) (models.User, error) {
	u, err := s.profiles.Get(ctx, accountID)
	if err != nil {
		return models.User{}, err
	}
	s.remember(u)
	return u, nil
}

func (s *Store) remember(u models.User) {
	s.mu.Lock()
	s.cache[u.ID] = u
	s.mu.Unlock()
}

// Cached reports whether the profile of accountID is held in memory.
func (s *Store) Cached(accountID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[accountID]
	return ok
}

func newProfile(in SignUpInput) (models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if !role.Valid() {
		return models.User{}, apperr.Invalid("role", "must be customer or artisan")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.User{}, apperr.Invalid("name", "is required")
	}
	if err := ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return models.User{}, err
	}
	return models.User{
		Name:        name,
		Role:        role,
		Location:    strings.TrimSpace(in.Location),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Description: in.Description,
	}, nil
}

// ValidateCoordinates accepts both coordinates or neither, within range.
func ValidateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return apperr.Invalid("coordinates", "latitude and longitude must be set together")
	}
	if lat != nil && !(geo.Point{Lat: *lat, Lng: *lng}).Valid() {
		return apperr.Invalid("coordinates", "out of range")
	}
	return nil
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}
