package httpx

import (
	"context"
	"sort"
	"sync"
	"time"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/services/marketplace-api/internal/geocode"
	"artisanhub/services/marketplace-api/internal/identity"
	"artisanhub/services/marketplace-api/internal/policy"
	"artisanhub/shared/pkg/geo"
	"artisanhub/shared/pkg/models"
)

type memAccounts struct {
	mu sync.Mutex
	m  map[string]identity.Account
}

func (s *memAccounts) Create(_ context.Context, a identity.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[a.Email]; ok {
		return identity.ErrEmailTaken
	}
	s.m[a.Email] = a
	return nil
}

func (s *memAccounts) ByEmail(_ context.Context, email string) (identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.m[email]
	if !ok {
		return identity.Account{}, identity.ErrUnknownAccount
	}
	return a, nil
}

type memSessions struct {
	mu sync.Mutex
	m  map[string]identity.Session
}

func (s *memSessions) Create(_ context.Context, sess identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.ID] = sess
	return nil
}

func (s *memSessions) Get(_ context.Context, id string) (identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return identity.Session{}, identity.ErrNoSession
	}
	return sess, nil
}

func (s *memSessions) Revoke(_ context.Context, id string) (identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return identity.Session{}, identity.ErrNoSession
	}
	delete(s.m, id)
	return sess, nil
}

func (s *memSessions) Active(_ context.Context, now time.Time) ([]identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []identity.Session
	for _, sess := range s.m {
		if !sess.Expired(now) {
			out = append(out, sess)
		}
	}
	return out, nil
}

type memUsers struct {
	mu       sync.Mutex
	m        map[string]models.User
	products *memProducts
}

func (s *memUsers) Create(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.CreatedAt = time.Now()
	s.m[u.ID] = u
	return nil
}

func (s *memUsers) Get(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.m[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (s *memUsers) Update(_ context.Context, id string, upd models.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.m[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	u.Name, u.Location, u.Description, u.Latitude, u.Longitude = upd.Name, upd.Location, upd.Description, upd.Latitude, upd.Longitude
	s.m[id] = u
	return u, nil
}

func (s *memUsers) ArtisansWithCoordinates(ctx context.Context) ([]models.ArtisanProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ArtisanProfile
	for _, u := range s.m {
		if u.Role != models.RoleArtisan || !u.HasCoordinates() {
			continue
		}
		mine, _ := s.products.ListByArtisan(ctx, u.ID)
		out = append(out, models.ArtisanProfile{User: u, ProductCount: len(mine)})
	}
	return out, nil
}

type memProducts struct {
	mu sync.Mutex
	m  map[string]models.Product
}

func (s *memProducts) List(context.Context) ([]models.ProductView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProductView
	for _, p := range s.m {
		out = append(out, models.ProductView{Product: p})
	}
	return out, nil
}

func (s *memProducts) ListByArtisan(_ context.Context, artisanID string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, p := range s.m {
		if p.ArtisanID == artisanID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memProducts) Get(_ context.Context, id string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[id]
	if !ok {
		return models.Product{}, apperr.ErrNotFound
	}
	return p, nil
}

func (s *memProducts) Create(_ context.Context, p models.Product) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	s.m[p.ID] = p
	return p, nil
}

func (s *memProducts) UpdateOwned(_ context.Context, id, artisanID string, in models.ProductInput) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[id]
	if !ok || p.ArtisanID != artisanID {
		return models.Product{}, apperr.ErrNotFound
	}
	p.Name, p.Description, p.Price = in.Name, in.Description, in.Price
	s.m[id] = p
	return p, nil
}

func (s *memProducts) DeleteOwned(_ context.Context, id, artisanID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[id]
	if !ok || p.ArtisanID != artisanID {
		return apperr.ErrNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *memProducts) SetPhotoOwned(_ context.Context, id, artisanID, url string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[id]
	if !ok || p.ArtisanID != artisanID {
		return nil, apperr.ErrNotFound
	}
	prev := p.PhotoURL
	p.PhotoURL = &url
	s.m[id] = p
	return prev, nil
}

type memOrders struct {
	mu       sync.Mutex
	m        map[string]models.Order
	products *memProducts
}

func (s *memOrders) Create(ctx context.Context, orderID, productID, customerID string) (models.Order, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return models.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o := models.Order{
		ID: orderID, ProductID: productID, CustomerID: customerID, ArtisanID: p.ArtisanID,
		Status: models.OrderStatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.m[orderID] = o
	return o, nil
}

func owner(o models.Order, column string) string {
	if column == policy.ColumnArtisan {
		return o.ArtisanID
	}
	return o.CustomerID
}

func (s *memOrders) GetScoped(_ context.Context, id, column, actorID string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.m[id]
	if !ok || owner(o, column) != actorID {
		return models.Order{}, apperr.ErrNotFound
	}
	return o, nil
}

func (s *memOrders) Transition(_ context.Context, id, artisanID string, from, to models.OrderStatus) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.m[id]
	if !ok || o.ArtisanID != artisanID || o.Status != from {
		return models.Order{}, apperr.ErrConflict
	}
	o.Status = to
	s.m[id] = o
	return o, nil
}

func (s *memOrders) ListScoped(_ context.Context, column, actorID string) ([]models.OrderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OrderView
	for _, o := range s.m {
		if owner(o, column) == actorID {
			out = append(out, models.OrderView{Order: o})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Lookup(_ context.Context, q string) (geocode.Match, error) {
	if q == "Hudson, NY" {
		return geocode.Match{Point: geo.Point{Lat: 42.25, Lng: -73.79}, DisplayName: "Hudson"}, nil
	}
	return geocode.Match{}, geocode.ErrNoMatch
}
