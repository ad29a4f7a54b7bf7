package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/services/marketplace-api/internal/policy"
	"artisanhub/shared/pkg/models"
)

type fakeRepo struct {
	mu          sync.Mutex
	products    map[string]string
	orders      map[string]models.Order
	transitions int
	events      []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: map[string]string{}, orders: map[string]models.Order{}}
}

func (f *fakeRepo) Create(_ context.Context, orderID, productID, customerID string) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	artisan, ok := f.products[productID]
	if !ok {
		return models.Order{}, apperr.ErrNotFound
	}
	o := models.Order{
		ID: orderID, ProductID: productID, CustomerID: customerID, ArtisanID: artisan,
		Status: models.OrderStatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.orders[orderID] = o
	f.events = append(f.events, models.EventTypeForStatus(o.Status))
	return o, nil
}

func (f *fakeRepo) GetScoped(_ context.Context, id, column, actorID string) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, apperr.ErrNotFound
	}
	owner := o.CustomerID
	if column == policy.ColumnArtisan {
		owner = o.ArtisanID
	}
	if owner != actorID {
		return models.Order{}, apperr.ErrNotFound
	}
	return o, nil
}

func (f *fakeRepo) Transition(_ context.Context, id, artisanID string, from, to models.OrderStatus) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions++
	o, ok := f.orders[id]
	if !ok || o.ArtisanID != artisanID || o.Status != from {
		return models.Order{}, apperr.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	f.orders[id] = o
	f.events = append(f.events, models.EventTypeForStatus(to))
	return o, nil
}

func (f *fakeRepo) ListScoped(_ context.Context, column, actorID string) ([]models.OrderView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OrderView
	for _, o := range f.orders {
		owner := o.CustomerID
		if column == policy.ColumnArtisan {
			owner = o.ArtisanID
		}
		if owner == actorID {
			out = append(out, models.OrderView{Order: o})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var (
	artisan  = policy.Actor{ID: "a1", Role: models.RoleArtisan}
	other    = policy.Actor{ID: "a2", Role: models.RoleArtisan}
	customer = policy.Actor{ID: "c1", Role: models.RoleCustomer}
)

func newService() (*Service, *fakeRepo, string) {
	repo := newFakeRepo()
	productID := uuid.NewString()
	repo.products[productID] = artisan.ID
	return &Service{Repo: repo, Log: zerolog.Nop()}, repo, productID
}

func TestCanTransition(t *testing.T) {
	all := []models.OrderStatus{
		models.OrderStatusPending, models.OrderStatusAccepted,
		models.OrderStatusCompleted, models.OrderStatusCancelled,
	}
	allowed := map[[2]models.OrderStatus]bool{
		{models.OrderStatusPending, models.OrderStatusAccepted}:   true,
		{models.OrderStatusPending, models.OrderStatusCancelled}:  true,
		{models.OrderStatusAccepted, models.OrderStatusCompleted}: true,
	}
	for _, from := range all {
		for _, to := range all {
			err := CanTransition(from, to)
			if allowed[[2]models.OrderStatus{from, to}] {
				if err != nil {
					t.Fatalf("%s -> %s: expected allowed, got %v", from, to, err)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", from, to, err)
			}
		}
	}
	for _, s := range []models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled} {
		if len(Next(s)) != 0 {
			t.Fatalf("%s should be terminal, got %v", s, Next(s))
		}
	}
	if got := Next(models.OrderStatusPending); len(got) != 2 {
		t.Fatalf("pending: unexpected next %v", got)
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, repo, productID := newService()

	o, err := svc.Create(ctx, customer, productID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status != models.OrderStatusPending || o.ArtisanID != artisan.ID || o.CustomerID != customer.ID {
		t.Fatalf("unexpected order %+v", o)
	}
	if len(repo.events) != 1 || repo.events[0] != models.EventOrderCreated {
		t.Fatalf("expected orders.created event, got %v", repo.events)
	}

	if _, err := svc.Create(ctx, artisan, productID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("artisan create: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Create(ctx, policy.Actor{}, productID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("anonymous create: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Create(ctx, customer, "not-a-uuid"); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("bad id: expected ErrInvalid, got %v", err)
	}
	if _, err := svc.Create(ctx, customer, uuid.NewString()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing product: expected ErrNotFound, got %v", err)
	}
}

func TestTransitionHappyPath(t *testing.T) {
	ctx := context.Background()
	svc, repo, productID := newService()
	o, err := svc.Create(ctx, customer, productID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, to := range []models.OrderStatus{models.OrderStatusAccepted, models.OrderStatusCompleted} {
		got, err := svc.Transition(ctx, artisan, o.ID, to)
		if err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
		if got.Status != to {
			t.Fatalf("expected %s, got %s", to, got.Status)
		}
	}
	want := []string{models.EventOrderCreated, models.EventOrderAccepted, models.EventOrderCompleted}
	if len(repo.events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, repo.events)
	}
	for i := range want {
		if repo.events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, repo.events)
		}
	}
}

func TestTransitionRejections(t *testing.T) {
	ctx := context.Background()
	svc, repo, productID := newService()
	o, err := svc.Create(ctx, customer, productID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name  string
		actor policy.Actor
		id    string
		to    models.OrderStatus
		want  error
	}{
		{"customer cannot transition", customer, o.ID, models.OrderStatusCancelled, apperr.ErrForbidden},
		{"other artisan does not see order", other, o.ID, models.OrderStatusAccepted, apperr.ErrNotFound},
		{"skip to completed", artisan, o.ID, models.OrderStatusCompleted, ErrInvalidTransition},
		{"stay pending", artisan, o.ID, models.OrderStatusPending, ErrInvalidTransition},
		{"unknown status", artisan, o.ID, models.OrderStatus("shipped"), apperr.ErrInvalid},
		{"bad id", artisan, "nope", models.OrderStatusAccepted, apperr.ErrInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := repo.transitions
			if _, err := svc.Transition(ctx, tc.actor, tc.id, tc.to); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if repo.transitions != before {
				t.Fatalf("rejected transition must not reach storage")
			}
			if repo.orders[o.ID].Status != models.OrderStatusPending {
				t.Fatalf("status changed to %s", repo.orders[o.ID].Status)
			}
		})
	}
}

func TestTransitionFromTerminalState(t *testing.T) {
	ctx := context.Background()
	svc, _, productID := newService()
	o, _ := svc.Create(ctx, customer, productID)
	if _, err := svc.Transition(ctx, artisan, o.ID, models.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	for _, to := range []models.OrderStatus{models.OrderStatusAccepted, models.OrderStatusCompleted, models.OrderStatusPending} {
		if _, err := svc.Transition(ctx, artisan, o.ID, to); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("cancelled -> %s: expected ErrInvalidTransition, got %v", to, err)
		}
	}
}

type staleRepo struct{ *fakeRepo }

// GetScoped reports a stale status so the conditional update misses.
func (s staleRepo) GetScoped(ctx context.Context, id, column, actorID string) (models.Order, error) {
	o, err := s.fakeRepo.GetScoped(ctx, id, column, actorID)
	o.Status = models.OrderStatusPending
	return o, err
}

func TestTransitionConflictKeepsState(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	productID := uuid.NewString()
	repo.products[productID] = artisan.ID
	svc := &Service{Repo: staleRepo{repo}, Log: zerolog.Nop()}

	o, _ := svc.Create(ctx, customer, productID)
	if _, err := svc.Transition(ctx, artisan, o.ID, models.OrderStatusAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
	_, err := svc.Transition(ctx, artisan, o.ID, models.OrderStatusCancelled)
	if !errors.Is(err, apperr.ErrConflict) || errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected plain ErrConflict, got %v", err)
	}
	if repo.orders[o.ID].Status != models.OrderStatusAccepted {
		t.Fatalf("expected accepted retained, got %s", repo.orders[o.ID].Status)
	}
}

func TestListIsScopedByRole(t *testing.T) {
	ctx := context.Background()
	svc, _, productID := newService()
	if _, err := svc.Create(ctx, customer, productID); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := policy.Actor{ID: "c2", Role: models.RoleCustomer}
	if _, err := svc.Create(ctx, other, productID); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := svc.List(ctx, customer)
	if err != nil || len(mine) != 1 || mine[0].CustomerID != customer.ID {
		t.Fatalf("customer list: %+v (%v)", mine, err)
	}
	incoming, err := svc.List(ctx, artisan)
	if err != nil || len(incoming) != 2 {
		t.Fatalf("artisan list: expected 2, got %d (%v)", len(incoming), err)
	}
	if len(incoming[0].Actions) != 2 || mine[0].Actions != nil {
		t.Fatalf("expected actions for artisan only, got %v / %v", incoming[0].Actions, mine[0].Actions)
	}
	none, err := svc.List(ctx, policy.Actor{ID: "a9", Role: models.RoleArtisan})
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil list, got %v (%v)", none, err)
	}
	if _, err := svc.List(ctx, policy.Actor{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("anonymous list: expected ErrForbidden, got %v", err)
	}
}
