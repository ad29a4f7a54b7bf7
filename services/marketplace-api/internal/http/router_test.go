package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"artisanhub/services/marketplace-api/internal/artisans"
	"artisanhub/services/marketplace-api/internal/catalog"
	"artisanhub/services/marketplace-api/internal/identity"
	"artisanhub/services/marketplace-api/internal/orders"
	"artisanhub/services/marketplace-api/internal/profile"
	"artisanhub/services/marketplace-api/internal/session"
	"artisanhub/shared/pkg/geo"
	"artisanhub/shared/pkg/models"
)

type testAPI struct {
	handler http.Handler
	store   *session.Store
}

func newTestAPI(t *testing.T, initStore bool) *testAPI {
	t.Helper()
	log := zerolog.Nop()
	notifier := identity.NewNotifier()
	provider := identity.NewProvider(
		&memAccounts{m: map[string]identity.Account{}},
		&memSessions{m: map[string]identity.Session{}},
		identity.NewTokens("0123456789abcdef0123456789abcdef", "artisanhub"),
		notifier,
		time.Hour,
	)
	provider.HashCost = bcrypt.MinCost

	products := &memProducts{m: map[string]models.Product{}}
	users := &memUsers{m: map[string]models.User{}, products: products}
	ordersRepo := &memOrders{m: map[string]models.Order{}, products: products}

	store := session.New(provider, users, log)
	if initStore {
		if err := store.Init(context.Background()); err != nil {
			t.Fatalf("init store: %v", err)
		}
	}
	t.Cleanup(store.Close)

	h := &Handlers{
		Log:      log,
		Sessions: store,
		Profiles: &profile.Service{Repo: users, Sessions: store, Log: log},
		Catalog:  &catalog.Service{Repo: products, Log: log},
		Orders:   &orders.Service{Repo: ordersRepo, Log: log},
		Artisans: &artisans.Service{Source: users, Center: geo.DefaultCenter},
		Geocoder: stubGeocoder{},
		Events:   provider,
		Upgrader: NewUpgrader([]string{"*"}),
	}
	return &testAPI{handler: NewRouter(h, []string{"*"}), store: store}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (a *testAPI) signUp(t *testing.T, email string, role models.Role, lat, lng *float64) session.Result {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email": email, "password": "secret1", "confirm_password": "secret1",
		"name": strings.Split(email, "@")[0], "role": role, "location": "NY",
		"latitude": lat, "longitude": lng,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sign up %s: expected 201, got %d %s", email, rec.Code, rec.Body.String())
	}
	return decodeBody[session.Result](t, rec)
}

func fp(v float64) *float64 { return &v }

func TestHealth(t *testing.T) {
	api := newTestAPI(t, true)
	rec := api.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health %d %q", rec.Code, rec.Body.String())
	}
}

func TestGuardedRoutesWhileLoading(t *testing.T) {
	api := newTestAPI(t, false)
	rec := api.do(t, http.MethodGet, "/api/v1/orders", "whatever", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while loading, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/api/v1/products", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("public route must not wait on the session store, got %d", rec.Code)
	}
}

func TestSignUpValidation(t *testing.T) {
	api := newTestAPI(t, true)
	rec := api.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email": "a@example.com", "password": "123", "confirm_password": "123", "name": "A",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["field"] != "password" {
		t.Fatalf("expected password field error, got %v", body)
	}

	api.signUp(t, "dup@example.com", models.RoleCustomer, nil, nil)
	rec = api.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email": "DUP@example.com", "password": "secret1", "confirm_password": "secret1", "name": "D",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]any{"email": "dup@example.com", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestMarketplaceFlow(t *testing.T) {
	api := newTestAPI(t, true)
	maker := api.signUp(t, "maker@example.com", models.RoleArtisan, fp(40.6782), fp(-73.9442))
	buyer := api.signUp(t, "buyer@example.com", models.RoleCustomer, nil, nil)

	rec := api.do(t, http.MethodPost, "/api/v1/products", buyer.Token, map[string]any{"name": "Bowl", "price": "10"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer create product: expected 403, got %d", rec.Code)
	}
	if body := decodeBody[map[string]string](t, rec); body["redirect"] != "/" {
		t.Fatalf("expected home redirect, got %v", body)
	}
	rec = api.do(t, http.MethodPost, "/api/v1/products", maker.Token, map[string]any{"name": "Bowl", "price": -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative price: expected 400, got %d", rec.Code)
	}
	rec = api.do(t, http.MethodPost, "/api/v1/products", maker.Token, map[string]any{
		"name": "Walnut Bowl", "description": "hand turned", "price": "45.00",
		"photo_url": "https://elsewhere.example/bowl.png",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	product := decodeBody[models.Product](t, rec)
	if product.PhotoURL != nil {
		t.Fatalf("photo url must only be set by upload, got %s", *product.PhotoURL)
	}
	rec = api.do(t, http.MethodPut, "/api/v1/products/"+product.ID, maker.Token, map[string]any{
		"name": "Walnut Bowl", "price": "45.00", "photo_url": "https://elsewhere.example/other.png",
	})
	if rec.Code != http.StatusOK || decodeBody[models.Product](t, rec).PhotoURL != nil {
		t.Fatalf("update must not set photo url, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := api.do(t, http.MethodGet, "/api/v1/products?q=WALNUT", "", nil); len(decodeBody[[]models.ProductView](t, rec)) != 1 {
		t.Fatalf("expected search hit")
	}
	if rec := api.do(t, http.MethodGet, "/api/v1/products?q=glass", "", nil); len(decodeBody[[]models.ProductView](t, rec)) != 0 {
		t.Fatalf("expected no search hit")
	}

	rec = api.do(t, http.MethodPost, "/api/v1/orders", maker.Token, map[string]string{"product_id": product.ID})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("artisan order: expected 403, got %d", rec.Code)
	}
	rec = api.do(t, http.MethodPost, "/api/v1/orders", buyer.Token, map[string]string{"product_id": product.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	order := decodeBody[models.Order](t, rec)
	if order.ArtisanID != maker.Session.AccountID || order.Status != models.OrderStatusPending {
		t.Fatalf("unexpected order %+v", order)
	}

	statusPath := "/api/v1/orders/" + order.ID + "/status"
	if rec := api.do(t, http.MethodPatch, statusPath, buyer.Token, map[string]string{"status": "cancelled"}); rec.Code != http.StatusForbidden {
		t.Fatalf("customer transition: expected 403, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodPatch, statusPath, maker.Token, map[string]string{"status": "completed"}); rec.Code != http.StatusConflict {
		t.Fatalf("skip transition: expected 409, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodPatch, statusPath, maker.Token, map[string]string{"status": "accepted"}); rec.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	rival := api.signUp(t, "rival@example.com", models.RoleArtisan, nil, nil)
	if rec := api.do(t, http.MethodPatch, statusPath, rival.Token, map[string]string{"status": "completed"}); rec.Code != http.StatusNotFound {
		t.Fatalf("rival transition: expected 404, got %d", rec.Code)
	}

	for _, tok := range []string{buyer.Token, maker.Token} {
		rec := api.do(t, http.MethodGet, "/api/v1/orders", tok, nil)
		list := decodeBody[[]models.OrderView](t, rec)
		if len(list) != 1 || list[0].Status != models.OrderStatusAccepted {
			t.Fatalf("expected one accepted order, got %+v", list)
		}
	}
	if list := decodeBody[[]models.OrderView](t, api.do(t, http.MethodGet, "/api/v1/orders", rival.Token, nil)); len(list) != 0 {
		t.Fatalf("rival must see no orders, got %d", len(list))
	}
}

func TestNearbyAndGeocode(t *testing.T) {
	api := newTestAPI(t, true)
	api.signUp(t, "near@example.com", models.RoleArtisan, fp(40.70), fp(-74.00))
	api.signUp(t, "far@example.com", models.RoleArtisan, fp(34.05), fp(-118.24))
	api.signUp(t, "nowhere@example.com", models.RoleArtisan, nil, nil)

	rec := api.do(t, http.MethodGet, "/api/v1/artisans/nearby", "", nil)
	res := decodeBody[artisans.Nearby](t, rec)
	if len(res.Artisans) != 2 || res.Artisans[0].Name != "near" || res.Center != geo.DefaultCenter {
		t.Fatalf("unexpected default ranking %+v", res)
	}

	rec = api.do(t, http.MethodGet, "/api/v1/artisans/nearby?lat=34&lng=-118", "", nil)
	if res := decodeBody[artisans.Nearby](t, rec); res.Artisans[0].Name != "far" {
		t.Fatalf("expected far artisan first from device location, got %+v", res.Artisans)
	}
	for _, q := range []string{"?lat=34", "?lat=100&lng=0", "?lat=x&lng=1"} {
		if rec := api.do(t, http.MethodGet, "/api/v1/artisans/nearby"+q, "", nil); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rec.Code)
		}
	}

	if rec := api.do(t, http.MethodGet, "/api/v1/geocode?q=Hudson,%20NY", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("geocode: expected 200, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/api/v1/geocode?q=Atlantis", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("geocode miss: expected 404, got %d", rec.Code)
	}
}

func TestProfileUpdateAndSignOut(t *testing.T) {
	api := newTestAPI(t, true)
	me := api.signUp(t, "me@example.com", models.RoleCustomer, nil, nil)

	rec := api.do(t, http.MethodPut, "/api/v1/me", me.Token, map[string]any{
		"name": "Renamed", "location": "Hudson", "latitude": 42.25, "longitude": -73.79,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update me: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	entry := decodeBody[session.Entry](t, api.do(t, http.MethodGet, "/api/v1/me", me.Token, nil))
	if entry.Profile == nil || entry.Profile.Name != "Renamed" || entry.Profile.Role != models.RoleCustomer {
		t.Fatalf("expected refreshed profile, got %+v", entry.Profile)
	}

	if rec := api.do(t, http.MethodPost, "/api/v1/auth/signout", me.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("sign out: expected 204, got %d", rec.Code)
	}
	rec = api.do(t, http.MethodGet, "/api/v1/me", me.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("after sign out: expected 401, got %d", rec.Code)
	}
	if body := decodeBody[map[string]string](t, rec); body["redirect"] != "/signin" {
		t.Fatalf("expected sign-in redirect, got %v", body)
	}
}

func TestAuthEventsStream(t *testing.T) {
	api := newTestAPI(t, true)
	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	me := api.signUp(t, "ws@example.com", models.RoleCustomer, nil, nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/auth/events?token=" + me.Token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v (%v)", err, resp)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first authEvent
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first: %v", err)
	}
	if first.Event != identity.SignedIn || first.Session.ID != me.Session.ID {
		t.Fatalf("unexpected first event %+v", first)
	}

	if rec := api.do(t, http.MethodPost, "/api/v1/auth/signout", me.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("sign out: expected 204, got %d", rec.Code)
	}
	var next authEvent
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read signed_out: %v", err)
	}
	if next.Event != identity.SignedOut || next.Session.ID != me.Session.ID {
		t.Fatalf("unexpected event %+v", next)
	}

	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 dialing with a revoked token, got %v", resp)
	}
}

func TestSwaggerDoc(t *testing.T) {
	api := newTestAPI(t, true)
	rec := api.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !json.Valid(rec.Body.Bytes()) || !strings.Contains(rec.Body.String(), "/orders/{id}/status") {
		t.Fatalf("unexpected doc: %s", rec.Body.String())
	}
}
