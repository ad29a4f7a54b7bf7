package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "artisanhub/services/marketplace-api/docs"
	"artisanhub/services/marketplace-api/internal/guard"
	"artisanhub/shared/pkg/logger"
	"artisanhub/shared/pkg/metrics"
	"artisanhub/shared/pkg/models"
)

func NewRouter(h *Handlers, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware("marketplace-api"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", Health)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api/v1", func(r chi.Router) {
		signedIn := guard.Require(h.Sessions, "")
		artisan := guard.Require(h.Sessions, models.RoleArtisan)
		customer := guard.Require(h.Sessions, models.RoleCustomer)

		r.Post("/auth/signup", h.SignUp)
		r.Post("/auth/signin", h.SignIn)
		r.Post("/auth/signout", h.SignOut)
		r.With(signedIn).Get("/auth/events", h.AuthEvents)

		r.With(signedIn).Get("/me", h.Me)
		r.With(signedIn).Put("/me", h.UpdateMe)
		r.With(guard.Optional(h.Sessions)).Get("/users/{id}", h.GetUser)

		r.Get("/products", h.ListProducts)
		r.Group(func(r chi.Router) {
			r.Use(artisan)
			r.Get("/products/mine", h.ListMyProducts)
			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)
			r.Put("/products/{id}/photo", h.UploadPhoto)
		})

		r.With(signedIn).Get("/orders", h.ListOrders)
		r.With(customer).Post("/orders", h.CreateOrder)
		r.With(artisan).Patch("/orders/{id}/status", h.TransitionOrder)

		r.Get("/artisans/nearby", h.Nearby)
		r.Get("/geocode", h.Geocode)
	})
	return r
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
