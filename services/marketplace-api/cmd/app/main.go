package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artisanhub/services/marketplace-api/internal/artisans"
	"artisanhub/services/marketplace-api/internal/catalog"
	"artisanhub/services/marketplace-api/internal/geocode"
	apihttp "artisanhub/services/marketplace-api/internal/http"
	"artisanhub/services/marketplace-api/internal/identity"
	"artisanhub/services/marketplace-api/internal/orders"
	"artisanhub/services/marketplace-api/internal/photos"
	"artisanhub/services/marketplace-api/internal/profile"
	"artisanhub/services/marketplace-api/internal/repo"
	"artisanhub/services/marketplace-api/internal/session"
	"artisanhub/shared/pkg/cache"
	"artisanhub/shared/pkg/config"
	"artisanhub/shared/pkg/db"
	"artisanhub/shared/pkg/geo"
	"artisanhub/shared/pkg/logger"
	"artisanhub/shared/pkg/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("marketplace-api", cfg.Common.LogLevel)
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	shutdownTracer, err := obs.InitTracer(ctx, "marketplace-api", cfg.Tracing.OTLPEndpoint, cfg.Tracing.Environment)
	if err != nil {
		log.Fatal().Err(err).Msg("tracer init failed")
	}

	if cfg.Postgres.Migrate {
		if err := db.Migrate(cfg.Postgres.DSN); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		log.Info().Msg("migrations applied")
	}
	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer pool.Close()

	var rdb *cache.Redis
	if cfg.Redis.Addr != "" {
		rdb = cache.New(cfg.Redis.Addr)
		if err := rdb.WaitReady(ctx, 10*time.Second); err != nil {
			log.Fatal().Err(err).Msg("redis not ready")
		}
		defer func() { _ = rdb.Close() }()
	}

	// identity
	var sessions identity.Sessions = &repo.AuthSessionsPG{DB: pool}
	if rdb != nil {
		sessions = &repo.AuthSessionsCached{PG: &repo.AuthSessionsPG{DB: pool}, Redis: rdb}
	}
	notifier := identity.NewNotifier()
	provider := identity.NewProvider(
		&repo.AccountsPG{DB: pool},
		sessions,
		identity.NewTokens(cfg.Auth.JWTSecret, "artisanhub"),
		notifier,
		cfg.Auth.TokenTTL,
	)

	users := &repo.UsersPG{DB: pool}
	store := session.New(provider, users, log)
	initCtx, cancelInit := context.WithTimeout(ctx, 10*time.Second)
	if err := store.Init(initCtx); err != nil {
		cancelInit()
		log.Fatal().Err(err).Msg("session store init failed")
	}
	cancelInit()
	defer store.Close()

	// geocoding
	var geocoder geocode.Geocoder = geocode.Counted{
		Next: geocode.NewNominatim(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.Geocode.Timeout),
	}
	if rdb != nil {
		geocoder = &geocode.Cached{Next: geocoder, Redis: rdb, TTL: cfg.Geocode.CacheTTL, Log: log}
	}

	cat := &catalog.Service{
		Repo:          &repo.ProductsPG{DB: pool},
		MaxPhotoBytes: cfg.Photos.MaxBytes,
		Log:           log,
	}
	if cfg.Photos.Enabled() {
		ps, err := photos.NewS3(ctx, cfg.Photos)
		if err != nil {
			log.Fatal().Err(err).Msg("photo storage init failed")
		}
		cat.Photos = ps
	} else {
		log.Warn().Msg("photo storage disabled: set PHOTOS_BUCKET and PHOTOS_PUBLIC_URL")
	}

	h := &apihttp.Handlers{
		Log:      log,
		Sessions: store,
		Profiles: &profile.Service{Repo: users, Sessions: store, Log: log},
		Catalog:  cat,
		Orders:   &orders.Service{Repo: &repo.OrdersPG{DB: pool, Outbox: &repo.OutboxPG{}}, Log: log},
		Artisans: &artisans.Service{Source: users, Center: geo.Point{Lat: cfg.Map.DefaultLat, Lng: cfg.Map.DefaultLng}},
		Geocoder: geocoder,
		Events:   provider,
		Upgrader: apihttp.NewUpgrader(cfg.HTTP.AllowedOrigins),
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           apihttp.NewRouter(h, cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
	_ = shutdownTracer(shCtx)
}
