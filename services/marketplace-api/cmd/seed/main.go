// Command seed loads demo accounts and products from a TOML file.
package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/rs/zerolog"

	"artisanhub/services/marketplace-api/internal/catalog"
	"artisanhub/services/marketplace-api/internal/identity"
	"artisanhub/services/marketplace-api/internal/repo"
	"artisanhub/services/marketplace-api/internal/session"
	"artisanhub/shared/pkg/config"
	"artisanhub/shared/pkg/db"
	"artisanhub/shared/pkg/logger"
	"artisanhub/shared/pkg/models"
)

func main() {
	file := flag.String("file", "seed.toml", "path to the seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("seed", cfg.Common.LogLevel)
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	data, err := loadSeedFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("read seed file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if cfg.Postgres.Migrate {
		if err := db.Migrate(cfg.Postgres.DSN); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}
	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer pool.Close()

	provider := identity.NewProvider(
		&repo.AccountsPG{DB: pool},
		&repo.AuthSessionsPG{DB: pool},
		identity.NewTokens(cfg.Auth.JWTSecret, "artisanhub"),
		identity.NewNotifier(),
		cfg.Auth.TokenTTL,
	)
	store := session.New(provider, &repo.UsersPG{DB: pool}, log)
	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("session store init failed")
	}
	defer store.Close()

	cat := &catalog.Service{Repo: &repo.ProductsPG{DB: pool}, Log: log}

	for _, u := range data.Users {
		if err := seedOne(ctx, store, cat, u, log); err != nil {
			log.Error().Err(err).Str("email", u.Email).Msg("seed user failed")
		}
	}
	log.Info().Int("users", len(data.Users)).Msg("seed complete")
}

func seedOne(ctx context.Context, store *session.Store, cat *catalog.Service, u seedUser, log zerolog.Logger) error {
	res, err := store.SignUp(ctx, session.SignUpInput{
		Email:       u.Email,
		Password:    u.Password,
		Confirm:     u.Password,
		Name:        u.Name,
		Role:        models.Role(u.Role),
		Location:    u.Location,
		Latitude:    u.Latitude,
		Longitude:   u.Longitude,
		Description: u.Description,
	})
	if errors.Is(err, identity.ErrEmailTaken) {
		log.Info().Str("email", u.Email).Msg("account exists, signing in")
		res, err = store.SignIn(ctx, u.Email, u.Password)
	}
	if err != nil {
		return err
	}
	defer func() { _ = store.SignOut(ctx, res.Token) }()

	if len(u.Products) == 0 {
		return nil
	}
	actor := res.Actor()
	existing, err := cat.ListMine(ctx, actor)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.Name] = true
	}

	for _, p := range u.Products {
		if have[p.Name] {
			continue
		}
		created, err := cat.Create(ctx, actor, models.ProductInput{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.price,
		})
		if err != nil {
			return err
		}
		log.Info().Str("product_id", created.ID).Str("artisan", u.Email).Msg("product seeded")
	}
	return nil
}
