// @title        CollabSpace API
// @version      1.0
// @description  Registration, login and role-gated dashboards.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/collabspace/collabspace/internal/api"
	"github.com/collabspace/collabspace/internal/api/handler"
	"github.com/collabspace/collabspace/internal/core/ports"
	"github.com/collabspace/collabspace/internal/core/service"
	"github.com/collabspace/collabspace/internal/infrastructure/db/mongo"
	"github.com/collabspace/collabspace/internal/infrastructure/db/redis"
	"github.com/collabspace/collabspace/internal/infrastructure/db/sqlstore"
	"github.com/collabspace/collabspace/internal/infrastructure/security"
	"github.com/collabspace/collabspace/internal/pkg/config"
	"github.com/collabspace/collabspace/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "collabspace"})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "collabspace",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	repo, health, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	var limiter ports.LoginLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		limiter = redis.NewLoginLimiter(rdb, cfg.Throttle.MaxAttempts, cfg.Throttle.Window)
		health["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login limiter enabled")
	}

	tokens, err := security.NewJWTManager(cfg.JWTSecret)
	if err != nil {
		return err
	}
	hasher := security.NewBoundedHasher(security.NewBcryptHasher(bcrypt.DefaultCost), cfg.HashConcurrency)

	authService, err := service.NewAuthService(repo, hasher, tokens, limiter, logger.Component("auth"))
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Auth:      authService,
		Tokens:    tokens,
		Health:    health,
		StaticDir: cfg.StaticDir,
		Log:       logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore returns the configured credential store, its readiness checks
// and a close function.
func openStore(ctx context.Context, cfg *config.Config) (ports.IdentityRepository, map[string]handler.Pinger, func(context.Context) error, error) {
	switch cfg.Store.Driver {
	case "mongo":
		repo, disconnect, err := mongo.Open(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return repo, map[string]handler.Pinger{"mongo": repo}, disconnect, nil

	default:
		dsn := cfg.Store.SQLitePath
		if cfg.Store.Driver == "postgres" {
			dsn = cfg.Store.PostgresDSN
		}
		store, err := sqlstore.Open(ctx, cfg.Store.Driver, dsn)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, nil, nil, err
		}
		closeFn := func(context.Context) error { return store.Close() }
		return store, map[string]handler.Pinger{cfg.Store.Driver: store}, closeFn, nil
	}
}
