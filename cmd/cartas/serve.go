package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v2"

	"github.com/cartas/cartas-api/internal/api"
	"github.com/cartas/cartas-api/internal/api/handler"
	"github.com/cartas/cartas-api/internal/api/session"
	"github.com/cartas/cartas-api/internal/core/ports"
	"github.com/cartas/cartas-api/internal/core/service"
	"github.com/cartas/cartas-api/internal/infrastructure/db/memory"
	mongodb "github.com/cartas/cartas-api/internal/infrastructure/db/mongo"
	redisdb "github.com/cartas/cartas-api/internal/infrastructure/db/redis"
	"github.com/cartas/cartas-api/internal/infrastructure/sanitize"
	"github.com/cartas/cartas-api/internal/pkg/config"
	"github.com/cartas/cartas-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(c *cli.Context) error {
			return serve(c.Context)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "cartas",
	})

	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		log.Error().Msg(w)
	}
	if notice := cfg.InsecureCookieNotice(); notice != "" {
		log.Warn().Msg(notice)
	}

	readiness := map[string]handler.Pinger{}

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	readiness["store"] = repo

	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer client.Close()
		idem = redisdb.NewIdempotencyStore(client)
		readiness["redis"] = redisdb.Pinger{Client: client}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotency keys enabled")
	}

	sessions, err := service.NewSessionManager([]byte(cfg.Auth.JWTSecret), cfg.SessionTTL, nil, log)
	if err != nil {
		return err
	}
	auth := service.NewAuthService(service.PasswordHashes{
		User1: cfg.Auth.User1Hash,
		User2: cfg.Auth.User2Hash,
	}, sessions)
	letters := service.NewLetterService(repo, sanitize.NewHTMLPolicy(), idem, nil, log)

	e := api.NewRouter(api.Dependencies{
		Auth:      auth,
		Letters:   letters,
		Cookies:   session.Cookies{Secure: !cfg.IsDevelopment(), TTL: sessions.TTL()},
		Readiness: readiness,
		Logger:    log,
	})

	return run(ctx, e, ":"+cfg.Port)
}

// storeRepository is what serve needs from a letter store.
type storeRepository interface {
	ports.LetterRepository
	handler.Pinger
}

func openStore(ctx context.Context, cfg *config.Config) (storeRepository, func(), error) {
	log := logger.Get()
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory letter store; letters are lost on restart")
		return memory.NewLetterRepository(), func() {}, nil
	case config.StoreMongo:
		store, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		repo := mongodb.NewLetterRepository(store.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = store.Close(context.Background())
			return nil, nil, err
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		}
		return mongoStore{LetterRepository: repo, store: store}, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// mongoStore pings through the shared client.
type mongoStore struct {
	*mongodb.LetterRepository
	store *mongodb.Store
}

func (m mongoStore) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, e *echo.Echo, addr string) error {
	log := logger.Get()
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("server.addr", addr).Msg("starting HTTP server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("initiating shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("shutdown completed")
	return <-errCh
}
