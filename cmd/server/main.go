// Command server runs the to-do REST API.
//
// @title       Todo API
// @version     1.0
// @description Minimal to-do backend over MongoDB with a uniform response envelope.
// @BasePath    /
// @schemes     http https
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-todo-backend/docs"
	"github.com/tbourn/go-todo-backend/internal/config"
	"github.com/tbourn/go-todo-backend/internal/domain"
	httpapi "github.com/tbourn/go-todo-backend/internal/http"
	"github.com/tbourn/go-todo-backend/internal/observability"
	"github.com/tbourn/go-todo-backend/internal/repo"
	"github.com/tbourn/go-todo-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, nil)
	log.Info().Str("environment", cfg.Environment).Str("version", version).Msg("starting todo api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.SetupOTel(ctx, cfg.OTEL, observability.BuildInfo{
		Version:     version,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	client, err := repo.OpenMongo(ctx, cfg.Mongo, cfg.OTEL.Enabled)
	if err != nil {
		log.Fatal().Err(err).Str("database", cfg.Mongo.Database).Msg("mongo connect failed")
	}
	store := repo.NewMongoHelper(client.Database(cfg.Mongo.Database))
	if err := store.EnsureCollection(ctx, domain.TodoCollection); err != nil {
		log.Fatal().Err(err).Str("collection", domain.TodoCollection).Msg("ensure collection failed")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, store, store, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownTracer(drainCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
	disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDisconnect()
	if err := client.Disconnect(disconnectCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	log.Info().Msg("bye")
}
