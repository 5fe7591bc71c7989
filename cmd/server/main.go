// Command server runs the task management HTTP API.
//
// @title                       Task Management System API
// @version                     1.0.0
// @description                 Task management with secure authentication.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
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
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/99minutos/task-system/internal/api"
	"github.com/99minutos/task-system/internal/api/handler"
	"github.com/99minutos/task-system/internal/core/ports"
	"github.com/99minutos/task-system/internal/core/service"
	mongostore "github.com/99minutos/task-system/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/task-system/internal/infrastructure/db/redis"
	"github.com/99minutos/task-system/internal/infrastructure/queue"
	"github.com/99minutos/task-system/internal/pkg/config"
	"github.com/99minutos/task-system/pkg/logger"
)

const (
	serviceName     = "task-system"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet.
		boot := logger.New(logger.Options{Output: os.Stderr, Service: serviceName})
		boot.Fatal().Err(err).Msg("config error")
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Fail fast on auth misconfiguration before touching any store.
	hasher, err := service.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := service.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	redisCfg := redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	rdb, err := redisstore.Connect(ctx, redisCfg)
	if err != nil {
		// Idempotency is best effort; the client reconnects lazily.
		log.Warn().Err(err).Msg("redis unavailable, task idempotency disabled until it recovers")
		rdb = redisstore.NewClient(redisCfg)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	// --- Repositories ---
	users := mongostore.NewUserRepository(db)
	tasks := mongostore.NewTaskRepository(db)
	activity := mongostore.NewActivityRepository(db)
	idempotency := redisstore.NewIdempotencyStore(rdb)

	dispatcher := queue.NewDispatcher(cfg.Activity.Workers, activity, logger.Component(log, "activity"))
	dispatcher.Start(ctx)

	// --- Services ---
	authService := service.NewAuthService(users, hasher, tokens, logger.Component(log, "auth"))
	taskService := service.NewTaskService(tasks, users, idempotency, dispatcher, logger.Component(log, "tasks"))

	if cfg.SeedAdmin() {
		if err := authService.EnsureAdmin(ctx, ports.SignupInput{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		}); err != nil {
			return err
		}
	}

	router := api.NewRouter(api.Deps{
		Auth:   authService,
		Tasks:  taskService,
		Tokens: tokens,
		Health: []handler.Dependency{
			{Name: "mongodb", Pinger: handler.PingerFunc(func(ctx context.Context) error {
				return mongoClient.Ping(ctx, readpref.Primary())
			})},
			{Name: "redis", Pinger: handler.PingerFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			})},
		},
		Logger:  log,
		Metrics: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	// Requests are finished; flush pending activity before the stores close.
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("activity dispatcher did not drain")
	}
	return nil
}
