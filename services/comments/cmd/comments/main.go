package main

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/mflix/internal/platform/auth"
	"github.com/example/mflix/internal/platform/config"
	"github.com/example/mflix/internal/platform/db"
	"github.com/example/mflix/internal/platform/httpserver"
	"github.com/example/mflix/internal/platform/logging"
	"github.com/example/mflix/internal/platform/mongodb"
	"github.com/example/mflix/internal/platform/run"
	svcconfig "github.com/example/mflix/services/comments/internal/config"
	"github.com/example/mflix/services/comments/internal/events"
	"github.com/example/mflix/services/comments/internal/grpcapi"
	"github.com/example/mflix/services/comments/internal/handlers"
	"github.com/example/mflix/services/comments/internal/idempotency"
	"github.com/example/mflix/services/comments/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	svc, err := svcconfig.Load()
	if err != nil {
		log.Error("invalid comments config", zap.Error(err))
		run.Exit(1)
	}
	if err := svc.Validate(cfg.IsProduction()); err != nil {
		log.Error("invalid comments config", zap.Error(err))
		run.Exit(1)
	}
	if svc.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, tokens are checked against an empty key (memory store, development only)")
	}

	runner := run.New(log)

	comments, closeStore := initStore(cfg, svc, log)
	runner.OnShutdown(closeStore)

	pub, err := events.New(svc.NATSURL, log)
	if err != nil {
		log.Error("nats publisher", zap.Error(err))
		run.Exit(1)
	}
	runner.OnShutdown(func(context.Context) error { pub.Close(); return nil })
	published := events.NewPublishingStore(comments, pub, log)

	idem, err := idempotency.NewStore(svc.RedisURL, svc.IdempotencyTTL, cfg.IsProduction())
	if err != nil {
		log.Error("idempotency store", zap.Error(err))
		run.Exit(1)
	}
	if c, ok := idem.(io.Closer); ok {
		runner.OnShutdown(func(context.Context) error { return c.Close() })
	}

	verifier := auth.JWTVerifier{Secret: []byte(svc.JWTSecret)}
	validate := validator.New()

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		Logger: log,
		ReadyFunc: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return comments.Ping(ctx)
		},
	})

	// Public read, auth required for writes, admin for the critics report.
	r.Get("/v1/comments/{comment_id}", handlers.GetComment(published))
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/movies/{movie_id}/comments", handlers.CreateComment(published, idem, validate))
		r.Put("/v1/comments/{comment_id}", handlers.UpdateComment(published, validate))
		r.Delete("/v1/comments/{comment_id}", handlers.DeleteComment(published))
		r.With(auth.RequireAdmin).Get("/v1/critics", handlers.GetCritics(published))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		run.Exit(1)
	}
	hc := grpcapi.NewHealth(comments, log, 10*time.Second)
	grpcSrv := grpcapi.NewServer(hc)

	runner.OnShutdown(func(ctx context.Context) error {
		stopped := make(chan struct{})
		go func() {
			grpcSrv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			grpcSrv.Stop()
		}
		return nil
	})
	runner.OnShutdown(srv.Shutdown)

	code := runner.WithSignals(func(ctx context.Context) error {
		go hc.Watch(ctx)
		go func() {
			log.Info("grpc server starting", zap.String("addr", cfg.GRPC.Addr))
			if err := grpcSrv.Serve(lis); err != nil {
				log.Error("grpc serve", zap.Error(err))
			}
		}()
		return srv.Start()
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStore selects the CommentStore backend from STORE_BACKEND.
// Outside production an unreachable mongo or postgres falls back to the
// in-memory store; in production the process terminates instead.
func initStore(cfg config.AppConfig, svc svcconfig.Config, log *zap.Logger) (store.CommentStore, func(context.Context) error) {
	opts := store.Options{Deadline: svc.StoreDeadline, Logger: log.Named("store")}
	noop := func(context.Context) error { return nil }

	fallback := func(msg string, err error) (store.CommentStore, func(context.Context) error) {
		if cfg.IsProduction() {
			log.Error(msg, zap.Error(err))
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn(msg+", using in-memory comment store (development only)", zap.Error(err))
		return store.NewInMemoryCommentStore(opts), noop
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch svc.StoreBackend {
	case svcconfig.BackendMemory:
		if cfg.IsProduction() {
			log.Error("memory store is not allowed in production")
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("comments store: memory (development only)")
		return store.NewInMemoryCommentStore(opts), noop

	case svcconfig.BackendPostgres:
		pool, err := db.Open(ctx, svc.DatabaseURL)
		if err != nil {
			return fallback("postgres unavailable", err)
		}
		pg := store.NewPostgresCommentStore(pool, opts)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return fallback("postgres schema", err)
		}
		log.Info("comments store: postgres")
		return pg, func(context.Context) error { pool.Close(); return nil }

	default:
		client, database, err := mongodb.Open(ctx, mongodb.Options{
			URI:      svc.MongoURI,
			Database: svc.MongoDatabase,
			AppName:  cfg.ServiceName,
		})
		if err != nil {
			return fallback("mongodb unavailable", err)
		}
		log.Info("comments store: mongodb", zap.String("database", svc.MongoDatabase))
		return store.NewMongoCommentStore(database, opts), client.Disconnect
	}
}
