package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	friendshandler "onyx/internal/friends/handler"
	friendsservice "onyx/internal/friends/service"
	friendsstore "onyx/internal/friends/store"
	ingestkafka "onyx/internal/ingest/kafka"
	"onyx/internal/jwtauth"
	notifyhandler "onyx/internal/notify/handler"
	"onyx/internal/platform/config"
	"onyx/internal/platform/httpserver"
	"onyx/internal/platform/logger"
	"onyx/internal/platform/middleware"
	platformredis "onyx/internal/platform/redis"
	"onyx/internal/realtime/dispatch"
	"onyx/internal/realtime/metrics"
	"onyx/internal/realtime/outbox"
	"onyx/internal/realtime/presence"
	"onyx/internal/realtime/registry"
	"onyx/internal/transport/ws"
)

// main wires the realtime core: connection registry, presence broadcaster,
// notification dispatcher, friend state machine, and the transport edges
// they serve. Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, "onyx")
	jwtValidator := jwtauth.NewAdapter(jwtService)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	graphStore, closeGraph, err := newGraphStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeGraph()

	reg := registry.New()
	reg.OnChange(func() {
		m.SetConnectionsActive(reg.Len())
	})
	pres := presence.New(reg,
		presence.WithLogger(log),
		presence.WithMetrics(m),
	)

	dispatchOpts := []dispatch.Option{
		dispatch.WithLogger(log),
		dispatch.WithMetrics(m),
	}
	if cfg.OutboxEnabled {
		var store outbox.Store
		if redisClient != nil {
			store = outbox.NewRedis(redisClient.Client, cfg.OutboxMaxPerUser)
		} else {
			store = outbox.NewInMemoryStore(cfg.OutboxMaxPerUser)
		}
		dispatchOpts = append(dispatchOpts, dispatch.WithOutbox(store))
		log.Info("offline notification outbox enabled", "redis", redisClient != nil)
	}
	dispatcher := dispatch.New(reg, dispatchOpts...)

	friendsService, err := friendsservice.New(graphStore,
		friendsservice.WithLogger(log),
		friendsservice.WithNotifier(dispatcher),
	)
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))

	wsHandler := ws.New(reg, pres, dispatcher, jwtValidator, log, cfg.SendBuffer)
	wsHandler.Register(router)
	friendshandler.New(friendsService, log, jwtValidator).Register(router)
	notifyhandler.New(dispatcher, reg, log, jwtValidator).Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting onyx realtime server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	consumer, err := ingestkafka.NewConsumer(cfg.Kafka, dispatcher, log)
	if err != nil {
		return err
	}
	if consumer != nil {
		log.Info("starting notification ingest consumer",
			"topic", cfg.Kafka.Topic,
			"group", cfg.Kafka.Group,
		)
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newGraphStore picks the friend-graph backend: Postgres when a DSN is
// configured, process memory otherwise.
func newGraphStore(ctx context.Context, cfg config.Config, log *slog.Logger) (friendsservice.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		return friendsstore.New(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	store := friendsstore.NewPostgres(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("friend graph backed by postgres")
	return store, func() { _ = db.Close() }, nil
}
