package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"residency/internal/onboarding/abandon"
	"residency/internal/onboarding/events"
	"residency/internal/onboarding/handler"
	onboardingmetrics "residency/internal/onboarding/metrics"
	"residency/internal/onboarding/providers/httpadapter"
	"residency/internal/onboarding/providers/mock"
	"residency/internal/onboarding/resume"
	"residency/internal/onboarding/service"
	"residency/internal/onboarding/store"
	"residency/internal/onboarding/tracer"
	"residency/internal/onboarding/verification"
	"residency/internal/onboarding/workflow"
	"residency/internal/platform/config"
	"residency/internal/platform/database"
	"residency/internal/platform/health"
	"residency/internal/platform/kafka/producer"
	"residency/internal/platform/logger"
	"residency/internal/platform/redis"
	"residency/internal/platform/tracing"
	"residency/migrations"
	"residency/pkg/platform/middleware/request"
	"residency/pkg/platform/ratelimit"
	pvalidation "residency/pkg/platform/validation"
)

// main wires dependencies and runs the HTTP server until SIGINT or SIGTERM.
// Business logic lives in internal/onboarding.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DemoBypass && cfg.IsProduction() {
		return errors.New("DEMO_BYPASS must not be enabled in production")
	}

	log.Info("initializing residency onboarding",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"demo_bypass", cfg.DemoBypass,
	)

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, "residency-onboarding", health.Version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	checks := health.New(cfg.Environment)
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("close failed", "error", err)
			}
		}
	}()

	sessions, closeStore, err := openStore(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	publisher, closePublisher, err := openPublisher(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	closers = append(closers, closePublisher)

	metrics := onboardingmetrics.New()
	verifier := openVerifier(cfg, log, metrics)

	catalog, err := catalogFromPolicy(cfg.Onboarding)
	if err != nil {
		return err
	}
	engineCfg, err := engineConfig(cfg.Onboarding, catalog, cfg.DemoBypass)
	if err != nil {
		return err
	}
	svc := service.New(sessions, workflow.New(engineCfg), verifier, catalog, serviceConfig(cfg.Onboarding),
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithPublisher(publisher),
	)
	checks.RegisterCheck("provider", svc.Health)

	sweeper, err := abandon.New(svc, cfg.Onboarding.InactivityTimeout,
		abandon.WithInterval(cfg.SweepInterval),
		abandon.WithLogger(log),
	)
	if err != nil {
		return err
	}
	go func() {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("abandonment sweeper stopped", "error", err)
		}
	}()

	h := handler.New(svc, resume.New(cfg.ResumeSigningKey, cfg.ResumeTokenTTL), log,
		handler.WithNameCheckLimiter(ratelimit.New(cfg.NameCheckRate, cfg.NameCheckBurst, 10*time.Minute)),
		handler.WithDemoBypass(cfg.DemoBypass),
	)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.ClientIP)
	r.Use(request.Logger(log))
	r.Use(request.Recovery(log))
	r.Use(request.BodyLimit(pvalidation.MaxBodySize))
	r.Use(request.ContentTypeJSON)
	r.Use(request.LatencyMiddleware(request.NewMetrics()))
	checks.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.Onboarding.RequestBudget()))
		h.Register(r)
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore prefers Postgres, then Redis, then process memory.
func openStore(ctx context.Context, cfg config.Server, log *slog.Logger, checks *health.Handler) (service.Store, func() error, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
			_ = pool.Close()
			return nil, nil, err
		}
		checks.RegisterCheck("postgres", pool.Check)
		log.Info("using postgres session store")
		return store.NewPostgres(pool.DB()), pool.Close, nil

	case cfg.Redis.URL != "":
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		client.StartPoolStatsReporter(ctx, 15*time.Second)
		checks.RegisterCheck("redis", client.Check)
		log.Info("using redis session store")
		return store.NewRedis(client.Client), client.Close, nil

	default:
		if cfg.IsProduction() {
			log.Warn("no DATABASE_URL or REDIS_URL set; sessions are kept in memory")
		}
		return store.NewInMemory(), func() error { return nil }, nil
	}
}

// openPublisher uses Kafka when brokers are configured and the log otherwise.
func openPublisher(ctx context.Context, cfg config.Server, log *slog.Logger, checks *health.Handler) (events.Publisher, func() error, error) {
	if cfg.Kafka.Brokers == "" {
		return events.NewLogPublisher(log), func() error { return nil }, nil
	}
	p, err := producer.New(producer.Config{
		Brokers:         cfg.Kafka.Brokers,
		Acks:            cfg.Kafka.Acks,
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	if err := p.EnsureTopics(ctx, 3, 1, cfg.Kafka.Topic); err != nil {
		log.Warn("could not ensure onboarding topic", "topic", cfg.Kafka.Topic, "error", err)
	}
	checks.RegisterCheck("kafka", p.Check)
	log.Info("publishing onboarding events to kafka", "topic", cfg.Kafka.Topic)
	return events.NewKafkaPublisher(p, cfg.Kafka.Topic), p.Close, nil
}

// openVerifier selects the remote provider when a base URL is set, else the seeded mock.
func openVerifier(cfg config.Server, log *slog.Logger, metrics *onboardingmetrics.Metrics) *verification.Client {
	opts := []verification.Option{
		verification.WithLogger(log),
		verification.WithMetrics(metrics),
		verification.WithTracer(tracer.NewOTel()),
		verification.WithSettleWindow(cfg.Onboarding.NameSettleWindow),
		verification.WithNameTimeout(cfg.Onboarding.NameCheckTimeout),
	}
	if cfg.Provider.BaseURL != "" {
		adapter := httpadapter.New(httpadapter.Config{
			ID:      "verification",
			BaseURL: cfg.Provider.BaseURL,
			APIKey:  cfg.Provider.APIKey,
			Timeout: cfg.Onboarding.IncorporationTimeout,
			Logger:  log,
		})
		log.Info("using remote verification provider", "base_url", cfg.Provider.BaseURL)
		return verification.New(adapter, adapter, adapter, opts...)
	}
	provider := mock.New(mock.Config{
		Seed:    cfg.Provider.MockSeed,
		Latency: cfg.Provider.MockLatency,
		Taken:   cfg.Provider.MockTaken,
	})
	log.Info("using mock verification provider", "seed", cfg.Provider.MockSeed)
	return verification.New(provider, provider, provider, opts...)
}
