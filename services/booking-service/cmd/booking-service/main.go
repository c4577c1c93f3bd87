package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/db"
	"github.com/md-rashed-zaman/courtbook/libs/httpx"
	"github.com/md-rashed-zaman/courtbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/courtbook/libs/otel"
	"github.com/md-rashed-zaman/courtbook/libs/runtime"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/cache"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/jobs"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// store is everything the service and the staff console need from storage.
type store interface {
	booking.Backend
	booking.AdminBackend
}

func main() {
	cfg, err := loadSettings()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var (
		backend store
		checks  []runtime.ReadyCheck
	)
	switch cfg.storageDriver {
	case "memory":
		mem := storage.NewMemoryStore()
		if cfg.clubWindow != nil {
			mem.Seed(model.ClubConfig{Window: *cfg.clubWindow, DepositCents: cfg.clubDeposit})
		}
		backend = mem
		logger.Warn("using in-memory storage; data is lost on restart")
	default:
		pool, err := db.Open(ctx, cfg.databaseURL, db.PoolConfig{MaxConns: int32(cfg.maxConns)})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		if cfg.migrate {
			if err := storage.Migrate(ctx, pool); err != nil {
				logger.Error("migration failed", "err", err)
				panic(err)
			}
			logger.Info("schema migrated")
		}

		outboxRepo := outbox.NewRepository(pool)
		backend = storage.NewStore(pool, outboxRepo)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.brokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
			Retention: cfg.outboxRetention,
		})
		go publisher.Run(ctx)
		if len(cfg.brokers) > 0 {
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.brokers), Optional: true})
		}
	}

	opts := booking.Options{Logger: logger}
	var limiter httpx.Limiter = httpx.NewMemoryRateLimiter(cfg.rateLimit, time.Minute)
	if cfg.redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.redisAddr, Password: cfg.redisPassword, DB: cfg.redisDB})
		defer func() { _ = rdb.Close() }()
		snapshots := cache.NewReader(rdb, backend, cfg.cacheTTL, "courtbook", logger)
		opts.Reader = snapshots
		opts.Invalidator = snapshots
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.rateLimit, time.Minute, "courtbook:rl")
		checks = append(checks, runtime.ReadyCheck{
			Name:     "redis",
			Check:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			Optional: true,
		})
	}

	engine := availability.NewEngine(availability.Config{
		Courts:   cfg.courts,
		Location: cfg.location,
		Fallback: cfg.fallback,
	})
	svc := booking.NewService(engine, backend, opts)
	adm := booking.NewAdmin(svc, backend)

	expiry := jobs.NewExpiryWorker(svc, logger, jobs.ExpiryConfig{
		Interval: cfg.expiryTick,
		TTL:      cfg.pendingTTL,
	})
	go expiry.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewPublicHandler(svc, &handlers.CustomerAuth{
		Secret:      cfg.jwtSecret,
		TrustHeader: cfg.trustUserHeader,
	}, logger).Register(mux)
	handlers.NewAdminHandler(svc, adm, &handlers.AdminAuth{
		Username:     cfg.adminUser,
		PasswordHash: cfg.adminHash,
		Secret:       cfg.jwtSecret,
		TokenTTL:     cfg.adminTokenTTL,
		Logger:       logger,
	}, logger).Register(mux)
	handlers.NewPaymentsHandler(svc, cfg.stripeSecret, cfg.stripeTolerance, logger).Register(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.corsOrigins,
			AllowedHeaders: []string{"Authorization", "Content-Type", httpx.RequestIDHeader, handlers.UserIDHeader},
			MaxAge:         10 * time.Minute,
		}),
		httpx.Only(httpx.RateLimit(limiter, logger, true), "/api/v1/public/", "/api/v1/admin/login"),
		httpx.WithBodyLimit(1<<20),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.grpcPort != "" {
		startHealthServer(ctx, cfg, checks, logger)
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "storage", cfg.storageDriver, "courts", len(cfg.courts))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
