package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shoecare/internal/api"
	"shoecare/internal/auth"
	"shoecare/internal/config"
	"shoecare/internal/database"
	"shoecare/internal/domain"
	"shoecare/internal/events"
	"shoecare/internal/logging"
	"shoecare/internal/mail"
	"shoecare/internal/metrics"
	"shoecare/internal/repository"
	"shoecare/internal/service"
	"shoecare/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	flags := initFlagStore(cfg, redisClient, logger)

	eventBus := events.NewEventBus()
	eventBus.OnError(func(event *events.Event, err error) {
		logger.Error().Err(err).Str("event_type", event.Type).Msg("event handler failed")
	})

	if err := startMailWorker(ctx, cfg, eventBus, logger); err != nil {
		return err
	}

	backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, logging.Component(logger, "backup"))
	go backup.Start(ctx)

	allowSimulation := !cfg.IsProduction()
	router, err := api.NewRouter(cfg, api.Deps{
		Bookings: service.NewBookingService(db, eventBus, flags, cfg.API.RateLimit.BookingsPerHour, logging.Component(logger, "bookings")),
		Users:    service.NewUserService(db, logging.Component(logger, "users")),
		DevMode:  service.NewDevModeService(flags, allowSimulation, logging.Component(logger, "dev-mode")),
		Resolver: auth.NewResolver(db, allowSimulation),
		Tokens:   auth.NewTokens(cfg.API.Auth.Secret, cfg.API.Auth.Issuer, time.Duration(cfg.API.Auth.TokenTTL)*time.Second),
		Logger:   logging.Component(logger, "http"),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	httpServer := api.NewHTTPServer(cfg.API, router, logging.Component(logger, "http"))

	if allowSimulation {
		logger.Warn().Str("environment", cfg.App.Environment).Msg("admin simulation is enabled")
	}

	startMetrics(ctx, cfg, logger)

	return startServer(ctx, httpServer, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, dev flags fall back to memory")
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis configured")
	return client
}

// initFlagStore prefers redis and falls back to process memory while redis is down.
func initFlagStore(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) domain.FlagStore {
	ttl := time.Duration(cfg.Dev.AdminSimulationTTL) * time.Second
	memory := repository.NewMemoryFlagRepository(ttl)
	if client == nil {
		return memory
	}
	return repository.NewFailoverFlagRepository(
		repository.NewRedisFlagRepository(client, ttl),
		memory,
		logging.Component(logger, "flags"),
	)
}

func startMailWorker(ctx context.Context, cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) error {
	sender, err := mail.New(cfg.Mail, logging.Component(logger, "mail"))
	if err != nil {
		return fmt.Errorf("init mail: %w", err)
	}

	mailWorker := worker.NewMailWorker(
		sender,
		cfg.App.Name,
		cfg.Mail.QueueSize,
		worker.RetryPolicy{MaxRetries: cfg.Mail.MaxRetries},
		logging.Component(logger, "mail-worker"),
	)
	mailWorker.Subscribe(bus)
	go mailWorker.Start(ctx)
	return nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Str("http_addr", httpServer.Addr()).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
