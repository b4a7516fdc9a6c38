package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/api"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/clock"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/config"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/database"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/events"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/export"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/logging"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/metrics"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/notify"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/repository"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/service"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/sheets"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/worker"

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
		defer func() { _ = closer.Close() }()
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rateCache := buildRateCache(cfg, db, redisClient, &logger)
	eventBus := events.NewEventBus()
	initTelegram(cfg, eventBus, &logger)

	syncWorker := initSheetsSync(ctx, cfg, db, redisClient, &logger)

	clk := clock.NewSystem()
	sweeper := service.NewSweeper(db, eventBus, clk, &logger)
	reservations := service.NewReservationService(db, rateCache, eventBus, syncWorker, sweeper, clk, cfg.Booking.HoldDuration(), &logger)
	bookings := service.NewBookingService(db, eventBus, syncWorker, sweeper, &logger)
	rates := service.NewRateService(db, rateCache, &logger)
	exporter := export.NewExporter(db, cfg.Exports.Path, &logger)

	sweepLoop := worker.NewSweepLoop(sweeper, cfg.Booking.SweepInterval(), &logger)
	go sweepLoop.Start(ctx)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg.API, reservations, bookings, rates, exporter, &logger)
	return startServer(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if err := db.SeedRateSchedule(context.Background(), cfg.Booking.SeedSchedule()); err != nil {
		logger.Error().Err(err).Msg("seed rate schedule")
		return nil, err
	}
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// buildRateCache assembles the rate provider chain: Redis first when
// available, the in-memory cache as fallback, sqlite as the source of truth.
func buildRateCache(cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) domain.RateProvider {
	ttl := cfg.Booking.RateCacheTTL()
	memory := repository.NewMemoryRateRepository(db, ttl)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisRateRepository(redisClient, db, ttl)
	return repository.NewFailoverRateRepository(primary, memory, logger)
}

func initTelegram(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if !cfg.Telegram.Enabled {
		return
	}

	bot, err := notify.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}
	bot.Debug = cfg.Telegram.Debug

	notifier := notify.NewTelegramNotifier(bot, []int64{cfg.Telegram.AdminChatID}, logger)
	notifier.SubscribeTo(bus)
	logger.Info().Msg("telegram notifications enabled")
}

func initSheetsSync(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) domain.SyncWorker {
	if !cfg.Google.Enabled {
		return nil
	}

	mirror, err := sheets.NewMirror(cfg.Google.GoogleCredentialsFile, cfg.Google.BookingsSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets sync")
		return nil
	}

	syncWorker := worker.NewSyncWorker(db, mirror, redisClient, worker.Backoff{}, logger)
	go syncWorker.Start(ctx)

	logger.Info().Msg("google sheets sync enabled")
	return syncWorker
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
