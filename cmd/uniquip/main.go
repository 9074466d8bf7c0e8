package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/app"
	"github.com/Freeeeeet/uniquip/internal/audit"
	"github.com/Freeeeeet/uniquip/internal/cache"
	"github.com/Freeeeeet/uniquip/internal/config"
	"github.com/Freeeeeet/uniquip/internal/controller/api"
	"github.com/Freeeeeet/uniquip/internal/controller/telegram"
	"github.com/Freeeeeet/uniquip/internal/repository"
	"github.com/Freeeeeet/uniquip/internal/repository/base"
	"github.com/Freeeeeet/uniquip/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.ServiceName)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Service stopped with error", zap.Error(err))
	}
	logger.Info("Service stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting uniquip",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("lab_timezone", cfg.LabTimezone.String()),
	)

	// База данных
	pool, err := app.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		_ = migrator.Close()
		return err
	}
	_ = migrator.Close()

	// Кэш доступности (без Redis работает напрямую с БД)
	redisClient := cfg.NewRedisClient(ctx)
	if redisClient == nil {
		logger.Warn("Redis unavailable, availability cache disabled")
	} else {
		defer redisClient.Close()
	}
	availabilityCache := cache.NewAvailabilityCache(redisClient, cfg.CacheTTL, cfg.ServiceName, logger.Named("cache"))

	// Аудит
	queue := audit.NewQueue(cfg.ServiceName, cfg.AuditBuffer)
	var sink audit.Sink = audit.NewLogSink(logger.Named("audit"))
	if cfg.AMQPURL != "" {
		sink = audit.NewAMQPSink(cfg.AMQPURL, cfg.AuditQueue)
	}
	dispatcher := audit.NewDispatcher(queue, sink, logger.Named("audit"))
	// Останавливается через Stop после HTTP, чтобы события последних запросов ушли
	dispatcher.Start(context.Background())
	defer func() {
		dispatcher.Stop()
		_ = sink.Close()
	}()

	scheduler := app.NewScheduler(queue, time.Minute, logger.Named("scheduler"))
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Репозитории и сервисы
	txManager := base.NewTxManager(pool)
	equipmentRepo := repository.NewEquipmentRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)

	availabilityService := service.NewAvailabilityService(equipmentRepo, reservationRepo, availabilityCache, logger.Named("availability"))
	reservationService := service.NewReservationService(txManager, equipmentRepo, studentRepo, reservationRepo, availabilityCache, queue, logger.Named("reservations"))
	lifecycleService := service.NewLifecycleService(txManager, equipmentRepo, reservationRepo, availabilityCache, queue, logger.Named("lifecycle"))
	catalogService := service.NewCatalogService(catalogRepo, logger.Named("catalog"))

	// Telegram бот оператора
	if cfg.TelegramToken != "" {
		botLogger := logger.Named("bot")
		b, err := bot.New(cfg.TelegramToken,
			bot.WithMiddlewares(telegram.RequireOperator(cfg.TelegramOperatorIDs, botLogger)),
		)
		if err != nil {
			return err
		}
		botController := telegram.NewBotController(b, catalogService, lifecycleService, availabilityService, cfg.LabTimezone, botLogger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}
		go botController.Start(ctx)
	} else {
		logger.Info("TELEGRAM_TOKEN not set, operator bot disabled")
	}

	// HTTP
	handler := api.NewHandler(availabilityService, reservationService, lifecycleService, catalogService, cfg.LabTimezone, logger.Named("api"))
	server := api.NewServer(handler, cfg.RequestTimeout, logger.Named("http"))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("Shutting down HTTP server")
	return server.Shutdown(shutdownCtx)
}
