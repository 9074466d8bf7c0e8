package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/app"
	"github.com/Freeeeeet/uniquip/internal/audit"
	"github.com/Freeeeeet/uniquip/internal/config"
)

func main() {
	cfg, err := config.LoadConsumer()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.ServiceName+"-audit-consumer")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting audit consumer",
		zap.String("queue", cfg.AuditQueue),
		zap.String("dir", cfg.AuditLogDir),
	)

	consumer := audit.NewConsumer(cfg.AMQPURL, cfg.AuditQueue, audit.NewJSONLWriter(cfg.AuditLogDir), logger)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Audit consumer stopped with error", zap.Error(err))
	}
	logger.Info("Audit consumer stopped")
}
