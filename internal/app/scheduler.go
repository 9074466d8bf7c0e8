package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// QueueStats источник статистики очереди аудита
type QueueStats interface {
	Dropped() int64
	Len() int
}

// Scheduler периодически пишет в лог состояние очереди аудита
type Scheduler struct {
	stats    QueueStats
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(stats QueueStats, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		stats:    stats,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновую задачу
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.run(ctx)
}

// Stop останавливает задачу и ждёт её завершения
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var lastDropped int64
	for {
		select {
		case <-ticker.C:
			lastDropped = s.report(lastDropped)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// report пишет предупреждение, если с прошлого раза события терялись
func (s *Scheduler) report(lastDropped int64) int64 {
	dropped := s.stats.Dropped()
	if dropped > lastDropped {
		s.logger.Warn("Audit events dropped",
			zap.Int64("dropped_since_last", dropped-lastDropped),
			zap.Int64("dropped_total", dropped),
			zap.Int("queued", s.stats.Len()),
		)
	} else {
		s.logger.Debug("Audit queue healthy", zap.Int("queued", s.stats.Len()))
	}
	return dropped
}
