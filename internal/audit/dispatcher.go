package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Dispatcher разбирает очередь аудита в фоне
type Dispatcher struct {
	queue          *Queue
	sink           Sink
	logger         *zap.Logger
	publishTimeout time.Duration
	stopChan       chan struct{}
	done           chan struct{}
}

// NewDispatcher создаёт новый диспетчер
func NewDispatcher(queue *Queue, sink Sink, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		queue:          queue,
		sink:           sink,
		logger:         logger,
		publishTimeout: 2 * time.Second,
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start запускает отправку событий
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting audit dispatcher")

	go d.run(ctx)
}

// Stop останавливает диспетчер, отправив то, что уже в очереди
func (d *Dispatcher) Stop() {
	d.logger.Info("Stopping audit dispatcher")
	close(d.stopChan)
	<-d.done

	if dropped := d.queue.Dropped(); dropped > 0 {
		d.logger.Warn("Audit events dropped", zap.Int64("count", dropped))
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case ev := <-d.queue.events:
			d.publish(ev)
		case <-d.stopChan:
			d.drain()
			return
		case <-ctx.Done():
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue.events:
			d.publish(ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ev Event) {
	// Контекст запроса к этому моменту уже завершён
	ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
	defer cancel()

	if err := d.sink.Publish(ctx, ev); err != nil {
		d.logger.Warn("Failed to publish audit event",
			zap.String("log_id", ev.ID),
			zap.String("message", ev.Message),
			zap.Error(err),
		)
	}
}
