// Package audit ведёт журнал действий над бронями. Сервисы пишут события
// через Recorder, который никогда не блокирует вызывающего; Dispatcher
// в фоне отправляет их в Sink (RabbitMQ или zap). Consumer на другой
// стороне очереди складывает события в JSONL-файлы по дням.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

type Event struct {
	ID        string         `json:"log_id"`
	Timestamp time.Time      `json:"timestamp"`
	Service   string         `json:"service"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	TraceID   string         `json:"trace_id"`
	Fields    map[string]any `json:"fields,omitempty"`
}

type traceKey struct{}

// WithTraceID кладёт trace id запроса в контекст
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceID возвращает trace id из контекста или пустую строку
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// NewEvent создаёт событие. Без trace id в контексте генерируется новый.
func NewEvent(ctx context.Context, service string, level Level, message string, fields map[string]any) Event {
	traceID := TraceID(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
	}

	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Service:   service,
		Level:     level,
		Message:   message,
		TraceID:   traceID,
		Fields:    fields,
	}
}
