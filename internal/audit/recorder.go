package audit

import (
	"context"
	"sync/atomic"
)

// Recorder принимает события аудита. Реализации не должны блокировать.
type Recorder interface {
	Record(ctx context.Context, level Level, message string, fields map[string]any)
}

// Queue ограниченная очередь событий. При переполнении событие
// отбрасывается и учитывается в Dropped.
type Queue struct {
	service string
	events  chan Event
	dropped atomic.Int64
}

// NewQueue создаёт очередь на size событий
func NewQueue(service string, size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		service: service,
		events:  make(chan Event, size),
	}
}

// Record ставит событие в очередь без ожидания
func (q *Queue) Record(ctx context.Context, level Level, message string, fields map[string]any) {
	ev := NewEvent(ctx, q.service, level, message, fields)
	select {
	case q.events <- ev:
	default:
		q.dropped.Add(1)
	}
}

// Dropped количество отброшенных событий
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// Len количество событий, ожидающих отправки
func (q *Queue) Len() int {
	return len(q.events)
}

// Discard Recorder, который ничего не делает
type Discard struct{}

func (Discard) Record(context.Context, Level, string, map[string]any) {}
