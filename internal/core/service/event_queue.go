package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

type EventDispatcher interface {
	Dispatch(ctx context.Context, event domain.Event)
}

// EventQueue buffers domain events between the services and the delivery
// workers. Events dispatched after Close are dropped.
type EventQueue struct {
	mu     sync.RWMutex
	closed bool
	events chan domain.Event
	log    logrus.FieldLogger
}

func NewEventQueue(size int, log logrus.FieldLogger) *EventQueue {
	return &EventQueue{
		events: make(chan domain.Event, size),
		log:    log,
	}
}

// Dispatch blocks while the queue is full. If ctx ends first the event is dropped.
func (q *EventQueue) Dispatch(ctx context.Context, event domain.Event) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.log.WithField("event", event.Type()).Warn("event dropped, queue closed")
		return
	}

	select {
	case q.events <- event:
	case <-ctx.Done():
		q.log.WithField("event", event.Type()).Warn("event dropped, context done before enqueue")
	}
}

func (q *EventQueue) Events() <-chan domain.Event {
	return q.events
}

// Close waits for in-flight Dispatch calls, then closes the channel so the
// workers drain what is left and exit.
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.events)
	}
}
