package port

import (
	"context"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

// EventPublisher delivers a domain event to its sink. Called from the event
// workers, never from request handlers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.Event) error
}
