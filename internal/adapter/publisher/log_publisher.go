package publisher

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

// LogPublisher is the event sink used when no Redis stream is configured.
type LogPublisher struct {
	log logrus.FieldLogger
}

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishEvent(ctx context.Context, event domain.Event) error {
	entry := p.log.WithField("event", event.Type())

	switch e := event.(type) {
	case domain.MenuItemCreated:
		entry = entry.WithFields(logrus.Fields{"menu_item_id": e.MenuItemID, "price": e.Price.String()})
	case domain.OrderPlaced:
		entry = entry.WithFields(logrus.Fields{"order_id": e.OrderID, "lines": e.LineCount, "total_price": e.TotalPrice.String()})
	case domain.UserRegistered:
		entry = entry.WithFields(logrus.Fields{"username": e.Username, "role": e.Role})
	}

	entry.Info("event published")
	return nil
}
