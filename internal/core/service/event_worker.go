package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/food-ordering/internal/core/domain"
	"github.com/rl1809/food-ordering/internal/port"
)

const deliveryTimeout = 5 * time.Second

// DeliverEvents drains events into publisher until the channel is closed.
// A failed delivery is logged and skipped.
func DeliverEvents(id int, events <-chan domain.Event, publisher port.EventPublisher, log logrus.FieldLogger) {
	for event := range events {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)

		entry := log.WithFields(logrus.Fields{"worker": id, "event": event.Type()})
		if err := publisher.PublishEvent(ctx, event); err != nil {
			entry.WithError(err).Error("failed to deliver event")
		} else {
			entry.Debug("delivered event")
		}

		cancel()
	}
}
