package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/food-ordering/internal/core/domain"
	"github.com/rl1809/food-ordering/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrEmptyOrder       = errors.New("order must contain at least one item")
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 2147483647")
)

const idempotencyKeyPrefix = "idempotency:order:"

type OrderService struct {
	menu   port.MenuRepository
	orders port.OrderRepository
	cache  port.CacheRepository
	events EventDispatcher
	log    logrus.FieldLogger
}

func NewOrderService(menu port.MenuRepository, orders port.OrderRepository, cache port.CacheRepository,
	events EventDispatcher, log logrus.FieldLogger) *OrderService {
	return &OrderService{
		menu:   menu,
		orders: orders,
		cache:  cache,
		events: events,
		log:    log,
	}
}

// PlaceOrder validates every line, prices the order from one menu snapshot and
// stores it. Nothing is stored unless every line is valid. A non-empty
// idempotencyKey can be used once.
func (s *OrderService) PlaceOrder(ctx context.Context, idempotencyKey string, lines []domain.OrderLine) (domain.Order, error) {
	if len(lines) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}

	ids := make([]string, 0, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 || line.Quantity > maxQuantity {
			return domain.Order{}, fmt.Errorf("item %d: %w", i, ErrInvalidQuantity)
		}
		ids = append(ids, line.MenuItemID)
	}

	snapshot, err := s.menu.GetMenuItems(ctx, ids)
	if err != nil {
		return domain.Order{}, fmt.Errorf("read menu snapshot: %w", err)
	}

	total, err := PriceOrder(lines, snapshot)
	if err != nil {
		s.log.WithError(err).Warn("order rejected")
		return domain.Order{}, err
	}

	var claimedKey string
	if idempotencyKey != "" {
		claimedKey = idempotencyKeyPrefix + idempotencyKey

		ok, err := s.cache.SetIdempotency(ctx, claimedKey)
		if err != nil {
			return domain.Order{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return domain.Order{}, ErrDuplicateRequest
		}
	}

	order := domain.Order{
		ID:         uuid.NewString(),
		Items:      append([]domain.OrderLine(nil), lines...),
		TotalPrice: total,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if claimedKey != "" {
			if rollbackErr := s.cache.ReleaseIdempotency(ctx, claimedKey); rollbackErr != nil {
				s.log.WithError(rollbackErr).WithField("order_id", order.ID).Error("failed to release idempotency key")
			}
		}
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"lines":       len(order.Items),
		"total_price": order.TotalPrice.String(),
	}).Info("order placed")

	s.events.Dispatch(ctx, domain.OrderPlaced{
		OrderID:    order.ID,
		LineCount:  len(order.Items),
		TotalPrice: order.TotalPrice,
	})

	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.orders.GetOrder(ctx, id)
}
