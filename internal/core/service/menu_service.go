package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/food-ordering/internal/core/domain"
	"github.com/rl1809/food-ordering/internal/port"
)

var ErrInvalidPrice = errors.New("price must be greater than zero, below 1000000000000 and have at most 6 decimal places")

type MenuService struct {
	menu   port.MenuRepository
	events EventDispatcher
	log    logrus.FieldLogger
}

func NewMenuService(menu port.MenuRepository, events EventDispatcher, log logrus.FieldLogger) *MenuService {
	return &MenuService{
		menu:   menu,
		events: events,
		log:    log,
	}
}

func (s *MenuService) CreateMenuItem(ctx context.Context, name string, price decimal.Decimal) (domain.MenuItem, error) {
	if err := ValidatePrice(price); err != nil {
		return domain.MenuItem{}, err
	}

	item := domain.MenuItem{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.menu.CreateMenuItem(ctx, item); err != nil {
		return domain.MenuItem{}, fmt.Errorf("save menu item: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"menu_item_id": item.ID,
		"name":         item.Name,
		"price":        item.Price.String(),
	}).Info("menu item created")

	s.events.Dispatch(ctx, domain.MenuItemCreated{MenuItemID: item.ID, Name: item.Name, Price: item.Price})

	return item, nil
}

func (s *MenuService) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	items, err := s.menu.ListMenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}
