package port

import (
	"context"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

type MenuRepository interface {
	// CreateMenuItem stores a new menu item
	CreateMenuItem(ctx context.Context, item domain.MenuItem) error

	// ListMenuItems returns every menu item in insertion order
	ListMenuItems(ctx context.Context) ([]domain.MenuItem, error)

	// GetMenuItems reads the given ids from one consistent snapshot.
	// Ids that do not exist are absent from the result.
	GetMenuItems(ctx context.Context, ids []string) (map[string]domain.MenuItem, error)
}

type OrderRepository interface {
	// CreateOrder persists an order together with its lines
	CreateOrder(ctx context.Context, order domain.Order) error

	// ListOrders returns every order in insertion order
	ListOrders(ctx context.Context) ([]domain.Order, error)

	// GetOrder returns domain.ErrOrderNotFound for unknown ids
	GetOrder(ctx context.Context, id string) (domain.Order, error)
}

type UserRepository interface {
	// CreateUser inserts only if the username is free, otherwise domain.ErrUsernameTaken
	CreateUser(ctx context.Context, user domain.User) error

	// GetUser returns domain.ErrUserNotFound for unknown usernames
	GetUser(ctx context.Context, username string) (domain.User, error)
}

// DatabaseRepository is what a storage backend provides as a whole.
type DatabaseRepository interface {
	MenuRepository
	OrderRepository
	UserRepository
	Pinger
}
