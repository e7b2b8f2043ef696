package storage

import (
	"context"
	"sync"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

// MemoryAdapter keeps menu items, orders and users in process memory.
// Each collection has its own lock and keeps insertion order for listings.
type MemoryAdapter struct {
	menuMu    sync.RWMutex
	menu      map[string]domain.MenuItem
	menuOrder []string

	ordersMu   sync.RWMutex
	orders     map[string]domain.Order
	orderOrder []string

	usersMu sync.RWMutex
	users   map[string]domain.User
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		menu:   make(map[string]domain.MenuItem),
		orders: make(map[string]domain.Order),
		users:  make(map[string]domain.User),
	}
}

func (m *MemoryAdapter) CreateMenuItem(ctx context.Context, item domain.MenuItem) error {
	m.menuMu.Lock()
	defer m.menuMu.Unlock()

	if _, ok := m.menu[item.ID]; !ok {
		m.menuOrder = append(m.menuOrder, item.ID)
	}
	m.menu[item.ID] = item
	return nil
}

func (m *MemoryAdapter) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	m.menuMu.RLock()
	defer m.menuMu.RUnlock()

	items := make([]domain.MenuItem, 0, len(m.menuOrder))
	for _, id := range m.menuOrder {
		items = append(items, m.menu[id])
	}
	return items, nil
}

func (m *MemoryAdapter) GetMenuItems(ctx context.Context, ids []string) (map[string]domain.MenuItem, error) {
	m.menuMu.RLock()
	defer m.menuMu.RUnlock()

	found := make(map[string]domain.MenuItem, len(ids))
	for _, id := range ids {
		if item, ok := m.menu[id]; ok {
			found[id] = item
		}
	}
	return found, nil
}

func (m *MemoryAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	m.ordersMu.Lock()
	defer m.ordersMu.Unlock()

	if _, ok := m.orders[order.ID]; !ok {
		m.orderOrder = append(m.orderOrder, order.ID)
	}
	m.orders[order.ID] = order.Clone()
	return nil
}

func (m *MemoryAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.ordersMu.RLock()
	defer m.ordersMu.RUnlock()

	orders := make([]domain.Order, 0, len(m.orderOrder))
	for _, id := range m.orderOrder {
		orders = append(orders, m.orders[id].Clone())
	}
	return orders, nil
}

func (m *MemoryAdapter) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	m.ordersMu.RLock()
	defer m.ordersMu.RUnlock()

	order, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

func (m *MemoryAdapter) CreateUser(ctx context.Context, user domain.User) error {
	m.usersMu.Lock()
	defer m.usersMu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return domain.ErrUsernameTaken
	}
	m.users[user.Username] = user
	return nil
}

func (m *MemoryAdapter) GetUser(ctx context.Context, username string) (domain.User, error) {
	m.usersMu.RLock()
	defer m.usersMu.RUnlock()

	user, ok := m.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (m *MemoryAdapter) Ping(ctx context.Context) error {
	return nil
}
