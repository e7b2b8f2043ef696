package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

func newTestOrderService(items ...domain.MenuItem) (*OrderService, *mockOrderRepo, *mockCacheRepo, *recordingDispatcher) {
	log, _ := test.NewNullLogger()
	orders := newMockOrderRepo()
	cache := newMockCacheRepo()
	events := &recordingDispatcher{}
	svc := NewOrderService(newMockMenuRepo(items...), orders, cache, events, log)
	return svc, orders, cache, events
}

var pizza = domain.MenuItem{ID: "m1", Name: "Pizza", Price: decimal.RequireFromString("5.0")}

func TestPlaceOrder_Success(t *testing.T) {
	svc, orders, _, events := newTestOrderService(pizza)

	order, err := svc.PlaceOrder(context.Background(), "", []domain.OrderLine{{MenuItemID: "m1", Quantity: 3}})
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(15)), "total = %s", order.TotalPrice)
	assert.Equal(t, []domain.OrderLine{{MenuItemID: "m1", Quantity: 3}}, order.Items)

	saved, err := orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, saved.ID)

	recorded := events.recorded()
	require.Len(t, recorded, 1)
	placed, ok := recorded[0].(domain.OrderPlaced)
	require.True(t, ok)
	assert.Equal(t, order.ID, placed.OrderID)
}

func TestPlaceOrder_UnknownMenuItem(t *testing.T) {
	svc, orders, _, events := newTestOrderService(pizza)

	_, err := svc.PlaceOrder(context.Background(), "", []domain.OrderLine{
		{MenuItemID: "m1", Quantity: 1},
		{MenuItemID: "missing", Quantity: 1},
	})

	assert.ErrorIs(t, err, domain.ErrMenuItemNotFound)
	assert.Contains(t, err.Error(), "missing")
	assert.Equal(t, 0, orders.count(), "no partial order may be stored")
	assert.Empty(t, events.recorded())
}

func TestPlaceOrder_InvalidLines(t *testing.T) {
	svc, orders, _, _ := newTestOrderService(pizza)

	t.Run("empty order", func(t *testing.T) {
		_, err := svc.PlaceOrder(context.Background(), "", nil)
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := svc.PlaceOrder(context.Background(), "", []domain.OrderLine{{MenuItemID: "m1", Quantity: 0}})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("quantity above int32", func(t *testing.T) {
		_, err := svc.PlaceOrder(context.Background(), "", []domain.OrderLine{{MenuItemID: "m1", Quantity: math.MaxInt32 + 1}})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("negative quantity", func(t *testing.T) {
		_, err := svc.PlaceOrder(context.Background(), "", []domain.OrderLine{
			{MenuItemID: "m1", Quantity: 2},
			{MenuItemID: "m1", Quantity: -1},
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	assert.Equal(t, 0, orders.count())
}

func TestPlaceOrder_DuplicateRequest(t *testing.T) {
	svc, orders, _, _ := newTestOrderService(pizza)
	lines := []domain.OrderLine{{MenuItemID: "m1", Quantity: 1}}

	// First request
	_, err := svc.PlaceOrder(context.Background(), "req-1", lines)
	require.NoError(t, err)

	// Duplicate request with same key
	_, err = svc.PlaceOrder(context.Background(), "req-1", lines)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	// Different key goes through
	_, err = svc.PlaceOrder(context.Background(), "req-2", lines)
	require.NoError(t, err)

	assert.Equal(t, 2, orders.count())
}

func TestPlaceOrder_RejectedOrderKeepsKeyFree(t *testing.T) {
	svc, _, cache, _ := newTestOrderService(pizza)

	_, err := svc.PlaceOrder(context.Background(), "req-1", []domain.OrderLine{{MenuItemID: "missing", Quantity: 1}})
	require.ErrorIs(t, err, domain.ErrMenuItemNotFound)

	_, err = svc.PlaceOrder(context.Background(), "req-1", []domain.OrderLine{{MenuItemID: "m1", Quantity: 1}})
	require.NoError(t, err)
	assert.Empty(t, cache.released)
}

func TestPlaceOrder_StoreFailureReleasesKey(t *testing.T) {
	svc, orders, cache, events := newTestOrderService(pizza)
	orders.err = errors.New("disk on fire")

	_, err := svc.PlaceOrder(context.Background(), "req-1", []domain.OrderLine{{MenuItemID: "m1", Quantity: 1}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateRequest)

	assert.Equal(t, []string{idempotencyKeyPrefix + "req-1"}, cache.released)
	assert.Empty(t, events.recorded())

	// Key can be reused once the store recovers
	orders.err = nil
	_, err = svc.PlaceOrder(context.Background(), "req-1", []domain.OrderLine{{MenuItemID: "m1", Quantity: 1}})
	require.NoError(t, err)
}

func TestPlaceOrder_Concurrent(t *testing.T) {
	svc, orders, _, _ := newTestOrderService(pizza)
	totalRequests := 50

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			// every other request reuses the same key
			key := fmt.Sprintf("req-%d", id)
			if id%2 == 0 {
				key = "shared"
			}
			order, err := svc.PlaceOrder(context.Background(), key, []domain.OrderLine{{MenuItemID: "m1", Quantity: 2}})
			if err == nil {
				successCount.Add(1)
				if !order.TotalPrice.Equal(decimal.NewFromInt(10)) {
					t.Errorf("unexpected total %s", order.TotalPrice)
				}
			} else if !errors.Is(err, ErrDuplicateRequest) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()

	want := totalRequests/2 + 1
	assert.Equal(t, int32(want), successCount.Load())
	assert.Equal(t, want, orders.count())
}

func TestPlaceOrder_TotalTooLargeKeepsKeyFree(t *testing.T) {
	huge := domain.MenuItem{ID: "m9", Name: "Gold", Price: decimal.RequireFromString("1e308")}
	svc, orders, cache, _ := newTestOrderService(huge)

	_, err := svc.PlaceOrder(context.Background(), "req-1", []domain.OrderLine{{MenuItemID: "m9", Quantity: 10}})
	assert.ErrorIs(t, err, ErrOrderTotalTooLarge)
	assert.Equal(t, 0, orders.count())
	assert.Empty(t, cache.idempotencySet)
}

func TestGetOrder_NotFound(t *testing.T) {
	svc, _, _, _ := newTestOrderService()

	_, err := svc.GetOrder(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
