package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

func TestCreateMenuItem(t *testing.T) {
	log, hook := test.NewNullLogger()
	repo := newMockMenuRepo()
	events := &recordingDispatcher{}
	svc := NewMenuService(repo, events, log)

	t.Run("Success", func(t *testing.T) {
		item, err := svc.CreateMenuItem(context.Background(), "Burger", decimal.RequireFromString("7.25"))
		require.NoError(t, err)
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "Burger", item.Name)

		items, err := svc.ListMenu(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, item.ID, items[0].ID)

		require.Len(t, events.recorded(), 1)
		_, ok := events.recorded()[0].(domain.MenuItemCreated)
		assert.True(t, ok)
		assert.Equal(t, "menu item created", hook.LastEntry().Message)
	})

	t.Run("Fail on zero price", func(t *testing.T) {
		_, err := svc.CreateMenuItem(context.Background(), "Water", decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("Fail on negative price", func(t *testing.T) {
		_, err := svc.CreateMenuItem(context.Background(), "Refund", decimal.NewFromInt(-3))
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("Fail on oversized or too precise price", func(t *testing.T) {
		for _, p := range []string{"1e400", "1e12", "0.1234567"} {
			_, err := svc.CreateMenuItem(context.Background(), "Gold", decimal.RequireFromString(p))
			assert.ErrorIs(t, err, ErrInvalidPrice, p)
		}
	})

	t.Run("Duplicate names are allowed", func(t *testing.T) {
		a, err := svc.CreateMenuItem(context.Background(), "Soup", decimal.NewFromInt(3))
		require.NoError(t, err)
		b, err := svc.CreateMenuItem(context.Background(), "Soup", decimal.NewFromInt(3))
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestCreateMenuItem_StoreError(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := newMockMenuRepo()
	repo.err = errors.New("boom")
	events := &recordingDispatcher{}
	svc := NewMenuService(repo, events, log)

	_, err := svc.CreateMenuItem(context.Background(), "Tea", decimal.NewFromInt(1))
	assert.Error(t, err)
	assert.Empty(t, events.recorded())
}
