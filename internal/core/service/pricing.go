package service

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

const (
	// Prices and totals are kept to this many fractional digits by every store.
	maxPriceScale = 6
	maxQuantity   = math.MaxInt32
)

var (
	// Upper bounds follow the integer digits of the MySQL columns.
	maxPrice      = decimal.New(1, 12)
	maxOrderTotal = decimal.New(1, 18)

	ErrOrderTotalTooLarge = errors.New("order total is too large")
)

// ValidatePrice accepts positive prices below maxPrice with at most
// maxPriceScale fractional digits.
func ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() || price.GreaterThanOrEqual(maxPrice) {
		return ErrInvalidPrice
	}
	if !price.Equal(price.Truncate(maxPriceScale)) {
		return ErrInvalidPrice
	}
	if f := price.InexactFloat64(); math.IsInf(f, 0) || math.IsNaN(f) {
		return ErrInvalidPrice
	}
	return nil
}

// PriceOrder sums quantity × price over lines, in order. The first line whose
// menu item is missing from menu aborts pricing, and so does a total that
// reaches maxOrderTotal.
func PriceOrder(lines []domain.OrderLine, menu map[string]domain.MenuItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range lines {
		item, ok := menu[line.MenuItemID]
		if !ok {
			return decimal.Zero, &domain.MenuItemNotFoundError{ID: line.MenuItemID}
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if total.GreaterThanOrEqual(maxOrderTotal) {
		return decimal.Zero, ErrOrderTotalTooLarge
	}
	if f := total.InexactFloat64(); math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, ErrOrderTotalTooLarge
	}
	return total, nil
}
