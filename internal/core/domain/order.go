package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderLine struct {
	MenuItemID string
	Quantity   int
}

// Order is immutable once stored. TotalPrice is fixed at creation and does
// not follow later menu changes.
type Order struct {
	ID         string
	Items      []OrderLine
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// Clone returns a copy that does not share the Items backing array.
func (o Order) Clone() Order {
	items := make([]OrderLine, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
