package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

type MenuItem struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	CreatedAt time.Time
}

// MenuItemNotFoundError names the missing id and matches ErrMenuItemNotFound
// under errors.Is.
type MenuItemNotFoundError struct {
	ID string
}

func (e *MenuItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %s not found", e.ID)
}

func (e *MenuItemNotFoundError) Is(target error) bool {
	return target == ErrMenuItemNotFound
}
