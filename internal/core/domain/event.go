package domain

import "github.com/shopspring/decimal"

type Event interface {
	Type() string
}

type MenuItemCreated struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
}

func (e MenuItemCreated) Type() string { return "menu_item_created" }

type OrderPlaced struct {
	OrderID    string          `json:"order_id"`
	LineCount  int             `json:"line_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func (e OrderPlaced) Type() string { return "order_placed" }

type UserRegistered struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (e UserRegistered) Type() string { return "user_registered" }
