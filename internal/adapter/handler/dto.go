package handler

import (
	"github.com/shopspring/decimal"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

type CreateMenuItemRequest struct {
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
}

type MenuItemResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type OrderLineDTO struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Items []OrderLineDTO `json:"items"`
}

type OrderResponse struct {
	ID         string         `json:"id"`
	Items      []OrderLineDTO `json:"items"`
	TotalPrice float64        `json:"total_price"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     *string `json:"role"`
}

type RegisterResponse struct {
	Msg  string      `json:"msg"`
	Role domain.Role `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type MessageResponse struct {
	Msg string `json:"msg"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func toMenuItemResponse(item domain.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:    item.ID,
		Name:  item.Name,
		Price: item.Price.InexactFloat64(),
	}
}

func toOrderResponse(order domain.Order) OrderResponse {
	items := make([]OrderLineDTO, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, OrderLineDTO{MenuItemID: line.MenuItemID, Quantity: line.Quantity})
	}
	return OrderResponse{
		ID:         order.ID,
		Items:      items,
		TotalPrice: order.TotalPrice.InexactFloat64(),
	}
}

func toOrderLines(items []OrderLineDTO) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.OrderLine{MenuItemID: item.MenuItemID, Quantity: item.Quantity})
	}
	return lines
}
