package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderOpen      = "open"
	OrderSent      = "sent"
	OrderServed    = "served"
	OrderCancelled = "cancelled"
)

// Order is one ticket (comanda). SessionID is nil for standalone orders.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	SessionID   *uuid.UUID      `json:"session_id,omitempty"`
	OrderNumber int             `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []OrderItem     `json:"items"`
}

type OrderItem struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	MenuItemName string          `json:"menu_item_name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Notes        string          `json:"notes,omitempty"`
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
