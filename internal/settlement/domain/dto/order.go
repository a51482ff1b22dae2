package dto

import (
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	Items []ItemRequest `json:"items"`
}

type ItemRequest struct {
	MenuItemName string          `json:"menu_item_name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Notes        string          `json:"notes,omitempty"`
}

type UpdateItemRequest struct {
	Quantity *int    `json:"quantity,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}
