package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MethodCash   = "cash"
	MethodCard   = "card"
	MethodOnline = "online"

	// MethodSplit marks a session closed by the ledger reaching zero.
	MethodSplit = "split"
)

// SessionPayment is one immutable ledger entry.
type SessionPayment struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaidAt        time.Time       `json:"paid_at"`
	Notes         string          `json:"notes,omitempty"`
	Smac          bool            `json:"smac_flag"`
	PaidItems     []PaidItem      `json:"paid_items"`
}

// PaidItem is one itemised line of a payment. A nil OrderItemID is the cover
// charge pseudo-item.
type PaidItem struct {
	OrderItemID  *uuid.UUID      `json:"order_item_id"`
	Quantity     int             `json:"quantity"`
	MenuItemName string          `json:"menu_item_name"`
	Price        decimal.Decimal `json:"price"`
}

func (p PaidItem) IsCover() bool {
	return p.OrderItemID == nil
}
