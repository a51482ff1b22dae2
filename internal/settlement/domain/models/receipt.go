package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShopInfo struct {
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	VATNumber string `json:"vat_number,omitempty"`
}

type ReceiptLine struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// Receipt is built on demand from one ledger entry and never stored.
type Receipt struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	SessionID     uuid.UUID       `json:"session_id"`
	Shop          ShopInfo        `json:"shop"`
	Items         []ReceiptLine   `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaidAt        time.Time       `json:"paid_at"`
	PaymentMethod string          `json:"payment_method"`
	Smac          bool            `json:"smac_flag"`
	Notes         string          `json:"notes,omitempty"`
}
