package dto

import (
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	Amount    decimal.Decimal   `json:"amount"`
	Method    string            `json:"payment_method"`
	Notes     string            `json:"notes,omitempty"`
	Smac      bool              `json:"smac_flag"`
	PaidItems []models.PaidItem `json:"paid_items,omitempty"`
}

type PaymentResult struct {
	Payment    models.SessionPayment `json:"payment"`
	Session    models.TableSession   `json:"session"`
	Paid       decimal.Decimal       `json:"paid"`
	Remaining  decimal.Decimal       `json:"remaining"`
	AutoClosed bool                  `json:"auto_closed"`
}

// Selection is the per-item split state: desired quantities per remaining
// item plus the desired share of the cover quota.
type Selection struct {
	Items         []SelectedItem `json:"items"`
	CoverQuantity int            `json:"cover_quantity"`
}

type SelectedItem struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	Quantity    int       `json:"quantity"`
}

// PaymentCandidate is a payment built from a selection and shown to the
// operator before it is submitted.
type PaymentCandidate struct {
	Amount        decimal.Decimal   `json:"amount"`
	SelectedTotal decimal.Decimal   `json:"selected_total"`
	Description   string            `json:"description"`
	PaidItems     []models.PaidItem `json:"paid_items"`
	// Clamped is set when SelectedTotal exceeded the remaining balance and
	// Amount was lowered to it.
	Clamped bool `json:"clamped"`
}

// Request turns the candidate into the payment to submit. A non-nil override
// replaces the computed amount.
func (c PaymentCandidate) Request(method string, smac bool, override *decimal.Decimal) PaymentRequest {
	amount := c.Amount
	if override != nil {
		amount = *override
	}
	items := make([]models.PaidItem, len(c.PaidItems))
	copy(items, c.PaidItems)
	return PaymentRequest{
		Amount:    amount,
		Method:    method,
		Notes:     c.Description,
		Smac:      smac,
		PaidItems: items,
	}
}
