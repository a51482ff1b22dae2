package dto

import (
	"time"

	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OpenSessionRequest struct {
	TableID       uuid.UUID `json:"-"`
	Covers        int       `json:"covers"`
	CustomerName  string    `json:"customer_name,omitempty"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
}

type CloseSessionRequest struct {
	Method       string `json:"payment_method"`
	Smac         bool   `json:"smac_flag"`
	IncludeCover bool   `json:"include_cover"`
	// Confirm is required to close a session whose total is zero.
	Confirm bool `json:"confirm"`
}

type TransferRequest struct {
	TableID uuid.UUID `json:"table_id"`
}

type CoverRequest struct {
	Include bool `json:"include"`
}

type OverrideTotalRequest struct {
	Total  decimal.Decimal `json:"total"`
	Reason string          `json:"reason"`
}

// SessionView is everything a till needs to render one tab.
type SessionView struct {
	Session             models.TableSession     `json:"session"`
	Orders              []models.Order          `json:"orders"`
	Payments            []models.SessionPayment `json:"payments"`
	Baseline            decimal.Decimal         `json:"baseline"`
	CoverUnitPrice      decimal.Decimal         `json:"cover_unit_price"`
	CoverAvailable      bool                    `json:"cover_available"`
	CoverApplied        bool                    `json:"cover_applied"`
	Paid                decimal.Decimal         `json:"paid"`
	Remaining           decimal.Decimal         `json:"remaining"`
	RemainingItems      []RemainingItem         `json:"remaining_items"`
	RemainingCoverQuota int                     `json:"remaining_cover_quota"`
}

type RemainingItem struct {
	Item              models.OrderItem `json:"item"`
	OrderNumber       int              `json:"order_number"`
	PaidQuantity      int              `json:"paid_quantity"`
	RemainingQuantity int              `json:"remaining_quantity"`
}

// RefreshExchange is the fanout exchange refresh events are published to.
const RefreshExchange = "ui_refresh"

const (
	EventOrdersUpdated        = "orders-updated"
	EventTableSessionsUpdated = "table-sessions-updated"
)

// RefreshEvent tells external views to re-fetch.
type RefreshEvent struct {
	Event     string    `json:"event"`
	SessionID uuid.UUID `json:"session_id"`
	TableID   uuid.UUID `json:"table_id"`
	Timestamp time.Time `json:"timestamp"`
}
