package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

const (
	TableAvailable = "available"
	TableReserved  = "reserved"
	TableOccupied  = "occupied"
)

// TableSession is one tab at a table. Total is authoritative and only ever
// written by the settlement services.
type TableSession struct {
	ID            uuid.UUID       `json:"id"`
	TableID       uuid.UUID       `json:"table_id"`
	Status        string          `json:"status"`
	Covers        int             `json:"covers"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	Total         decimal.Decimal `json:"total"`
	OpenedAt      time.Time       `json:"opened_at"`
	ClosedAt      *time.Time      `json:"closed_at,omitempty"`

	ClosingPaymentMethod string `json:"closing_payment_method,omitempty"`
	ClosingSmac          bool   `json:"closing_smac_flag"`
}

func (s TableSession) IsOpen() bool {
	return s.Status == SessionOpen
}

type Table struct {
	ID     uuid.UUID `json:"id"`
	Number int       `json:"number"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
}

// SessionLogEntry is one audit record of a session state change.
type SessionLogEntry struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Action    string    `json:"action"`
	ChangedBy string    `json:"changed_by"`
	Note      string    `json:"note,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}
