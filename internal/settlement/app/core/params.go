package core

import (
	"github.com/shopspring/decimal"
)

type SettlementParams struct {
	Port  int
	Store string
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const (
	// in seconds for db response
	WaitTime = 20

	DefaultPort = 3001

	// ChangedBy is written to the session audit log.
	ChangedBy = "settlement-service"
)

// Epsilon is the tolerance for every money comparison: one cent.
var Epsilon = decimal.New(1, -2)

var AllowedPaymentMethods = map[string]bool{
	"cash":   true,
	"card":   true,
	"online": true,
}

var AllowedStores = map[string]bool{
	StorePostgres: true,
	StoreMemory:   true,
}

// Audit log actions.
const (
	LogOpened        = "opened"
	LogClosed        = "closed"
	LogAutoClosed    = "auto_closed"
	LogTransferred   = "transferred"
	LogCoverApplied  = "cover_applied"
	LogCoverRemoved  = "cover_removed"
	LogTotalOverride = "total_override"
	LogPayment       = "payment"
)
