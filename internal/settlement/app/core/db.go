package core

import (
	"context"
	"time"

	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ISessionRepo interface {
	Get(ctx context.Context, id uuid.UUID) (models.TableSession, error)
	// GetForUpdate reads the session and holds it until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (models.TableSession, error)
	GetOpenByTable(ctx context.Context, tableID uuid.UUID) (models.TableSession, error)
	List(ctx context.Context, status string) ([]models.TableSession, error)
	Create(ctx context.Context, s models.TableSession) error
	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	UpdateTable(ctx context.Context, id, tableID uuid.UUID) error
	Close(ctx context.Context, id uuid.UUID, method string, smac bool, closedAt time.Time) error
	// Delete removes the session with its orders, items and payments.
	Delete(ctx context.Context, id uuid.UUID) error

	AppendLog(ctx context.Context, entry models.SessionLogEntry) error
	History(ctx context.Context, id uuid.UUID) ([]models.SessionLogEntry, error)
}

type IOrderRepo interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (models.Order, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (models.OrderItem, error)
	NextOrderNumber(ctx context.Context, sessionID uuid.UUID) (int, error)
	Create(ctx context.Context, order models.Order) error
	AddItem(ctx context.Context, item models.OrderItem) error
	UpdateItem(ctx context.Context, item models.OrderItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error
}

// IPaymentRepo is append-only.
type IPaymentRepo interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.SessionPayment, error)
	Get(ctx context.Context, id uuid.UUID) (models.SessionPayment, error)
	Append(ctx context.Context, payment models.SessionPayment) error
}

type ITableRepo interface {
	List(ctx context.Context) ([]models.Table, error)
	Get(ctx context.Context, id uuid.UUID) (models.Table, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (models.Table, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Sessions ISessionRepo
	Orders   IOrderRepo
	Payments IPaymentRepo
	Tables   ITableRepo
}

type IStore interface {
	Repos() Repos
	// WithinTx runs fn in one transaction. Nothing fn wrote survives an error.
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	IsAlive(ctx context.Context) error
	Close() error
}

type ISettings interface {
	CoverUnitPrice(ctx context.Context) (decimal.Decimal, error)
}
