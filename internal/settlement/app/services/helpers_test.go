package services

import (
	"context"
	"sync"
	"testing"

	"wheres-my-tab/internal/settlement/adapter/memory"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/settlement/domain/models"
	"wheres-my-tab/internal/xpkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, money(want).Equal(got), "want %s, got %s", want, got.StringFixed(2))
}

type recordingBus struct {
	mu     sync.Mutex
	events []dto.RefreshEvent
	err    error
}

func (b *recordingBus) Publish(_ context.Context, e dto.RefreshEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return b.err
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.events))
	for _, e := range b.events {
		names = append(names, e.Event)
	}
	return names
}

type fixedSettings struct {
	price decimal.Decimal
	err   error
}

func (s *fixedSettings) CoverUnitPrice(context.Context) (decimal.Decimal, error) {
	return s.price, s.err
}

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	bus      *recordingBus
	settings *fixedSettings
	tables   []models.Table
	sessions *SessionService
	payments *PaymentService
	orders   *OrderService
}

func newFixture(t *testing.T, coverPrice string) *fixture {
	t.Helper()

	tables := memory.DiningRoom(4)
	f := &fixture{
		ctx:      context.Background(),
		store:    memory.New(tables...),
		bus:      &recordingBus{},
		settings: &fixedSettings{price: money(coverPrice)},
		tables:   tables,
	}
	opts := Options{Shop: models.ShopInfo{Name: "Trattoria da Mario"}}
	log := logger.Discard()
	f.sessions = NewSessionService(f.store, f.settings, f.bus, log, opts)
	f.payments = NewPaymentService(f.store, f.settings, f.bus, log, opts)
	f.orders = NewOrderService(f.store, f.settings, f.bus, log, opts)
	return f
}

func (f *fixture) open(t *testing.T, table, covers int) models.TableSession {
	t.Helper()
	s, err := f.sessions.Open(f.ctx, dto.OpenSessionRequest{TableID: f.tables[table].ID, Covers: covers})
	require.NoError(t, err)
	return s
}

func (f *fixture) order(t *testing.T, sessionID uuid.UUID, items ...dto.ItemRequest) models.Order {
	t.Helper()
	o, err := f.orders.Create(f.ctx, sessionID, dto.CreateOrderRequest{Items: items})
	require.NoError(t, err)
	return o
}

func (f *fixture) view(t *testing.T, sessionID uuid.UUID) dto.SessionView {
	t.Helper()
	v, err := f.sessions.Get(f.ctx, sessionID)
	require.NoError(t, err)
	return v
}

func (f *fixture) pay(sessionID uuid.UUID, amount string, paidItems ...models.PaidItem) (dto.PaymentResult, error) {
	return f.payments.Add(f.ctx, sessionID, dto.PaymentRequest{
		Amount:    money(amount),
		Method:    models.MethodCash,
		PaidItems: paidItems,
	})
}

func item(name, price string, qty int) dto.ItemRequest {
	return dto.ItemRequest{MenuItemName: name, Price: money(price), Quantity: qty}
}
