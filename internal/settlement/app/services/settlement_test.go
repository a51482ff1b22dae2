package services

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/settlement/domain/models"
	"wheres-my-tab/internal/xpkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 21.00 of food for two guests at 1.50 a cover.
func openDinnerForTwo(t *testing.T, f *fixture) models.TableSession {
	t.Helper()
	s := f.open(t, 0, 2)
	f.order(t, s.ID,
		item("Kebab Classico", "6.00", 2),
		item("Pizza Margherita", "9.00", 1),
	)
	return s
}

func TestCoverOnPartialPaymentThenCoverOff(t *testing.T) {
	f := newFixture(t, "1.50")
	s := openDinnerForTwo(t, f)

	v, err := f.sessions.SetCoverApplied(f.ctx, s.ID, true)
	require.NoError(t, err)
	requireMoney(t, "24.00", v.Session.Total)
	assert.True(t, v.CoverApplied)

	_, err = f.pay(s.ID, "3.00")
	require.NoError(t, err)

	v, err = f.sessions.SetCoverApplied(f.ctx, s.ID, false)
	require.NoError(t, err)
	requireMoney(t, "21.00", v.Session.Total)
	requireMoney(t, "3.00", v.Paid)
	requireMoney(t, "18.00", v.Remaining)
	assert.False(t, v.CoverApplied)
}

func TestCoverOnThenPartialPayment(t *testing.T) {
	f := newFixture(t, "1.50")
	s := openDinnerForTwo(t, f)

	_, err := f.sessions.SetCoverApplied(f.ctx, s.ID, true)
	require.NoError(t, err)

	res, err := f.pay(s.ID, "3.00")
	require.NoError(t, err)
	assert.False(t, res.AutoClosed)
	requireMoney(t, "24.00", res.Session.Total)
	requireMoney(t, "3.00", res.Paid)
	requireMoney(t, "21.00", res.Remaining)
}

func TestPayByConsumption(t *testing.T) {
	f := newFixture(t, "0")
	s := f.open(t, 0, 0)
	f.order(t, s.ID, item("Kebab Classico", "6.00", 2), item("Coca-Cola", "3.00", 1))

	v := f.view(t, s.ID)
	var kebab dto.RemainingItem
	for _, ri := range v.RemainingItems {
		if ri.Item.MenuItemName == "Kebab Classico" {
			kebab = ri
		}
	}
	require.Equal(t, 2, kebab.RemainingQuantity)

	sel := dto.Selection{Items: []dto.SelectedItem{{OrderItemID: kebab.Item.ID, Quantity: 1}}}
	candidate, err := f.payments.Candidate(f.ctx, s.ID, sel)
	require.NoError(t, err)
	requireMoney(t, "6.00", candidate.Amount)
	assert.Equal(t, "1x Kebab Classico", candidate.Description)
	assert.False(t, candidate.Clamped)

	res, err := f.payments.Add(f.ctx, s.ID, candidate.Request(models.MethodCard, false, nil))
	require.NoError(t, err)
	requireMoney(t, "9.00", res.Remaining)

	v = f.view(t, s.ID)
	for _, ri := range v.RemainingItems {
		if ri.Item.ID == kebab.Item.ID {
			assert.Equal(t, 1, ri.RemainingQuantity)
			assert.Equal(t, 1, ri.PaidQuantity)
		}
	}

	sel.Items[0].Quantity = 2
	_, err = f.payments.Candidate(f.ctx, s.ID, sel)
	assert.ErrorIs(t, err, core.ErrSelectionExceedsRemain)

	id := kebab.Item.ID
	_, err = f.pay(s.ID, "6.00", models.PaidItem{OrderItemID: &id, Quantity: 2, MenuItemName: "Kebab Classico", Price: money("6.00")})
	assert.ErrorIs(t, err, core.ErrSelectionExceedsRemain)
}

func TestOverpayRejected(t *testing.T) {
	f := newFixture(t, "0")
	s := openDinnerForTwo(t, f)

	_, err := f.pay(s.ID, "25.00")
	require.ErrorIs(t, err, core.ErrOverpayRejected)

	v := f.view(t, s.ID)
	assert.Empty(t, v.Payments)
	requireMoney(t, "21.00", v.Remaining)
}

func TestCloseZeroTotalNeedsConfirmation(t *testing.T) {
	f := newFixture(t, "0")
	s := f.open(t, 0, 0)

	_, err := f.sessions.Close(f.ctx, s.ID, dto.CloseSessionRequest{})
	require.ErrorIs(t, err, core.ErrConfirmationRequired)

	closed, err := f.sessions.Close(f.ctx, s.ID, dto.CloseSessionRequest{Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, models.SessionClosed, closed.Status)
	assert.Empty(t, closed.ClosingPaymentMethod)
	assert.NotNil(t, closed.ClosedAt)
}

func TestCloseAppliesCoverAndValidatesMethod(t *testing.T) {
	f := newFixture(t, "1.50")
	s := openDinnerForTwo(t, f)

	_, err := f.sessions.Close(f.ctx, s.ID, dto.CloseSessionRequest{Method: "bitcoin", IncludeCover: true})
	require.ErrorIs(t, err, core.ErrInvalidPaymentMethod)
	requireMoney(t, "21.00", f.view(t, s.ID).Session.Total)

	closed, err := f.sessions.Close(f.ctx, s.ID, dto.CloseSessionRequest{Method: models.MethodCard, Smac: true, IncludeCover: true})
	require.NoError(t, err)
	requireMoney(t, "24.00", closed.Total)
	assert.Equal(t, models.MethodCard, closed.ClosingPaymentMethod)
	assert.True(t, closed.ClosingSmac)

	tables, err := f.sessions.Tables(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, tables[0].Status)
}

func TestAutoCloseOnFullSettlement(t *testing.T) {
	f := newFixture(t, "0")
	s := openDinnerForTwo(t, f)

	res, err := f.pay(s.ID, "20.99")
	require.NoError(t, err)
	assert.True(t, res.AutoClosed)
	assert.Equal(t, models.SessionClosed, res.Session.Status)
	assert.Equal(t, models.MethodSplit, res.Session.ClosingPaymentMethod)

	_, err = f.pay(s.ID, "0.01")
	assert.ErrorIs(t, err, core.ErrSessionAlreadyClosed)
	_, err = f.sessions.SetCoverApplied(f.ctx, s.ID, true)
	assert.ErrorIs(t, err, core.ErrSessionAlreadyClosed)
	_, err = f.sessions.Transfer(f.ctx, s.ID, f.tables[1].ID)
	assert.ErrorIs(t, err, core.ErrSessionAlreadyClosed)

	v := f.view(t, s.ID)
	assert.Equal(t, models.SessionClosed, v.Session.Status)

	history, err := f.sessions.History(f.ctx, s.ID)
	require.NoError(t, err)
	actions := []string{}
	for _, e := range history {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{core.LogOpened, core.LogPayment, core.LogAutoClosed}, actions)
}

func TestPaymentValidation(t *testing.T) {
	f := newFixture(t, "0")
	s := openDinnerForTwo(t, f)

	tests := []struct {
		name   string
		req    dto.PaymentRequest
		target error
	}{
		{name: "zero", req: dto.PaymentRequest{Amount: decimal.Zero, Method: "cash"}, target: core.ErrInvalidAmount},
		{name: "negative", req: dto.PaymentRequest{Amount: money("-1"), Method: "cash"}, target: core.ErrInvalidAmount},
		{name: "below a cent", req: dto.PaymentRequest{Amount: money("0.004"), Method: "cash"}, target: core.ErrInvalidAmount},
		{name: "fraction of a cent", req: dto.PaymentRequest{Amount: money("1.005"), Method: "cash"}, target: core.ErrInvalidAmount},
		{name: "method", req: dto.PaymentRequest{Amount: money("1"), Method: "split"}, target: core.ErrInvalidPaymentMethod},
		{name: "overpay", req: dto.PaymentRequest{Amount: money("21.02"), Method: "cash"}, target: core.ErrOverpayRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.payments.Add(f.ctx, s.ID, tt.req)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	res, err := f.pay(s.ID, "21.01")
	require.NoError(t, err, "overpay within tolerance is accepted")
	assert.True(t, res.AutoClosed)
	assert.True(t, res.Remaining.IsZero())
}

func TestConcurrentPaymentsNeverExceedTotal(t *testing.T) {
	f := newFixture(t, "0")
	s := openDinnerForTwo(t, f)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.pay(s.ID, "5.00")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, core.ErrOverpayRejected):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, accepted)
	assert.Equal(t, 6, rejected)

	v := f.view(t, s.ID)
	requireMoney(t, "20.00", v.Paid)
	requireMoney(t, "1.00", v.Remaining)
	assert.True(t, v.Session.IsOpen())
}

func TestCoverToggleRestoresBaseline(t *testing.T) {
	f := newFixture(t, "2.50")
	s := openDinnerForTwo(t, f)

	for i := 0; i < 3; i++ {
		v, err := f.sessions.SetCoverApplied(f.ctx, s.ID, true)
		require.NoError(t, err)
		requireMoney(t, "26.00", v.Session.Total)

		v, err = f.sessions.SetCoverApplied(f.ctx, s.ID, false)
		require.NoError(t, err)
		requireMoney(t, "21.00", v.Session.Total)
		assert.True(t, v.Baseline.Equal(v.Session.Total))
	}
}

func TestCoverIsNoOpWithoutPriceOrGuests(t *testing.T) {
	f := newFixture(t, "0")
	s := openDinnerForTwo(t, f)

	v, err := f.sessions.SetCoverApplied(f.ctx, s.ID, true)
	require.NoError(t, err)
	requireMoney(t, "21.00", v.Session.Total)
	assert.False(t, v.CoverAvailable)

	f2 := newFixture(t, "1.50")
	s2 := f2.open(t, 0, 0)
	v, err = f2.sessions.SetCoverApplied(f2.ctx, s2.ID, true)
	require.NoError(t, err)
	assert.True(t, v.Session.Total.IsZero())
}

func TestCoverCannotBeRemovedOncePaid(t *testing.T) {
	f := newFixture(t, "1.50")
	s := openDinnerForTwo(t, f)

	v, err := f.sessions.SetCoverApplied(f.ctx, s.ID, true)
	require.NoError(t, err)
	require.Equal(t, 2, v.RemainingCoverQuota)

	candidate, err := f.payments.Candidate(f.ctx, s.ID, dto.Selection{CoverQuantity: 1})
	require.NoError(t, err)
	requireMoney(t, "1.50", candidate.Amount)
	assert.Equal(t, "1x Coperto", candidate.Description)

	_, err = f.payments.Add(f.ctx, s.ID, candidate.Request(models.MethodCash, false, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, f.view(t, s.ID).RemainingCoverQuota)

	_, err = f.sessions.SetCoverApplied(f.ctx, s.ID, false)
	assert.ErrorIs(t, err, core.ErrCoverAlreadyPaid)
	_, err = f.sessions.Close(f.ctx, s.ID, dto.CloseSessionRequest{Method: "cash"})
	assert.ErrorIs(t, err, core.ErrCoverAlreadyPaid)

	_, err = f.pay(s.ID, "3.00", models.PaidItem{Quantity: 2, MenuItemName: "Coperto", Price: money("1.50")})
	assert.ErrorIs(t, err, core.ErrSelectionExceedsRemain)
}

func TestOpenSession(t *testing.T) {
	f := newFixture(t, "0")
	s := f.open(t, 0, 3)
	assert.Equal(t, models.SessionOpen, s.Status)
	assert.True(t, s.Total.IsZero())

	_, err := f.sessions.Open(f.ctx, dto.OpenSessionRequest{TableID: f.tables[0].ID})
	assert.ErrorIs(t, err, core.ErrTableAlreadyOpen)

	_, err = f.sessions.Open(f.ctx, dto.OpenSessionRequest{TableID: f.tables[1].ID, Covers: -1})
	assert.ErrorIs(t, err, core.ErrInvalidCovers)

	_, err = f.sessions.Open(f.ctx, dto.OpenSessionRequest{TableID: models.Table{}.ID})
	assert.ErrorIs(t, err, core.ErrTableNotFound)

	tables, err := f.sessions.Tables(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, tables[0].Status)
	assert.Equal(t, models.TableAvailable, tables[1].Status)

	open, err := f.sessions.List(f.ctx, models.SessionOpen)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	_, err = f.sessions.List(f.ctx, "pending")
	assert.Error(t, err)
}

func TestTransferSession(t *testing.T) {
	f := newFixture(t, "0")
	s := openDinnerForTwo(t, f)
	other := f.open(t, 1, 2)

	_, err := f.sessions.Transfer(f.ctx, s.ID, f.tables[1].ID)
	assert.ErrorIs(t, err, core.ErrDestinationOccupied)
	_, err = f.sessions.Transfer(f.ctx, s.ID, f.tables[0].ID)
	assert.ErrorIs(t, err, core.ErrDestinationOccupied)

	moved, err := f.sessions.Transfer(f.ctx, s.ID, f.tables[2].ID)
	require.NoError(t, err)
	assert.Equal(t, f.tables[2].ID, moved.TableID)
	requireMoney(t, "21.00", moved.Total)

	tables, err := f.sessions.Tables(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, tables[0].Status)
	assert.Equal(t, models.TableOccupied, tables[2].Status)

	_, err = f.sessions.Open(f.ctx, dto.OpenSessionRequest{TableID: f.tables[0].ID})
	assert.NoError(t, err)
	assert.True(t, f.view(t, other.ID).Session.IsOpen())
}

func TestOverrideTotal(t *testing.T) {
	f := newFixture(t, "0")
	s := openDinnerForTwo(t, f)
	_, err := f.pay(s.ID, "10.00")
	require.NoError(t, err)

	_, err = f.sessions.OverrideTotal(f.ctx, s.ID, dto.OverrideTotalRequest{Total: money("30")})
	assert.ErrorIs(t, err, core.ErrReasonRequired)
	_, err = f.sessions.OverrideTotal(f.ctx, s.ID, dto.OverrideTotalRequest{Total: money("-1"), Reason: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = f.sessions.OverrideTotal(f.ctx, s.ID, dto.OverrideTotalRequest{Total: money("18.005"), Reason: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = f.sessions.OverrideTotal(f.ctx, s.ID, dto.OverrideTotalRequest{Total: money("9.00"), Reason: "discount"})
	assert.ErrorIs(t, err, core.ErrTotalBelowPaid)

	updated, err := f.sessions.OverrideTotal(f.ctx, s.ID, dto.OverrideTotalRequest{Total: money("18.00"), Reason: "house discount"})
	require.NoError(t, err)
	requireMoney(t, "18.00", updated.Total)
	requireMoney(t, "8.00", f.view(t, s.ID).Remaining)
}

func TestDeleteSessionCascades(t *testing.T) {
	f := newFixture(t, "0")
	s := openDinnerForTwo(t, f)
	res, err := f.pay(s.ID, "5.00")
	require.NoError(t, err)

	require.NoError(t, f.sessions.Delete(f.ctx, s.ID))

	_, err = f.sessions.Get(f.ctx, s.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	_, err = f.payments.Get(f.ctx, res.Payment.ID)
	assert.ErrorIs(t, err, core.ErrPaymentNotFound)

	tables, err := f.sessions.Tables(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, tables[0].Status)
	assert.ErrorIs(t, f.sessions.Delete(f.ctx, s.ID), core.ErrSessionNotFound)
}

func TestDeleteSessionIsLogged(t *testing.T) {
	f := newFixture(t, "0")
	s := openDinnerForTwo(t, f)

	var buf bytes.Buffer
	mylog, err := logger.NewWithOptions(logger.Options{Level: "INFO", Format: "json", Output: &buf})
	require.NoError(t, err)
	sessions := NewSessionService(f.store, f.settings, f.bus, mylog, Options{})

	require.NoError(t, sessions.Delete(f.ctx, s.ID))

	out := buf.String()
	assert.Contains(t, out, `"action":"delete_session"`)
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, s.ID.String())
	assert.Contains(t, out, s.TableID.String())
}

func TestRefreshEventsFollowWrites(t *testing.T) {
	f := newFixture(t, "0")
	s := f.open(t, 0, 0)
	f.order(t, s.ID, item("Tiramisù", "5.00", 1))
	_, err := f.pay(s.ID, "5.00")
	require.NoError(t, err)

	assert.Equal(t, []string{
		dto.EventTableSessionsUpdated,
		dto.EventOrdersUpdated,
		dto.EventTableSessionsUpdated,
		dto.EventTableSessionsUpdated,
	}, f.bus.names())

	_, err = f.pay(s.ID, "1.00")
	require.Error(t, err)
	assert.Len(t, f.bus.names(), 4, "failed writes publish nothing")
}

func TestPublishFailureKeepsWrite(t *testing.T) {
	f := newFixture(t, "0")
	f.bus.err = errors.New("broker down")

	s := f.open(t, 0, 0)
	assert.True(t, f.view(t, s.ID).Session.IsOpen())
}

func TestSettingsFailure(t *testing.T) {
	f := newFixture(t, "1.50")
	s := openDinnerForTwo(t, f)
	_, err := f.sessions.SetCoverApplied(f.ctx, s.ID, true)
	require.NoError(t, err)

	f.settings.err = errors.New("settings unavailable")

	v := f.view(t, s.ID)
	assert.False(t, v.CoverApplied, "inference degrades to not applied")
	assert.Zero(t, v.RemainingCoverQuota)
	requireMoney(t, "24.00", v.Session.Total)

	_, err = f.sessions.SetCoverApplied(f.ctx, s.ID, false)
	assert.Error(t, err)
	requireMoney(t, "24.00", f.view(t, s.ID).Session.Total)
}

func TestReceipt(t *testing.T) {
	f := newFixture(t, "0")
	s := f.open(t, 0, 0)
	f.order(t, s.ID, item("Kebab Classico", "6.00", 2))

	res, err := f.pay(s.ID, "4.00")
	require.NoError(t, err)

	receipt, err := f.payments.Receipt(f.ctx, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trattoria da Mario", receipt.Shop.Name)
	require.Len(t, receipt.Items, 1)
	assert.Equal(t, "Partial payment", receipt.Items[0].Name)
	requireMoney(t, "4.00", receipt.Total)
	assert.Equal(t, res.Payment.PaidAt, receipt.PaidAt)

	_, err = f.payments.Receipt(f.ctx, s.ID)
	assert.ErrorIs(t, err, core.ErrPaymentNotFound)
}
