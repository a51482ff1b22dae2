package memory

import (
	"context"
	"sort"
	"time"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SessionRepo struct {
	a *access
}

func (sr *SessionRepo) Get(ctx context.Context, id uuid.UUID) (models.TableSession, error) {
	var session models.TableSession
	err := sr.a.do(ctx, func(st *state) error {
		s, ok := st.sessions[id]
		if !ok {
			return core.ErrSessionNotFound
		}
		session = s
		return nil
	})
	return session, err
}

// GetForUpdate is Get: inside WithinTx the whole store is already held.
func (sr *SessionRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (models.TableSession, error) {
	return sr.Get(ctx, id)
}

func (sr *SessionRepo) GetOpenByTable(ctx context.Context, tableID uuid.UUID) (models.TableSession, error) {
	var session models.TableSession
	err := sr.a.do(ctx, func(st *state) error {
		for _, s := range st.sessions {
			if s.TableID == tableID && s.IsOpen() {
				session = s
				return nil
			}
		}
		return core.ErrSessionNotFound
	})
	return session, err
}

func (sr *SessionRepo) List(ctx context.Context, status string) ([]models.TableSession, error) {
	sessions := []models.TableSession{}
	err := sr.a.do(ctx, func(st *state) error {
		for _, s := range st.sessions {
			if status == "" || s.Status == status {
				sessions = append(sessions, s)
			}
		}
		return nil
	})
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].OpenedAt.After(sessions[j].OpenedAt)
	})
	return sessions, err
}

func (sr *SessionRepo) Create(ctx context.Context, s models.TableSession) error {
	return sr.a.do(ctx, func(st *state) error {
		for _, other := range st.sessions {
			if other.TableID == s.TableID && other.IsOpen() && s.IsOpen() {
				return core.ErrTableAlreadyOpen
			}
		}
		st.sessions[s.ID] = s
		return nil
	})
}

func (sr *SessionRepo) update(ctx context.Context, id uuid.UUID, fn func(s *models.TableSession)) error {
	return sr.a.do(ctx, func(st *state) error {
		s, ok := st.sessions[id]
		if !ok {
			return core.ErrSessionNotFound
		}
		fn(&s)
		st.sessions[id] = s
		return nil
	})
}

func (sr *SessionRepo) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return sr.update(ctx, id, func(s *models.TableSession) { s.Total = total })
}

func (sr *SessionRepo) UpdateTable(ctx context.Context, id, tableID uuid.UUID) error {
	return sr.update(ctx, id, func(s *models.TableSession) { s.TableID = tableID })
}

func (sr *SessionRepo) Close(ctx context.Context, id uuid.UUID, method string, smac bool, closedAt time.Time) error {
	return sr.update(ctx, id, func(s *models.TableSession) {
		s.Status = models.SessionClosed
		s.ClosedAt = &closedAt
		s.ClosingPaymentMethod = method
		s.ClosingSmac = smac
	})
}

func (sr *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return sr.a.do(ctx, func(st *state) error {
		if _, ok := st.sessions[id]; !ok {
			return core.ErrSessionNotFound
		}
		delete(st.sessions, id)

		for oid, o := range st.orders {
			if o.SessionID == nil || *o.SessionID != id {
				continue
			}
			for iid, row := range st.items {
				if row.item.OrderID == oid {
					delete(st.items, iid)
				}
			}
			delete(st.orders, oid)
		}
		for pid, row := range st.payments {
			if row.payment.SessionID == id {
				delete(st.payments, pid)
			}
		}
		logs := st.logs[:0:0]
		for _, e := range st.logs {
			if e.SessionID != id {
				logs = append(logs, e)
			}
		}
		st.logs = logs
		return nil
	})
}

func (sr *SessionRepo) AppendLog(ctx context.Context, entry models.SessionLogEntry) error {
	return sr.a.do(ctx, func(st *state) error {
		st.logs = append(st.logs, entry)
		return nil
	})
}

func (sr *SessionRepo) History(ctx context.Context, id uuid.UUID) ([]models.SessionLogEntry, error) {
	entries := []models.SessionLogEntry{}
	err := sr.a.do(ctx, func(st *state) error {
		for _, e := range st.logs {
			if e.SessionID == id {
				entries = append(entries, e)
			}
		}
		return nil
	})
	return entries, err
}

type OrderRepo struct {
	a *access
}

func (or *OrderRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error) {
	orders := []models.Order{}
	err := or.a.do(ctx, func(st *state) error {
		for _, o := range st.orders {
			if o.SessionID != nil && *o.SessionID == sessionID {
				orders = append(orders, st.orderWithItems(o))
			}
		}
		return nil
	})
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderNumber < orders[j].OrderNumber })
	return orders, err
}

func (or *OrderRepo) Get(ctx context.Context, id uuid.UUID) (models.Order, error) {
	var order models.Order
	err := or.a.do(ctx, func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return core.ErrOrderNotFound
		}
		order = st.orderWithItems(o)
		return nil
	})
	return order, err
}

func (or *OrderRepo) GetItem(ctx context.Context, itemID uuid.UUID) (models.OrderItem, error) {
	var item models.OrderItem
	err := or.a.do(ctx, func(st *state) error {
		row, ok := st.items[itemID]
		if !ok {
			return core.ErrItemNotFound
		}
		item = row.item
		return nil
	})
	return item, err
}

func (or *OrderRepo) NextOrderNumber(ctx context.Context, sessionID uuid.UUID) (int, error) {
	number := 0
	err := or.a.do(ctx, func(st *state) error {
		for _, o := range st.orders {
			if o.SessionID != nil && *o.SessionID == sessionID && o.OrderNumber > number {
				number = o.OrderNumber
			}
		}
		return nil
	})
	return number + 1, err
}

func (or *OrderRepo) Create(ctx context.Context, order models.Order) error {
	return or.a.do(ctx, func(st *state) error {
		order.Items = nil
		st.orders[order.ID] = order
		return nil
	})
}

func (or *OrderRepo) AddItem(ctx context.Context, item models.OrderItem) error {
	return or.a.do(ctx, func(st *state) error {
		if _, ok := st.orders[item.OrderID]; !ok {
			return core.ErrOrderNotFound
		}
		st.items[item.ID] = itemRow{item: item, seq: st.next()}
		return nil
	})
}

func (or *OrderRepo) UpdateItem(ctx context.Context, item models.OrderItem) error {
	return or.a.do(ctx, func(st *state) error {
		row, ok := st.items[item.ID]
		if !ok {
			return core.ErrItemNotFound
		}
		row.item = item
		st.items[item.ID] = row
		return nil
	})
}

func (or *OrderRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return or.a.do(ctx, func(st *state) error {
		if _, ok := st.items[itemID]; !ok {
			return core.ErrItemNotFound
		}
		delete(st.items, itemID)
		return nil
	})
}

func (or *OrderRepo) UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error {
	return or.a.do(ctx, func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return core.ErrOrderNotFound
		}
		o.Total = total
		st.orders[orderID] = o
		return nil
	})
}

type PaymentRepo struct {
	a *access
}

func (pr *PaymentRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.SessionPayment, error) {
	rows := []paymentRow{}
	err := pr.a.do(ctx, func(st *state) error {
		for _, row := range st.payments {
			if row.payment.SessionID == sessionID {
				rows = append(rows, row)
			}
		}
		return nil
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	payments := make([]models.SessionPayment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.payment)
	}
	return payments, err
}

func (pr *PaymentRepo) Get(ctx context.Context, id uuid.UUID) (models.SessionPayment, error) {
	var payment models.SessionPayment
	err := pr.a.do(ctx, func(st *state) error {
		row, ok := st.payments[id]
		if !ok {
			return core.ErrPaymentNotFound
		}
		payment = row.payment
		return nil
	})
	return payment, err
}

func (pr *PaymentRepo) Append(ctx context.Context, payment models.SessionPayment) error {
	return pr.a.do(ctx, func(st *state) error {
		if _, ok := st.sessions[payment.SessionID]; !ok {
			return core.ErrSessionNotFound
		}
		payment.PaidItems = append([]models.PaidItem{}, payment.PaidItems...)
		st.payments[payment.ID] = paymentRow{payment: payment, seq: st.next()}
		return nil
	})
}

type TableRepo struct {
	a *access
}

func (tr *TableRepo) List(ctx context.Context) ([]models.Table, error) {
	tables := []models.Table{}
	err := tr.a.do(ctx, func(st *state) error {
		for _, t := range st.tables {
			tables = append(tables, t)
		}
		return nil
	})
	sort.Slice(tables, func(i, j int) bool { return tables[i].Number < tables[j].Number })
	return tables, err
}

func (tr *TableRepo) Get(ctx context.Context, id uuid.UUID) (models.Table, error) {
	var table models.Table
	err := tr.a.do(ctx, func(st *state) error {
		t, ok := st.tables[id]
		if !ok {
			return core.ErrTableNotFound
		}
		table = t
		return nil
	})
	return table, err
}

func (tr *TableRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (models.Table, error) {
	return tr.Get(ctx, id)
}

func (tr *TableRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return tr.a.do(ctx, func(st *state) error {
		t, ok := st.tables[id]
		if !ok {
			return core.ErrTableNotFound
		}
		t.Status = status
		st.tables[id] = t
		return nil
	})
}
