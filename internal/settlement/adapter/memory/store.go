// Package memory is a process-local store. One mutex guards all data, and a
// transaction works on a private copy that replaces the shared one only when
// the closure succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
)

type itemRow struct {
	item models.OrderItem
	seq  int64
}

type paymentRow struct {
	payment models.SessionPayment
	seq     int64
}

type state struct {
	tables   map[uuid.UUID]models.Table
	sessions map[uuid.UUID]models.TableSession
	orders   map[uuid.UUID]models.Order
	items    map[uuid.UUID]itemRow
	payments map[uuid.UUID]paymentRow
	logs     []models.SessionLogEntry
	seq      int64
}

func newState() *state {
	return &state{
		tables:   make(map[uuid.UUID]models.Table),
		sessions: make(map[uuid.UUID]models.TableSession),
		orders:   make(map[uuid.UUID]models.Order),
		items:    make(map[uuid.UUID]itemRow),
		payments: make(map[uuid.UUID]paymentRow),
	}
}

func (st *state) clone() *state {
	c := &state{
		tables:   make(map[uuid.UUID]models.Table, len(st.tables)),
		sessions: make(map[uuid.UUID]models.TableSession, len(st.sessions)),
		orders:   make(map[uuid.UUID]models.Order, len(st.orders)),
		items:    make(map[uuid.UUID]itemRow, len(st.items)),
		payments: make(map[uuid.UUID]paymentRow, len(st.payments)),
		logs:     append([]models.SessionLogEntry(nil), st.logs...),
		seq:      st.seq,
	}
	for k, v := range st.tables {
		c.tables[k] = v
	}
	for k, v := range st.sessions {
		c.sessions[k] = v
	}
	for k, v := range st.orders {
		c.orders[k] = v
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	// paid items are never mutated after append, sharing them is safe
	for k, v := range st.payments {
		c.payments[k] = v
	}
	return c
}

func (st *state) next() int64 {
	st.seq++
	return st.seq
}

type Store struct {
	mu    sync.Mutex
	state *state
}

// New returns an empty store holding the given tables.
func New(tables ...models.Table) *Store {
	st := newState()
	for _, t := range tables {
		if t.Status == "" {
			t.Status = models.TableAvailable
		}
		st.tables[t.ID] = t
	}
	return &Store{state: st}
}

// Repos returns repositories that lock the store on every call.
func (s *Store) Repos() core.Repos {
	return reposFor(&access{store: s})
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r core.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := s.state.clone()
	if err := fn(ctx, reposFor(&access{tx: tx})); err != nil {
		return err
	}
	s.state = tx
	return nil
}

func (s *Store) IsAlive(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

// access hands a repository the data it works on: the transaction copy, or
// the shared state under the store lock.
type access struct {
	store *Store
	tx    *state
}

func (a *access) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.tx != nil {
		return fn(a.tx)
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(a.store.state)
}

func reposFor(a *access) core.Repos {
	return core.Repos{
		Sessions: &SessionRepo{a: a},
		Orders:   &OrderRepo{a: a},
		Payments: &PaymentRepo{a: a},
		Tables:   &TableRepo{a: a},
	}
}

func (st *state) orderWithItems(o models.Order) models.Order {
	rows := []itemRow{}
	for _, row := range st.items {
		if row.item.OrderID == o.ID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	o.Items = make([]models.OrderItem, 0, len(rows))
	for _, row := range rows {
		o.Items = append(o.Items, row.item)
	}
	return o
}

// DiningRoom returns n available tables numbered from 1. IDs are derived from
// the number, so they are stable across restarts.
func DiningRoom(n int) []models.Table {
	tables := make([]models.Table, 0, n)
	for i := 1; i <= n; i++ {
		tables = append(tables, models.Table{
			ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("wheres-my-tab/table/%d", i))),
			Number: i,
			Name:   fmt.Sprintf("Table %d", i),
			Status: models.TableAvailable,
		})
	}
	return tables
}
