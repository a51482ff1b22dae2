package services

import (
	"testing"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderRecomputesTotals(t *testing.T) {
	f := newFixture(t, "0")
	s := f.open(t, 0, 0)

	first := f.order(t, s.ID, item("Bruschetta", "4.50", 2))
	second := f.order(t, s.ID, item("Lasagna", "11.00", 1), item("Acqua", "1.50", 2))

	assert.Equal(t, 1, first.OrderNumber)
	assert.Equal(t, 2, second.OrderNumber)
	requireMoney(t, "9.00", first.Total)
	requireMoney(t, "14.00", second.Total)

	v := f.view(t, s.ID)
	requireMoney(t, "23.00", v.Baseline)
	requireMoney(t, "23.00", v.Session.Total)
	assert.Len(t, v.Orders, 2)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t, "0")
	s := f.open(t, 0, 0)

	tests := []struct {
		name   string
		req    dto.CreateOrderRequest
		target error
	}{
		{name: "no items", req: dto.CreateOrderRequest{}, target: core.ErrFieldIsEmpty},
		{name: "no name", req: dto.CreateOrderRequest{Items: []dto.ItemRequest{item(" ", "1", 1)}}, target: core.ErrFieldIsEmpty},
		{name: "zero quantity", req: dto.CreateOrderRequest{Items: []dto.ItemRequest{item("Acqua", "1", 0)}}, target: core.ErrInvalidQuantity},
		{name: "negative price", req: dto.CreateOrderRequest{Items: []dto.ItemRequest{item("Acqua", "-1", 1)}}, target: core.ErrInvalidPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.Create(f.ctx, s.ID, tt.req)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestItemMutationsKeepAppliedCover(t *testing.T) {
	f := newFixture(t, "1.50")
	s := f.open(t, 0, 2)
	o := f.order(t, s.ID, item("Kebab Classico", "6.00", 2))

	_, err := f.sessions.SetCoverApplied(f.ctx, s.ID, true)
	require.NoError(t, err)
	requireMoney(t, "15.00", f.view(t, s.ID).Session.Total)

	added, err := f.orders.AddItem(f.ctx, o.ID, item("Birra", "4.00", 1))
	require.NoError(t, err)
	v := f.view(t, s.ID)
	requireMoney(t, "19.00", v.Session.Total)
	assert.True(t, v.CoverApplied)

	qty := 3
	_, err = f.orders.UpdateItem(f.ctx, added.ID, dto.UpdateItemRequest{Quantity: &qty})
	require.NoError(t, err)
	requireMoney(t, "27.00", f.view(t, s.ID).Session.Total)

	require.NoError(t, f.orders.RemoveItem(f.ctx, added.ID))
	v = f.view(t, s.ID)
	requireMoney(t, "15.00", v.Session.Total)
	requireMoney(t, "12.00", v.Orders[0].Total)
}

func TestItemMutationsWithoutCover(t *testing.T) {
	f := newFixture(t, "1.50")
	s := f.open(t, 0, 2)
	o := f.order(t, s.ID, item("Kebab Classico", "6.00", 2))

	_, err := f.orders.AddItem(f.ctx, o.ID, item("Birra", "4.00", 1))
	require.NoError(t, err)
	v := f.view(t, s.ID)
	requireMoney(t, "16.00", v.Session.Total)
	assert.False(t, v.CoverApplied)
}

func TestPaidItemsCannotShrink(t *testing.T) {
	f := newFixture(t, "0")
	s := f.open(t, 0, 0)
	o := f.order(t, s.ID, item("Kebab Classico", "6.00", 3), item("Acqua", "1.50", 1))
	kebab := o.Items[0]

	id := kebab.ID
	_, err := f.pay(s.ID, "12.00", models.PaidItem{OrderItemID: &id, Quantity: 2, MenuItemName: kebab.MenuItemName, Price: kebab.Price})
	require.NoError(t, err)

	one := 1
	_, err = f.orders.UpdateItem(f.ctx, kebab.ID, dto.UpdateItemRequest{Quantity: &one})
	assert.ErrorIs(t, err, core.ErrItemAlreadyPaid)
	assert.ErrorIs(t, f.orders.RemoveItem(f.ctx, kebab.ID), core.ErrItemAlreadyPaid)

	two := 2
	updated, err := f.orders.UpdateItem(f.ctx, kebab.ID, dto.UpdateItemRequest{Quantity: &two})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Quantity)

	require.NoError(t, f.orders.RemoveItem(f.ctx, o.Items[1].ID))
	v := f.view(t, s.ID)
	requireMoney(t, "12.00", v.Session.Total)
	assert.Empty(t, v.RemainingItems)
}

func TestItemMutationsOnClosedSession(t *testing.T) {
	f := newFixture(t, "0")
	s := f.open(t, 0, 0)
	o := f.order(t, s.ID, item("Caffè", "1.20", 1))

	_, err := f.pay(s.ID, "1.20")
	require.NoError(t, err)

	_, err = f.orders.AddItem(f.ctx, o.ID, item("Amaro", "3.00", 1))
	assert.ErrorIs(t, err, core.ErrSessionAlreadyClosed)
	_, err = f.orders.Create(f.ctx, s.ID, dto.CreateOrderRequest{Items: []dto.ItemRequest{item("Amaro", "3.00", 1)}})
	assert.ErrorIs(t, err, core.ErrSessionAlreadyClosed)

	notes := "decaf"
	_, err = f.orders.UpdateItem(f.ctx, o.Items[0].ID, dto.UpdateItemRequest{Notes: &notes})
	assert.ErrorIs(t, err, core.ErrSessionAlreadyClosed)
}

func TestItemNotFound(t *testing.T) {
	f := newFixture(t, "0")
	s := f.open(t, 0, 0)

	err := f.orders.RemoveItem(f.ctx, s.ID)
	assert.ErrorIs(t, err, core.ErrItemNotFound)
	_, err = f.orders.AddItem(f.ctx, s.ID, item("Acqua", "1", 1))
	assert.ErrorIs(t, err, core.ErrOrderNotFound)
}
