package db

import (
	"context"
	"fmt"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderRepo struct {
	q querier
}

func (or *OrderRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error) {
	q := `SELECT id, session_id, order_number, total, status, created_at
		FROM orders WHERE session_id = $1 ORDER BY order_number`

	rows, err := or.q.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.SessionID, &o.OrderNumber, &o.Total, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Items = []models.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	q = `SELECT i.id, i.order_id, i.menu_item_name, i.price, i.quantity, i.notes
		FROM order_items i JOIN orders o ON o.id = i.order_id
		WHERE o.session_id = $1 ORDER BY i.seq`
	items, err := or.queryItems(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders, nil
}

func (or *OrderRepo) Get(ctx context.Context, id uuid.UUID) (models.Order, error) {
	q := `SELECT id, session_id, order_number, total, status, created_at FROM orders WHERE id = $1`

	var o models.Order
	err := or.q.QueryRow(ctx, q, id).Scan(&o.ID, &o.SessionID, &o.OrderNumber, &o.Total, &o.Status, &o.CreatedAt)
	if err != nil {
		return models.Order{}, notFound(err, core.ErrOrderNotFound)
	}

	o.Items, err = or.queryItems(ctx, `SELECT id, order_id, menu_item_name, price, quantity, notes
		FROM order_items WHERE order_id = $1 ORDER BY seq`, id)
	if err != nil {
		return models.Order{}, err
	}
	return o, nil
}

func (or *OrderRepo) queryItems(ctx context.Context, q string, arg uuid.UUID) ([]models.OrderItem, error) {
	rows, err := or.q.Query(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemName, &it.Price, &it.Quantity, &it.Notes); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (or *OrderRepo) GetItem(ctx context.Context, itemID uuid.UUID) (models.OrderItem, error) {
	q := `SELECT id, order_id, menu_item_name, price, quantity, notes FROM order_items WHERE id = $1`

	var it models.OrderItem
	err := or.q.QueryRow(ctx, q, itemID).Scan(&it.ID, &it.OrderID, &it.MenuItemName, &it.Price, &it.Quantity, &it.Notes)
	if err != nil {
		return models.OrderItem{}, notFound(err, core.ErrItemNotFound)
	}
	return it, nil
}

func (or *OrderRepo) NextOrderNumber(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var number int
	q := `SELECT COALESCE(MAX(order_number), 0) + 1 FROM orders WHERE session_id = $1`
	if err := or.q.QueryRow(ctx, q, sessionID).Scan(&number); err != nil {
		return 0, fmt.Errorf("next order number: %w", err)
	}
	return number, nil
}

func (or *OrderRepo) Create(ctx context.Context, o models.Order) error {
	q := `INSERT INTO orders (id, session_id, order_number, total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := or.q.Exec(ctx, q, o.ID, o.SessionID, o.OrderNumber, o.Total, o.Status, o.CreatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (or *OrderRepo) AddItem(ctx context.Context, it models.OrderItem) error {
	q := `INSERT INTO order_items (id, order_id, menu_item_name, price, quantity, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := or.q.Exec(ctx, q, it.ID, it.OrderID, it.MenuItemName, it.Price, it.Quantity, it.Notes); err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (or *OrderRepo) UpdateItem(ctx context.Context, it models.OrderItem) error {
	q := `UPDATE order_items SET quantity = $2, notes = $3 WHERE id = $1`
	tag, err := or.q.Exec(ctx, q, it.ID, it.Quantity, it.Notes)
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrItemNotFound
	}
	return nil
}

func (or *OrderRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	tag, err := or.q.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrItemNotFound
	}
	return nil
}

func (or *OrderRepo) UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error {
	tag, err := or.q.Exec(ctx, `UPDATE orders SET total = $2 WHERE id = $1`, orderID, total)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrOrderNotFound
	}
	return nil
}
