package services

import (
	"context"
	"fmt"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderTotal sums price*quantity over the items.
func OrderTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// SessionBaseline is the orders-only total of a session: the recomputed total
// of every non-cancelled order that belongs to it. No orders gives zero.
func SessionBaseline(sessionID uuid.UUID, orders []models.Order) decimal.Decimal {
	baseline := decimal.Zero
	for _, order := range orders {
		if order.SessionID == nil || *order.SessionID != sessionID {
			continue
		}
		if order.Status == models.OrderCancelled {
			continue
		}
		baseline = baseline.Add(OrderTotal(order.Items))
	}
	return baseline
}

// recomputeOrderTotal reloads the order, writes back the sum of its items and
// returns the updated order.
func recomputeOrderTotal(ctx context.Context, r core.Repos, orderID uuid.UUID) (models.Order, error) {
	order, err := r.Orders.Get(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	total := OrderTotal(order.Items)
	if order.Status == models.OrderCancelled {
		total = decimal.Zero
	}
	if !total.Equal(order.Total) {
		if err := r.Orders.UpdateTotal(ctx, orderID, total); err != nil {
			return models.Order{}, fmt.Errorf("update order total: %w", err)
		}
		order.Total = total
	}
	return order, nil
}
