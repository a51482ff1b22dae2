package services

import (
	"context"
	"fmt"
	"strings"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/settlement/domain/models"
	"wheres-my-tab/internal/xpkg/logger"

	"github.com/google/uuid"
)

// OrderService changes the line items of a session and keeps order and
// session totals in step with them.
type OrderService struct {
	deps
}

func NewOrderService(
	store core.IStore,
	settings core.ISettings,
	bus core.IEventBus,
	mylogger logger.Logger,
	opts Options,
) *OrderService {
	return &OrderService{deps: newDeps(store, settings, bus, mylogger, opts)}
}

func (os *OrderService) Create(ctx context.Context, sessionID uuid.UUID, req dto.CreateOrderRequest) (models.Order, error) {
	mylog := os.mylog.Action("create_order").With("session_id", sessionID)

	if len(req.Items) == 0 {
		return models.Order{}, fmt.Errorf("%w: items", core.ErrFieldIsEmpty)
	}
	for _, item := range req.Items {
		if err := validateItem(item); err != nil {
			return models.Order{}, err
		}
	}

	var order models.Order
	session, err := os.mutate(ctx, sessionID, func(ctx context.Context, r core.Repos, _ []models.SessionPayment) error {
		number, err := r.Orders.NextOrderNumber(ctx, sessionID)
		if err != nil {
			return err
		}

		sid := sessionID
		order = models.Order{
			ID:          uuid.New(),
			SessionID:   &sid,
			OrderNumber: number,
			Status:      models.OrderOpen,
			CreatedAt:   os.now(),
		}
		for _, ir := range req.Items {
			order.Items = append(order.Items, newItem(order.ID, ir))
		}
		order.Total = OrderTotal(order.Items)

		if err := r.Orders.Create(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := r.Orders.AddItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		mylog.Error("Failed to create order", err)
		return models.Order{}, err
	}

	mylog.Info("Order created", "order_id", order.ID, "order_number", order.OrderNumber, "total", order.Total.StringFixed(2))
	os.publish(ctx, session, dto.EventOrdersUpdated, dto.EventTableSessionsUpdated)
	return order, nil
}

func (os *OrderService) AddItem(ctx context.Context, orderID uuid.UUID, req dto.ItemRequest) (models.OrderItem, error) {
	mylog := os.mylog.Action("add_item").With("order_id", orderID)

	if err := validateItem(req); err != nil {
		return models.OrderItem{}, err
	}

	order, err := os.store.Repos().Orders.Get(ctx, orderID)
	if err != nil {
		return models.OrderItem{}, err
	}

	item := newItem(orderID, req)
	session, err := os.mutateOrder(ctx, order, func(ctx context.Context, r core.Repos, _ []models.SessionPayment) error {
		return r.Orders.AddItem(ctx, item)
	})
	if err != nil {
		mylog.Error("Failed to add item", err)
		return models.OrderItem{}, err
	}

	mylog.Info("Item added", "item_id", item.ID, "menu_item_name", item.MenuItemName, "quantity", item.Quantity)
	os.publish(ctx, session, dto.EventOrdersUpdated, dto.EventTableSessionsUpdated)
	return item, nil
}

// UpdateItem changes quantity and notes. The quantity cannot drop below what
// the ledger already paid for the item.
func (os *OrderService) UpdateItem(ctx context.Context, itemID uuid.UUID, req dto.UpdateItemRequest) (models.OrderItem, error) {
	mylog := os.mylog.Action("update_item").With("item_id", itemID)

	if req.Quantity != nil && *req.Quantity < 1 {
		return models.OrderItem{}, core.ErrInvalidQuantity
	}

	order, err := os.orderOfItem(ctx, itemID)
	if err != nil {
		return models.OrderItem{}, err
	}

	var item models.OrderItem
	session, err := os.mutateOrder(ctx, order, func(ctx context.Context, r core.Repos, payments []models.SessionPayment) error {
		var err error
		item, err = r.Orders.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if req.Quantity != nil {
			if paid := PaidQuantity(payments, &item.ID); *req.Quantity < paid {
				return fmt.Errorf("%w: %d already paid", core.ErrItemAlreadyPaid, paid)
			}
			item.Quantity = *req.Quantity
		}
		if req.Notes != nil {
			item.Notes = *req.Notes
		}
		return r.Orders.UpdateItem(ctx, item)
	})
	if err != nil {
		mylog.Error("Failed to update item", err)
		return models.OrderItem{}, err
	}

	mylog.Info("Item updated", "quantity", item.Quantity)
	os.publish(ctx, session, dto.EventOrdersUpdated, dto.EventTableSessionsUpdated)
	return item, nil
}

func (os *OrderService) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	mylog := os.mylog.Action("remove_item").With("item_id", itemID)

	order, err := os.orderOfItem(ctx, itemID)
	if err != nil {
		return err
	}

	session, err := os.mutateOrder(ctx, order, func(ctx context.Context, r core.Repos, payments []models.SessionPayment) error {
		if paid := PaidQuantity(payments, &itemID); paid > 0 {
			return fmt.Errorf("%w: %d already paid", core.ErrItemAlreadyPaid, paid)
		}
		return r.Orders.DeleteItem(ctx, itemID)
	})
	if err != nil {
		mylog.Error("Failed to remove item", err)
		return err
	}

	mylog.Info("Item removed", "order_id", order.ID)
	os.publish(ctx, session, dto.EventOrdersUpdated, dto.EventTableSessionsUpdated)
	return nil
}

func (os *OrderService) orderOfItem(ctx context.Context, itemID uuid.UUID) (models.Order, error) {
	r := os.store.Repos()
	item, err := r.Orders.GetItem(ctx, itemID)
	if err != nil {
		return models.Order{}, err
	}
	return r.Orders.Get(ctx, item.OrderID)
}

type mutation func(ctx context.Context, r core.Repos, payments []models.SessionPayment) error

// mutateOrder runs fn against the order's session, or on its own for a
// standalone order.
func (os *OrderService) mutateOrder(ctx context.Context, order models.Order, fn mutation) (models.TableSession, error) {
	if order.SessionID != nil {
		return os.mutate(ctx, *order.SessionID, func(ctx context.Context, r core.Repos, payments []models.SessionPayment) error {
			if err := fn(ctx, r, payments); err != nil {
				return err
			}
			_, err := recomputeOrderTotal(ctx, r, order.ID)
			return err
		})
	}

	err := os.store.WithinTx(ctx, func(ctx context.Context, r core.Repos) error {
		if err := fn(ctx, r, nil); err != nil {
			return err
		}
		_, err := recomputeOrderTotal(ctx, r, order.ID)
		return err
	})
	return models.TableSession{}, err
}

// mutate locks the session, runs fn and recomputes the session total. The
// cover stays folded in when it was applied before the change.
func (os *OrderService) mutate(ctx context.Context, sessionID uuid.UUID, fn mutation) (models.TableSession, error) {
	unitPrice, err := os.coverUnitPrice(ctx)
	if err != nil {
		return models.TableSession{}, err
	}

	var session models.TableSession
	err = os.store.WithinTx(ctx, func(ctx context.Context, r core.Repos) error {
		session, err = lockOpenSession(ctx, r, sessionID)
		if err != nil {
			return err
		}
		before, err := r.Orders.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		payments, err := r.Payments.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		applied := IsCoverApplied(session.Total, SessionBaseline(sessionID, before), unitPrice, session.Covers)

		if err := fn(ctx, r, payments); err != nil {
			return err
		}

		after, err := r.Orders.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		total := TotalWithCover(SessionBaseline(sessionID, after), unitPrice, session.Covers, applied)
		if total.LessThan(Paid(payments).Sub(core.Epsilon)) {
			return core.ErrTotalBelowPaid
		}
		if !total.Equal(session.Total) {
			if err := r.Sessions.UpdateTotal(ctx, sessionID, total); err != nil {
				return err
			}
			session.Total = total
		}
		return nil
	})
	if err != nil {
		return models.TableSession{}, err
	}
	return session, nil
}

func validateItem(req dto.ItemRequest) error {
	if strings.TrimSpace(req.MenuItemName) == "" {
		return fmt.Errorf("%w: menu_item_name", core.ErrFieldIsEmpty)
	}
	if req.Quantity < 1 {
		return core.ErrInvalidQuantity
	}
	if req.Price.IsNegative() {
		return core.ErrInvalidPrice
	}
	return nil
}

func newItem(orderID uuid.UUID, req dto.ItemRequest) models.OrderItem {
	return models.OrderItem{
		ID:           uuid.New(),
		OrderID:      orderID,
		MenuItemName: strings.TrimSpace(req.MenuItemName),
		Price:        req.Price.Round(2),
		Quantity:     req.Quantity,
		Notes:        req.Notes,
	}
}
