package services

import (
	"fmt"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Paid is the sum of every ledger entry.
func Paid(payments []models.SessionPayment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Remaining is max(0, total - paid).
func Remaining(total decimal.Decimal, payments []models.SessionPayment) decimal.Decimal {
	rest := total.Sub(Paid(payments))
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// IsSettled reports whether the remaining balance is within tolerance of zero.
func IsSettled(total decimal.Decimal, payments []models.SessionPayment) bool {
	return Remaining(total, payments).LessThanOrEqual(core.Epsilon)
}

// PaidQuantity sums the quantities paid for one item across the ledger. A nil
// itemID aggregates the cover pseudo-item.
func PaidQuantity(payments []models.SessionPayment, itemID *uuid.UUID) int {
	qty := 0
	for _, p := range payments {
		for _, pi := range p.PaidItems {
			if sameItem(pi.OrderItemID, itemID) {
				qty += pi.Quantity
			}
		}
	}
	return qty
}

func RemainingQuantity(item models.OrderItem, payments []models.SessionPayment) int {
	id := item.ID
	rest := item.Quantity - PaidQuantity(payments, &id)
	if rest < 0 {
		return 0
	}
	return rest
}

// RemainingCoverQuota is how many covers are left to pay. It is zero while
// the cover charge is not applied.
func RemainingCoverQuota(covers int, coverApplied bool, payments []models.SessionPayment) int {
	if !coverApplied {
		return 0
	}
	rest := covers - PaidQuantity(payments, nil)
	if rest < 0 {
		return 0
	}
	return rest
}

// RemainingItems lists the items of non-cancelled orders that still have a
// quantity left to pay, in order then item sequence.
func RemainingItems(orders []models.Order, payments []models.SessionPayment) []dto.RemainingItem {
	items := []dto.RemainingItem{}
	for _, order := range orders {
		if order.Status == models.OrderCancelled {
			continue
		}
		for _, item := range order.Items {
			rest := RemainingQuantity(item, payments)
			if rest == 0 {
				continue
			}
			items = append(items, dto.RemainingItem{
				Item:              item,
				OrderNumber:       order.OrderNumber,
				PaidQuantity:      item.Quantity - rest,
				RemainingQuantity: rest,
			})
		}
	}
	return items
}

// IsCents reports whether v has at most two decimal places.
func IsCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(2))
}

// ValidateAmount checks a payment amount against the remaining balance.
func ValidateAmount(amount, remaining decimal.Decimal) error {
	if !amount.IsPositive() || !IsCents(amount) {
		return core.ErrInvalidAmount
	}
	if amount.GreaterThan(remaining.Add(core.Epsilon)) {
		return fmt.Errorf("%w: amount %s, remaining %s", core.ErrOverpayRejected, amount.StringFixed(2), remaining.StringFixed(2))
	}
	return nil
}

// checkPaidItems verifies an itemised payment against what is still owed. It
// runs under the session lock, so concurrent selections of the same item
// cannot both pass.
func checkPaidItems(paidItems []models.PaidItem, orders []models.Order, payments []models.SessionPayment, coverQuota int) error {
	itemsByID := make(map[uuid.UUID]models.OrderItem)
	for _, order := range orders {
		if order.Status == models.OrderCancelled {
			continue
		}
		for _, item := range order.Items {
			itemsByID[item.ID] = item
		}
	}

	requested := make(map[uuid.UUID]int)
	coverRequested := 0
	for _, pi := range paidItems {
		if pi.Quantity < 1 {
			return core.ErrInvalidQuantity
		}
		if pi.IsCover() {
			coverRequested += pi.Quantity
			continue
		}
		if _, ok := itemsByID[*pi.OrderItemID]; !ok {
			return fmt.Errorf("%w: %s", core.ErrItemNotInSession, pi.OrderItemID)
		}
		requested[*pi.OrderItemID] += pi.Quantity
	}

	for id, qty := range requested {
		item := itemsByID[id]
		if rest := RemainingQuantity(item, payments); qty > rest {
			return fmt.Errorf("%w: %s has %d left, %d selected", core.ErrSelectionExceedsRemain, item.MenuItemName, rest, qty)
		}
	}
	if coverRequested > coverQuota {
		return fmt.Errorf("%w: %d covers left, %d selected", core.ErrSelectionExceedsRemain, coverQuota, coverRequested)
	}
	return nil
}

func sameItem(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
