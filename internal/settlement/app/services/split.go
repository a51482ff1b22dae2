package services

import (
	"fmt"
	"strings"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ManualCandidate is a free-form amount with no itemisation.
func ManualCandidate(view dto.SessionView, amount decimal.Decimal) (dto.PaymentCandidate, error) {
	if err := ValidateAmount(amount, view.Remaining); err != nil {
		return dto.PaymentCandidate{}, err
	}
	return dto.PaymentCandidate{
		Amount:        amount,
		SelectedTotal: amount,
		PaidItems:     []models.PaidItem{},
	}, nil
}

// BuildCandidate turns a per-item selection into a payment candidate. The
// amount is clamped to the remaining balance when the selection is worth
// more; the description and paid items keep the selected quantities.
func BuildCandidate(view dto.SessionView, sel dto.Selection, coverLabel string) (dto.PaymentCandidate, error) {
	wanted := make(map[uuid.UUID]int)
	for _, si := range sel.Items {
		if si.Quantity < 0 {
			return dto.PaymentCandidate{}, core.ErrInvalidQuantity
		}
		wanted[si.OrderItemID] += si.Quantity
	}
	if sel.CoverQuantity < 0 {
		return dto.PaymentCandidate{}, core.ErrInvalidQuantity
	}

	known := make(map[uuid.UUID]bool)
	for _, order := range view.Orders {
		for _, item := range order.Items {
			known[item.ID] = true
		}
	}
	remaining := make(map[uuid.UUID]int, len(view.RemainingItems))
	for _, ri := range view.RemainingItems {
		remaining[ri.Item.ID] = ri.RemainingQuantity
	}
	for id, qty := range wanted {
		if qty == 0 {
			continue
		}
		if !known[id] {
			return dto.PaymentCandidate{}, fmt.Errorf("%w: %s", core.ErrItemNotInSession, id)
		}
		if qty > remaining[id] {
			return dto.PaymentCandidate{}, fmt.Errorf("%w: %d left, %d selected", core.ErrSelectionExceedsRemain, remaining[id], qty)
		}
	}
	if sel.CoverQuantity > view.RemainingCoverQuota {
		return dto.PaymentCandidate{}, fmt.Errorf("%w: %d covers left, %d selected", core.ErrSelectionExceedsRemain, view.RemainingCoverQuota, sel.CoverQuantity)
	}

	total := decimal.Zero
	paidItems := []models.PaidItem{}
	labels := []string{}
	for _, ri := range view.RemainingItems {
		qty := wanted[ri.Item.ID]
		if qty == 0 {
			continue
		}
		id := ri.Item.ID
		paidItems = append(paidItems, models.PaidItem{
			OrderItemID:  &id,
			Quantity:     qty,
			MenuItemName: ri.Item.MenuItemName,
			Price:        ri.Item.Price,
		})
		total = total.Add(ri.Item.Price.Mul(decimal.NewFromInt(int64(qty))))
		labels = append(labels, fmt.Sprintf("%dx %s", qty, ri.Item.MenuItemName))
	}
	if sel.CoverQuantity > 0 {
		paidItems = append(paidItems, models.PaidItem{
			Quantity:     sel.CoverQuantity,
			MenuItemName: coverLabel,
			Price:        view.CoverUnitPrice,
		})
		total = total.Add(CoverAmount(view.CoverUnitPrice, sel.CoverQuantity))
		labels = append(labels, fmt.Sprintf("%dx %s", sel.CoverQuantity, coverLabel))
	}

	if len(paidItems) == 0 {
		return dto.PaymentCandidate{}, core.ErrEmptySelection
	}

	candidate := dto.PaymentCandidate{
		Amount:        total,
		SelectedTotal: total,
		Description:   strings.Join(labels, ", "),
		PaidItems:     paidItems,
	}
	if total.GreaterThan(view.Remaining.Add(core.Epsilon)) {
		candidate.Amount = view.Remaining
		candidate.Clamped = true
	}
	return candidate, nil
}

// Selector holds the per-item counters of the "pay by consumption" screen.
// Counters never go below zero or above what is left to pay.
type Selector struct {
	view   dto.SessionView
	caps   map[uuid.UUID]int
	counts map[uuid.UUID]int
	cover  int
}

func NewSelector(view dto.SessionView) *Selector {
	caps := make(map[uuid.UUID]int, len(view.RemainingItems))
	for _, ri := range view.RemainingItems {
		caps[ri.Item.ID] = ri.RemainingQuantity
	}
	return &Selector{
		view:   view,
		caps:   caps,
		counts: make(map[uuid.UUID]int),
	}
}

func (s *Selector) Increment(itemID uuid.UUID) int {
	if s.counts[itemID] < s.caps[itemID] {
		s.counts[itemID]++
	}
	return s.counts[itemID]
}

func (s *Selector) Decrement(itemID uuid.UUID) int {
	if s.counts[itemID] > 0 {
		s.counts[itemID]--
	}
	return s.counts[itemID]
}

func (s *Selector) IncrementCover() int {
	if s.cover < s.view.RemainingCoverQuota {
		s.cover++
	}
	return s.cover
}

func (s *Selector) DecrementCover() int {
	if s.cover > 0 {
		s.cover--
	}
	return s.cover
}

func (s *Selector) Selection() dto.Selection {
	sel := dto.Selection{CoverQuantity: s.cover}
	for _, ri := range s.view.RemainingItems {
		if qty := s.counts[ri.Item.ID]; qty > 0 {
			sel.Items = append(sel.Items, dto.SelectedItem{OrderItemID: ri.Item.ID, Quantity: qty})
		}
	}
	return sel
}

// Apply builds the candidate for the current counters.
func (s *Selector) Apply(coverLabel string) (dto.PaymentCandidate, error) {
	return BuildCandidate(s.view, s.Selection(), coverLabel)
}
