package services

import (
	"context"
	"errors"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/settlement/domain/models"
	"wheres-my-tab/internal/xpkg/logger"

	"github.com/google/uuid"
)

type PaymentService struct {
	deps
}

func NewPaymentService(
	store core.IStore,
	settings core.ISettings,
	bus core.IEventBus,
	mylogger logger.Logger,
	opts Options,
) *PaymentService {
	return &PaymentService{deps: newDeps(store, settings, bus, mylogger, opts)}
}

// Add appends one payment to the session ledger. The remaining balance and
// the itemised quantities are checked again under the session lock, and the
// session is closed in the same transaction once nothing is left to pay.
func (ps *PaymentService) Add(ctx context.Context, sessionID uuid.UUID, req dto.PaymentRequest) (dto.PaymentResult, error) {
	mylog := ps.mylog.Action("add_payment").With("session_id", sessionID)

	if !core.AllowedPaymentMethods[req.Method] {
		return dto.PaymentResult{}, core.ErrInvalidPaymentMethod
	}
	if !req.Amount.IsPositive() || !IsCents(req.Amount) {
		return dto.PaymentResult{}, core.ErrInvalidAmount
	}

	var result dto.PaymentResult
	err := ps.store.WithinTx(ctx, func(ctx context.Context, r core.Repos) error {
		session, err := lockOpenSession(ctx, r, sessionID)
		if err != nil {
			return err
		}
		payments, err := r.Payments.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := ValidateAmount(req.Amount, Remaining(session.Total, payments)); err != nil {
			return err
		}

		if len(req.PaidItems) > 0 {
			orders, err := r.Orders.ListBySession(ctx, sessionID)
			if err != nil {
				return err
			}
			unitPrice, err := ps.coverUnitPrice(ctx)
			if err != nil {
				return err
			}
			applied := IsCoverApplied(session.Total, SessionBaseline(sessionID, orders), unitPrice, session.Covers)
			quota := RemainingCoverQuota(session.Covers, applied, payments)
			if err := checkPaidItems(req.PaidItems, orders, payments, quota); err != nil {
				return err
			}
		}

		paidItems := make([]models.PaidItem, len(req.PaidItems))
		copy(paidItems, req.PaidItems)
		payment := models.SessionPayment{
			ID:            uuid.New(),
			SessionID:     sessionID,
			Amount:        req.Amount,
			PaymentMethod: req.Method,
			PaidAt:        ps.now(),
			Notes:         req.Notes,
			Smac:          req.Smac,
			PaidItems:     paidItems,
		}
		if err := r.Payments.Append(ctx, payment); err != nil {
			return err
		}
		if err := ps.audit(ctx, r, sessionID, core.LogPayment, req.Method+" "+req.Amount.StringFixed(2)); err != nil {
			return err
		}

		payments = append(payments, payment)
		if IsSettled(session.Total, payments) {
			if err := ps.closeSession(ctx, r, &session, models.MethodSplit, req.Smac, core.LogAutoClosed); err != nil {
				return err
			}
			result.AutoClosed = true
		}

		result.Payment = payment
		result.Session = session
		result.Paid = Paid(payments)
		result.Remaining = Remaining(session.Total, payments)
		return nil
	})
	if err != nil {
		mylog.Error("Failed to add payment", err, "amount", req.Amount.StringFixed(2))
		return dto.PaymentResult{}, err
	}

	mylog.Info("Payment recorded",
		"payment_id", result.Payment.ID,
		"amount", result.Payment.Amount.StringFixed(2),
		"method", result.Payment.PaymentMethod,
		"remaining", result.Remaining.StringFixed(2),
	)
	if result.AutoClosed {
		mylog.Info("Session settled and closed")
	}
	ps.publish(ctx, result.Session, dto.EventTableSessionsUpdated)
	return result, nil
}

func (ps *PaymentService) List(ctx context.Context, sessionID uuid.UUID) ([]models.SessionPayment, error) {
	r := ps.store.Repos()
	if _, err := r.Sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	payments, err := r.Payments.ListBySession(ctx, sessionID)
	if err != nil {
		ps.mylog.Action("list_payments").Error("Failed to list payments", err, "session_id", sessionID)
		return nil, err
	}
	if payments == nil {
		payments = []models.SessionPayment{}
	}
	return payments, nil
}

func (ps *PaymentService) Get(ctx context.Context, paymentID uuid.UUID) (models.SessionPayment, error) {
	return ps.store.Repos().Payments.Get(ctx, paymentID)
}

// Candidate builds the payment a per-item selection would produce. Nothing is
// written.
func (ps *PaymentService) Candidate(ctx context.Context, sessionID uuid.UUID, sel dto.Selection) (dto.PaymentCandidate, error) {
	view, err := ps.loadView(ctx, sessionID)
	if err != nil {
		return dto.PaymentCandidate{}, err
	}
	if !view.Session.IsOpen() {
		return dto.PaymentCandidate{}, core.ErrSessionAlreadyClosed
	}
	return BuildCandidate(view, sel, ps.opts.CoverLabel)
}

// Receipt projects one stored payment into a printable receipt.
func (ps *PaymentService) Receipt(ctx context.Context, paymentID uuid.UUID) (models.Receipt, error) {
	payment, err := ps.Get(ctx, paymentID)
	if err != nil {
		if !errors.Is(err, core.ErrPaymentNotFound) {
			ps.mylog.Action("receipt").Error("Failed to load payment", err, "payment_id", paymentID)
		}
		return models.Receipt{}, err
	}
	return GeneratePartialReceipt(payment, ps.opts.Shop, ps.opts.PartialPaymentLabel), nil
}
