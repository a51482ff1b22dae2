package services

import (
	"context"
	"errors"
	"fmt"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/settlement/domain/models"
	"wheres-my-tab/internal/xpkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionService owns the lifecycle of table sessions and the cover charge.
type SessionService struct {
	deps
}

func NewSessionService(
	store core.IStore,
	settings core.ISettings,
	bus core.IEventBus,
	mylogger logger.Logger,
	opts Options,
) *SessionService {
	return &SessionService{deps: newDeps(store, settings, bus, mylogger, opts)}
}

func (ss *SessionService) Open(ctx context.Context, req dto.OpenSessionRequest) (models.TableSession, error) {
	mylog := ss.mylog.Action("open_session").With("table_id", req.TableID)

	if req.Covers < 0 {
		return models.TableSession{}, core.ErrInvalidCovers
	}

	var session models.TableSession
	err := ss.store.WithinTx(ctx, func(ctx context.Context, r core.Repos) error {
		if _, err := r.Tables.GetForUpdate(ctx, req.TableID); err != nil {
			return err
		}

		_, err := r.Sessions.GetOpenByTable(ctx, req.TableID)
		if err == nil {
			return core.ErrTableAlreadyOpen
		}
		if !errors.Is(err, core.ErrSessionNotFound) {
			return err
		}

		session = models.TableSession{
			ID:            uuid.New(),
			TableID:       req.TableID,
			Status:        models.SessionOpen,
			Covers:        req.Covers,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Total:         decimal.Zero,
			OpenedAt:      ss.now(),
		}
		if err := r.Sessions.Create(ctx, session); err != nil {
			return err
		}
		if err := r.Tables.SetStatus(ctx, req.TableID, models.TableOccupied); err != nil {
			return fmt.Errorf("occupy table: %w", err)
		}
		return ss.audit(ctx, r, session.ID, core.LogOpened, fmt.Sprintf("covers=%d", req.Covers))
	})
	if err != nil {
		mylog.Error("Failed to open session", err)
		return models.TableSession{}, err
	}

	mylog.Info("Session opened", "session_id", session.ID, "covers", session.Covers)
	ss.publish(ctx, session, dto.EventTableSessionsUpdated)
	return session, nil
}

// SetCoverApplied folds the cover charge into the total or takes it out.
// Without a cover price or guests it changes nothing.
func (ss *SessionService) SetCoverApplied(ctx context.Context, sessionID uuid.UUID, include bool) (dto.SessionView, error) {
	mylog := ss.mylog.Action("set_cover").With("session_id", sessionID, "include", include)

	unitPrice, err := ss.coverUnitPrice(ctx)
	if err != nil {
		mylog.Error("Failed to read cover price", err)
		return dto.SessionView{}, err
	}

	var view dto.SessionView
	changed := false
	err = ss.store.WithinTx(ctx, func(ctx context.Context, r core.Repos) error {
		session, err := lockOpenSession(ctx, r, sessionID)
		if err != nil {
			return err
		}
		orders, err := r.Orders.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		payments, err := r.Payments.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}

		if CoverAvailable(unitPrice, session.Covers) {
			if !include && PaidQuantity(payments, nil) > 0 {
				return core.ErrCoverAlreadyPaid
			}

			total := TotalWithCover(SessionBaseline(sessionID, orders), unitPrice, session.Covers, include)
			if total.LessThan(Paid(payments).Sub(core.Epsilon)) {
				return core.ErrTotalBelowPaid
			}
			if !total.Equal(session.Total) {
				if err := r.Sessions.UpdateTotal(ctx, sessionID, total); err != nil {
					return err
				}
				action := core.LogCoverRemoved
				if include {
					action = core.LogCoverApplied
				}
				if err := ss.audit(ctx, r, sessionID, action, "total="+total.StringFixed(2)); err != nil {
					return err
				}
				session.Total = total
				changed = true
			}
		}

		view = BuildView(session, orders, payments, unitPrice)
		return nil
	})
	if err != nil {
		mylog.Error("Failed to set cover", err)
		return dto.SessionView{}, err
	}

	if changed {
		mylog.Info("Cover updated", "total", view.Session.Total.StringFixed(2))
		ss.publish(ctx, view.Session, dto.EventTableSessionsUpdated)
	} else {
		mylog.Debug("Cover unchanged")
	}
	return view, nil
}

// Close applies the final cover decision and closes the session. A zero total
// needs req.Confirm and takes no payment method.
func (ss *SessionService) Close(ctx context.Context, sessionID uuid.UUID, req dto.CloseSessionRequest) (models.TableSession, error) {
	mylog := ss.mylog.Action("close_session").With("session_id", sessionID)

	unitPrice, err := ss.coverUnitPrice(ctx)
	if err != nil {
		mylog.Error("Failed to read cover price", err)
		return models.TableSession{}, err
	}

	var session models.TableSession
	err = ss.store.WithinTx(ctx, func(ctx context.Context, r core.Repos) error {
		session, err = lockOpenSession(ctx, r, sessionID)
		if err != nil {
			return err
		}

		if CoverAvailable(unitPrice, session.Covers) {
			orders, err := r.Orders.ListBySession(ctx, sessionID)
			if err != nil {
				return err
			}
			payments, err := r.Payments.ListBySession(ctx, sessionID)
			if err != nil {
				return err
			}
			if !req.IncludeCover && PaidQuantity(payments, nil) > 0 {
				return core.ErrCoverAlreadyPaid
			}
			total := TotalWithCover(SessionBaseline(sessionID, orders), unitPrice, session.Covers, req.IncludeCover)
			if total.LessThan(Paid(payments).Sub(core.Epsilon)) {
				return core.ErrTotalBelowPaid
			}
			if !total.Equal(session.Total) {
				if err := r.Sessions.UpdateTotal(ctx, sessionID, total); err != nil {
					return err
				}
				session.Total = total
			}
		}

		method := req.Method
		if session.Total.Abs().LessThan(core.Epsilon) {
			if !req.Confirm {
				return core.ErrConfirmationRequired
			}
			method = ""
		} else if !core.AllowedPaymentMethods[method] {
			return core.ErrInvalidPaymentMethod
		}

		return ss.closeSession(ctx, r, &session, method, req.Smac, core.LogClosed)
	})
	if err != nil {
		mylog.Error("Failed to close session", err)
		return models.TableSession{}, err
	}

	mylog.Info("Session closed", "method", session.ClosingPaymentMethod, "total", session.Total.StringFixed(2))
	ss.publish(ctx, session, dto.EventTableSessionsUpdated)
	return session, nil
}

// Transfer moves an open session to another free table. Only the table
// changes; total, covers and ledger stay.
func (ss *SessionService) Transfer(ctx context.Context, sessionID, tableID uuid.UUID) (models.TableSession, error) {
	mylog := ss.mylog.Action("transfer_session").With("session_id", sessionID, "to_table_id", tableID)

	var session models.TableSession
	err := ss.store.WithinTx(ctx, func(ctx context.Context, r core.Repos) error {
		var err error
		session, err = lockOpenSession(ctx, r, sessionID)
		if err != nil {
			return err
		}
		if session.TableID == tableID {
			return core.ErrDestinationOccupied
		}
		if _, err := r.Tables.GetForUpdate(ctx, tableID); err != nil {
			return err
		}

		_, err = r.Sessions.GetOpenByTable(ctx, tableID)
		if err == nil {
			return core.ErrDestinationOccupied
		}
		if !errors.Is(err, core.ErrSessionNotFound) {
			return err
		}

		from := session.TableID
		if err := r.Sessions.UpdateTable(ctx, sessionID, tableID); err != nil {
			return err
		}
		if err := r.Tables.SetStatus(ctx, from, models.TableAvailable); err != nil {
			return fmt.Errorf("free table: %w", err)
		}
		if err := r.Tables.SetStatus(ctx, tableID, models.TableOccupied); err != nil {
			return fmt.Errorf("occupy table: %w", err)
		}
		session.TableID = tableID
		return ss.audit(ctx, r, sessionID, core.LogTransferred, fmt.Sprintf("from=%s to=%s", from, tableID))
	})
	if err != nil {
		mylog.Error("Failed to transfer session", err)
		return models.TableSession{}, err
	}

	mylog.Info("Session transferred")
	ss.publish(ctx, session, dto.EventTableSessionsUpdated)
	return session, nil
}

// OverrideTotal is the administrative escape hatch for the stored total.
func (ss *SessionService) OverrideTotal(ctx context.Context, sessionID uuid.UUID, req dto.OverrideTotalRequest) (models.TableSession, error) {
	mylog := ss.mylog.Action("override_total").With("session_id", sessionID)

	if req.Total.IsNegative() || !IsCents(req.Total) {
		return models.TableSession{}, core.ErrInvalidAmount
	}
	if req.Reason == "" {
		return models.TableSession{}, core.ErrReasonRequired
	}

	var session models.TableSession
	err := ss.store.WithinTx(ctx, func(ctx context.Context, r core.Repos) error {
		var err error
		session, err = lockOpenSession(ctx, r, sessionID)
		if err != nil {
			return err
		}
		payments, err := r.Payments.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		if req.Total.LessThan(Paid(payments).Sub(core.Epsilon)) {
			return core.ErrTotalBelowPaid
		}

		previous := session.Total
		if err := r.Sessions.UpdateTotal(ctx, sessionID, req.Total); err != nil {
			return err
		}
		session.Total = req.Total
		note := fmt.Sprintf("%s -> %s: %s", previous.StringFixed(2), req.Total.StringFixed(2), req.Reason)
		return ss.audit(ctx, r, sessionID, core.LogTotalOverride, note)
	})
	if err != nil {
		mylog.Error("Failed to override total", err)
		return models.TableSession{}, err
	}

	mylog.Warn("Session total overridden", "total", req.Total.StringFixed(2), "reason", req.Reason)
	ss.publish(ctx, session, dto.EventTableSessionsUpdated)
	return session, nil
}

// Delete removes a session with its orders, ledger and audit rows.
// Irreversible; the WARN log entry is the only record left of it.
func (ss *SessionService) Delete(ctx context.Context, sessionID uuid.UUID) error {
	mylog := ss.mylog.Action("delete_session").With("session_id", sessionID)

	var session models.TableSession
	err := ss.store.WithinTx(ctx, func(ctx context.Context, r core.Repos) error {
		var err error
		session, err = r.Sessions.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := r.Sessions.Delete(ctx, sessionID); err != nil {
			return err
		}
		if session.IsOpen() {
			if err := r.Tables.SetStatus(ctx, session.TableID, models.TableAvailable); err != nil {
				return fmt.Errorf("free table: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		mylog.Error("Failed to delete session", err)
		return err
	}

	mylog.Warn("Session deleted", "table_id", session.TableID, "total", session.Total.StringFixed(2))
	ss.publish(ctx, session, dto.EventOrdersUpdated, dto.EventTableSessionsUpdated)
	return nil
}

func (ss *SessionService) Get(ctx context.Context, sessionID uuid.UUID) (dto.SessionView, error) {
	view, err := ss.loadView(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, core.ErrSessionNotFound) {
			ss.mylog.Action("get_session").Error("Failed to load session", err, "session_id", sessionID)
		}
		return dto.SessionView{}, err
	}
	return view, nil
}

func (ss *SessionService) List(ctx context.Context, status string) ([]models.TableSession, error) {
	if status != "" && status != models.SessionOpen && status != models.SessionClosed {
		return nil, fmt.Errorf("%w: unknown status %q", core.ErrFieldIsEmpty, status)
	}
	sessions, err := ss.store.Repos().Sessions.List(ctx, status)
	if err != nil {
		ss.mylog.Action("list_sessions").Error("Failed to list sessions", err)
		return nil, err
	}
	return sessions, nil
}

func (ss *SessionService) History(ctx context.Context, sessionID uuid.UUID) ([]models.SessionLogEntry, error) {
	r := ss.store.Repos()
	if _, err := r.Sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return r.Sessions.History(ctx, sessionID)
}

func (ss *SessionService) Tables(ctx context.Context) ([]models.Table, error) {
	tables, err := ss.store.Repos().Tables.List(ctx)
	if err != nil {
		ss.mylog.Action("list_tables").Error("Failed to list tables", err)
		return nil, err
	}
	return tables, nil
}
