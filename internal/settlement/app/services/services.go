package services

import (
	"context"
	"fmt"
	"time"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/settlement/domain/models"
	"wheres-my-tab/internal/xpkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	CoverLabel          string
	PartialPaymentLabel string
	Shop                models.ShopInfo
	Now                 func() time.Time
}

func (o Options) withDefaults() Options {
	if o.CoverLabel == "" {
		o.CoverLabel = "Coperto"
	}
	if o.PartialPaymentLabel == "" {
		o.PartialPaymentLabel = "Partial payment"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// deps is shared by every settlement service.
type deps struct {
	store    core.IStore
	settings core.ISettings
	bus      core.IEventBus
	mylog    logger.Logger
	opts     Options
}

func newDeps(store core.IStore, settings core.ISettings, bus core.IEventBus, mylog logger.Logger, opts Options) deps {
	return deps{
		store:    store,
		settings: settings,
		bus:      bus,
		mylog:    mylog,
		opts:     opts.withDefaults(),
	}
}

func (d deps) now() time.Time {
	return d.opts.Now().UTC()
}

// coverUnitPrice is the cover price for write paths; failures are returned.
func (d deps) coverUnitPrice(ctx context.Context) (decimal.Decimal, error) {
	price, err := d.settings.CoverUnitPrice(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read cover unit price: %w", err)
	}
	return price, nil
}

// inferredCoverUnitPrice is the cover price for read paths. A settings
// failure means "cover not detected".
func (d deps) inferredCoverUnitPrice(ctx context.Context) decimal.Decimal {
	price, err := d.settings.CoverUnitPrice(ctx)
	if err != nil {
		d.mylog.Action("cover_inference_degraded").Warn("Cover unit price unavailable, treating cover as not applied", "error", err.Error())
		return decimal.Zero
	}
	return price
}

// publish fires refresh events after a committed write. A failure is logged
// only: the write already happened.
func (d deps) publish(ctx context.Context, session models.TableSession, events ...string) {
	for _, event := range events {
		e := dto.RefreshEvent{
			Event:     event,
			SessionID: session.ID,
			TableID:   session.TableID,
			Timestamp: d.now(),
		}
		if err := d.bus.Publish(ctx, e); err != nil {
			d.mylog.Action("refresh_publish_failed").Error("Failed to publish refresh event", err, "event", event, "session_id", session.ID)
		}
	}
}

func (d deps) audit(ctx context.Context, r core.Repos, sessionID uuid.UUID, action, note string) error {
	entry := models.SessionLogEntry{
		ID:        uuid.New(),
		SessionID: sessionID,
		Action:    action,
		ChangedBy: core.ChangedBy,
		Note:      note,
		ChangedAt: d.now(),
	}
	if err := r.Sessions.AppendLog(ctx, entry); err != nil {
		return fmt.Errorf("append session log: %w", err)
	}
	return nil
}

// lockOpenSession reads the session under the transaction lock and rejects
// closed ones.
func lockOpenSession(ctx context.Context, r core.Repos, id uuid.UUID) (models.TableSession, error) {
	session, err := r.Sessions.GetForUpdate(ctx, id)
	if err != nil {
		return models.TableSession{}, err
	}
	if !session.IsOpen() {
		return models.TableSession{}, core.ErrSessionAlreadyClosed
	}
	return session, nil
}

// closeSession moves an open session to closed and frees its table.
func (d deps) closeSession(ctx context.Context, r core.Repos, session *models.TableSession, method string, smac bool, action string) error {
	closedAt := d.now()
	if err := r.Sessions.Close(ctx, session.ID, method, smac, closedAt); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := r.Tables.SetStatus(ctx, session.TableID, models.TableAvailable); err != nil {
		return fmt.Errorf("free table: %w", err)
	}
	note := "method=" + method
	if method == "" {
		note = "zero total confirmed"
	}
	if err := d.audit(ctx, r, session.ID, action, note); err != nil {
		return err
	}

	session.Status = models.SessionClosed
	session.ClosedAt = &closedAt
	session.ClosingPaymentMethod = method
	session.ClosingSmac = smac
	return nil
}

// BuildView derives every settlement figure of a session from its stored
// parts.
func BuildView(session models.TableSession, orders []models.Order, payments []models.SessionPayment, unitPrice decimal.Decimal) dto.SessionView {
	baseline := SessionBaseline(session.ID, orders)
	applied := IsCoverApplied(session.Total, baseline, unitPrice, session.Covers)

	if orders == nil {
		orders = []models.Order{}
	}
	if payments == nil {
		payments = []models.SessionPayment{}
	}

	return dto.SessionView{
		Session:             session,
		Orders:              orders,
		Payments:            payments,
		Baseline:            baseline,
		CoverUnitPrice:      unitPrice,
		CoverAvailable:      CoverAvailable(unitPrice, session.Covers),
		CoverApplied:        applied,
		Paid:                Paid(payments),
		Remaining:           Remaining(session.Total, payments),
		RemainingItems:      RemainingItems(orders, payments),
		RemainingCoverQuota: RemainingCoverQuota(session.Covers, applied, payments),
	}
}

// loadView reads orders, payments and the cover price concurrently outside
// any transaction.
func (d deps) loadView(ctx context.Context, sessionID uuid.UUID) (dto.SessionView, error) {
	r := d.store.Repos()

	session, err := r.Sessions.Get(ctx, sessionID)
	if err != nil {
		return dto.SessionView{}, err
	}

	var (
		orders    []models.Order
		payments  []models.SessionPayment
		unitPrice decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = r.Orders.ListBySession(gctx, sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = r.Payments.ListBySession(gctx, sessionID)
		return err
	})
	g.Go(func() error {
		unitPrice = d.inferredCoverUnitPrice(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return dto.SessionView{}, err
	}

	return BuildView(session, orders, payments, unitPrice), nil
}
