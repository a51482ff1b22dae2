package db

import (
	"context"
	"fmt"
	"time"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const sessionColumns = `
	id, table_id, status, covers, customer_name, customer_phone, total,
	opened_at, closed_at, closing_payment_method, closing_smac_flag`

type SessionRepo struct {
	q querier
}

func scanSession(row pgx.Row) (models.TableSession, error) {
	var s models.TableSession
	err := row.Scan(
		&s.ID,
		&s.TableID,
		&s.Status,
		&s.Covers,
		&s.CustomerName,
		&s.CustomerPhone,
		&s.Total,
		&s.OpenedAt,
		&s.ClosedAt,
		&s.ClosingPaymentMethod,
		&s.ClosingSmac,
	)
	return s, err
}

func (sr *SessionRepo) Get(ctx context.Context, id uuid.UUID) (models.TableSession, error) {
	q := `SELECT` + sessionColumns + ` FROM table_sessions WHERE id = $1`
	s, err := scanSession(sr.q.QueryRow(ctx, q, id))
	if err != nil {
		return models.TableSession{}, notFound(err, core.ErrSessionNotFound)
	}
	return s, nil
}

func (sr *SessionRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (models.TableSession, error) {
	q := `SELECT` + sessionColumns + ` FROM table_sessions WHERE id = $1 FOR UPDATE`
	s, err := scanSession(sr.q.QueryRow(ctx, q, id))
	if err != nil {
		return models.TableSession{}, notFound(err, core.ErrSessionNotFound)
	}
	return s, nil
}

func (sr *SessionRepo) GetOpenByTable(ctx context.Context, tableID uuid.UUID) (models.TableSession, error) {
	q := `SELECT` + sessionColumns + ` FROM table_sessions WHERE table_id = $1 AND status = 'open'`
	s, err := scanSession(sr.q.QueryRow(ctx, q, tableID))
	if err != nil {
		return models.TableSession{}, notFound(err, core.ErrSessionNotFound)
	}
	return s, nil
}

func (sr *SessionRepo) List(ctx context.Context, status string) ([]models.TableSession, error) {
	q := `SELECT` + sessionColumns + ` FROM table_sessions
		WHERE ($1 = '' OR status = $1)
		ORDER BY opened_at DESC`

	rows, err := sr.q.Query(ctx, q, status)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.TableSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (sr *SessionRepo) Create(ctx context.Context, s models.TableSession) error {
	q := `INSERT INTO table_sessions (
			id, table_id, status, covers, customer_name, customer_phone, total, opened_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := sr.q.Exec(ctx, q,
		s.ID,
		s.TableID,
		s.Status,
		s.Covers,
		s.CustomerName,
		s.CustomerPhone,
		s.Total,
		s.OpenedAt,
	)
	if err != nil {
		return mapError(fmt.Errorf("insert session: %w", err))
	}
	return nil
}

func (sr *SessionRepo) exec(ctx context.Context, id uuid.UUID, q string, args ...any) error {
	tag, err := sr.q.Exec(ctx, q, append([]any{id}, args...)...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

func (sr *SessionRepo) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return sr.exec(ctx, id, `UPDATE table_sessions SET total = $2 WHERE id = $1`, total)
}

func (sr *SessionRepo) UpdateTable(ctx context.Context, id, tableID uuid.UUID) error {
	return sr.exec(ctx, id, `UPDATE table_sessions SET table_id = $2 WHERE id = $1`, tableID)
}

func (sr *SessionRepo) Close(ctx context.Context, id uuid.UUID, method string, smac bool, closedAt time.Time) error {
	q := `UPDATE table_sessions
		SET status = 'closed', closed_at = $2, closing_payment_method = $3, closing_smac_flag = $4
		WHERE id = $1`
	return sr.exec(ctx, id, q, closedAt, method, smac)
}

// Delete relies on ON DELETE CASCADE for orders, items, payments and log.
func (sr *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return sr.exec(ctx, id, `DELETE FROM table_sessions WHERE id = $1`)
}

func (sr *SessionRepo) AppendLog(ctx context.Context, e models.SessionLogEntry) error {
	q := `INSERT INTO session_status_log (id, session_id, action, changed_by, note, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := sr.q.Exec(ctx, q, e.ID, e.SessionID, e.Action, e.ChangedBy, e.Note, e.ChangedAt); err != nil {
		return fmt.Errorf("insert session log: %w", err)
	}
	return nil
}

func (sr *SessionRepo) History(ctx context.Context, id uuid.UUID) ([]models.SessionLogEntry, error) {
	q := `SELECT id, session_id, action, changed_by, note, changed_at
		FROM session_status_log WHERE session_id = $1 ORDER BY seq`

	rows, err := sr.q.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("query session log: %w", err)
	}
	defer rows.Close()

	entries := []models.SessionLogEntry{}
	for rows.Next() {
		var e models.SessionLogEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Action, &e.ChangedBy, &e.Note, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan session log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
