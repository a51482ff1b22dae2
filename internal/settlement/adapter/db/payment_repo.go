package db

import (
	"context"
	"fmt"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, session_id, amount, payment_method, paid_at, notes, smac_flag, paid_items`

// PaymentRepo has no update or delete: the ledger only grows.
type PaymentRepo struct {
	q querier
}

func scanPayment(row pgx.Row) (models.SessionPayment, error) {
	var p models.SessionPayment
	err := row.Scan(&p.ID, &p.SessionID, &p.Amount, &p.PaymentMethod, &p.PaidAt, &p.Notes, &p.Smac, &p.PaidItems)
	if p.PaidItems == nil {
		p.PaidItems = []models.PaidItem{}
	}
	return p, err
}

func (pr *PaymentRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.SessionPayment, error) {
	q := `SELECT ` + paymentColumns + ` FROM session_payments WHERE session_id = $1 ORDER BY seq`

	rows, err := pr.q.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []models.SessionPayment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (pr *PaymentRepo) Get(ctx context.Context, id uuid.UUID) (models.SessionPayment, error) {
	q := `SELECT ` + paymentColumns + ` FROM session_payments WHERE id = $1`
	p, err := scanPayment(pr.q.QueryRow(ctx, q, id))
	if err != nil {
		return models.SessionPayment{}, notFound(err, core.ErrPaymentNotFound)
	}
	return p, nil
}

func (pr *PaymentRepo) Append(ctx context.Context, p models.SessionPayment) error {
	paidItems := p.PaidItems
	if paidItems == nil {
		paidItems = []models.PaidItem{}
	}

	q := `INSERT INTO session_payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := pr.q.Exec(ctx, q, p.ID, p.SessionID, p.Amount, p.PaymentMethod, p.PaidAt, p.Notes, p.Smac, paidItems)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}
