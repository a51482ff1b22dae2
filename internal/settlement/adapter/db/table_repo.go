package db

import (
	"context"
	"fmt"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/google/uuid"
)

type TableRepo struct {
	q querier
}

func (tr *TableRepo) List(ctx context.Context) ([]models.Table, error) {
	rows, err := tr.q.Query(ctx, `SELECT id, number, name, status FROM restaurant_tables ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := []models.Table{}
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Name, &t.Status); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (tr *TableRepo) get(ctx context.Context, q string, id uuid.UUID) (models.Table, error) {
	var t models.Table
	if err := tr.q.QueryRow(ctx, q, id).Scan(&t.ID, &t.Number, &t.Name, &t.Status); err != nil {
		return models.Table{}, notFound(err, core.ErrTableNotFound)
	}
	return t, nil
}

func (tr *TableRepo) Get(ctx context.Context, id uuid.UUID) (models.Table, error) {
	return tr.get(ctx, `SELECT id, number, name, status FROM restaurant_tables WHERE id = $1`, id)
}

func (tr *TableRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (models.Table, error) {
	return tr.get(ctx, `SELECT id, number, name, status FROM restaurant_tables WHERE id = $1 FOR UPDATE`, id)
}

func (tr *TableRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := tr.q.Exec(ctx, `UPDATE restaurant_tables SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update table status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrTableNotFound
	}
	return nil
}
