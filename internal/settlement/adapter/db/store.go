package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/xpkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// querier is what pgx.Tx and *pgxpool.Pool share.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool  *pgxpool.Pool
	mylog logger.Logger
}

func NewStore(pool *pgxpool.Pool, mylog logger.Logger) *Store {
	return &Store{pool: pool, mylog: mylog}
}

// Migrate creates the schema when it is missing and seeds the dining room.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.mylog.Action("db_migrated").Info("Database schema is up to date")
	return nil
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Repos() core.Repos {
	return reposFor(s.pool)
}

// WithinTx runs fn in one transaction. Repositories lock rows with
// SELECT ... FOR UPDATE, so concurrent writers of the same session queue up.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r core.Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", core.ErrDBConn, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, reposFor(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (s *Store) IsAlive(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrDBConn, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func reposFor(q querier) core.Repos {
	return core.Repos{
		Sessions: &SessionRepo{q: q},
		Orders:   &OrderRepo{q: q},
		Payments: &PaymentRepo{q: q},
		Tables:   &TableRepo{q: q},
	}
}

// notFound turns pgx.ErrNoRows into the given domain error.
func notFound(err, domainErr error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domainErr
	}
	return err
}

// mapError turns the one constraint the services rely on into its domain
// error.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == "table_sessions_one_open_per_table" {
		return core.ErrTableAlreadyOpen
	}
	return err
}
