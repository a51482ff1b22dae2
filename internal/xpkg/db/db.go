package db

import (
	"context"
	"fmt"
	"time"

	"wheres-my-tab/internal/xpkg/config"
	"wheres-my-tab/internal/xpkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const connectTimeout = 10 * time.Second

type DB struct {
	pool  *pgxpool.Pool
	mylog logger.Logger
}

// Start opens a connection pool and verifies it with a ping.
func Start(ctx context.Context, dbCfg *config.Postgres, mylog logger.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(dbCfg))
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if dbCfg.MaxConns > 0 {
		poolCfg.MaxConns = dbCfg.MaxConns
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	mylog.Action("db_connected").Info("Connected to PostgreSQL", "host", dbCfg.Host, "database", dbCfg.Database)
	return &DB{pool: pool, mylog: mylog}, nil
}

func DSN(dbCfg *config.Postgres) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.Database,
	)
}

func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// IsAlive pings the pool to verify the database is responsive
func (d *DB) IsAlive(ctx context.Context) error {
	if d.pool == nil {
		return fmt.Errorf("DB is not initialized")
	}
	return d.pool.Ping(ctx)
}

func (d *DB) Close() error {
	if d.pool != nil {
		d.pool.Close()
	}
	return nil
}
