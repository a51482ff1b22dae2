// Package settings provides the cover unit price from configuration, the
// settings table and an optional Redis cache in front of either.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wheres-my-tab/internal/xpkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	KeyCoverUnitPrice = "cover_unit_price"

	cacheKeyPrefix = "settings:"
)

var ErrInvalidPrice = errors.New("cover unit price must be a non-negative number")

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	return price, nil
}

// Static always answers with the configured price.
type Static struct {
	price decimal.Decimal
}

func NewStatic(raw string) (*Static, error) {
	price, err := parsePrice(raw)
	if err != nil {
		return nil, err
	}
	return &Static{price: price}, nil
}

func (s *Static) CoverUnitPrice(context.Context) (decimal.Decimal, error) {
	return s.price, nil
}

// Postgres reads the settings table and falls back to the configured price
// when the row is missing.
type Postgres struct {
	pool     *pgxpool.Pool
	fallback decimal.Decimal
}

func NewPostgres(pool *pgxpool.Pool, fallback *Static) *Postgres {
	return &Postgres{pool: pool, fallback: fallback.price}
}

func (p *Postgres) CoverUnitPrice(ctx context.Context) (decimal.Decimal, error) {
	var raw string
	err := p.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, KeyCoverUnitPrice).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return p.fallback, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("query settings: %w", err)
	}
	return parsePrice(raw)
}

type provider interface {
	CoverUnitPrice(ctx context.Context) (decimal.Decimal, error)
}

// Cache is a read-through Redis cache. Redis failures are logged and the
// wrapped provider answers instead.
type Cache struct {
	next  provider
	rdb   redis.Cmdable
	ttl   time.Duration
	mylog logger.Logger
}

func NewCache(next provider, rdb redis.Cmdable, ttl time.Duration, mylog logger.Logger) *Cache {
	return &Cache{next: next, rdb: rdb, ttl: ttl, mylog: mylog}
}

func (c *Cache) CoverUnitPrice(ctx context.Context) (decimal.Decimal, error) {
	key := cacheKeyPrefix + KeyCoverUnitPrice

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if price, perr := parsePrice(raw); perr == nil {
			return price, nil
		}
		c.mylog.Action("settings_cache_corrupt").Warn("Dropping unreadable cached value", "key", key, "value", raw)
	case errors.Is(err, redis.Nil):
	default:
		c.mylog.Action("settings_cache_unavailable").Warn("Redis GET failed", "key", key, "error", err.Error())
	}

	price, err := c.next.CoverUnitPrice(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if err := c.rdb.Set(ctx, key, price.String(), c.ttl).Err(); err != nil {
		c.mylog.Action("settings_cache_unavailable").Warn("Redis SET failed", "key", key, "error", err.Error())
	}
	return price, nil
}

// Connect opens a Redis client and pings it. It returns nil when addr is
// empty.
func Connect(ctx context.Context, addr, password string, db int, mylog logger.Logger) (*redis.Client, error) {
	if addr == "" {
		mylog.Action("redis_disabled").Warn("REDIS_ADDR is not set, settings cache is disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	mylog.Action("redis_connected").Info("Connected to Redis", "addr", addr)
	return rdb, nil
}
