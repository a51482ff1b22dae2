package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  host: db
  port: "5432"
  user: admin
  password: secret
  database: restaurant_db
rabbitmq:
  host: mq
  port: "5672"
  user: guest
  password: guest
settlement:
  cover_unit_price: "1.50"
shop:
  name: Trattoria
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.DB.Host)
	assert.Equal(t, int32(10), cfg.DB.MaxConns)
	assert.True(t, cfg.BrokerEnabled())
	assert.Equal(t, "1.50", cfg.Settlement.CoverUnitPrice)
	assert.Equal(t, "Coperto", cfg.Settlement.CoverLabel)
	assert.Equal(t, "Partial payment", cfg.Settlement.PartialPaymentLabel)
	assert.Equal(t, 60, cfg.Settlement.SettingsCacheTTLSeconds)
	assert.Equal(t, "Trattoria", cfg.Shop.Name)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("COVER_UNIT_PRICE", "2.00")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RABBITMQ_HOST", "")

	cfg := LoadDotEnv()

	assert.Equal(t, "2.00", cfg.Settlement.CoverUnitPrice)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.BrokerEnabled())
	assert.Equal(t, "localhost", cfg.DB.Host)
}
