package settlement

import (
	"os"
	"path/filepath"
	"testing"

	"wheres-my-tab/internal/settlement/app/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"--port=4000", "--store=memory"})
	require.NoError(t, err)
	assert.Equal(t, 4000, p.settlementParams.Port)
	assert.Equal(t, core.StoreMemory, p.settlementParams.Store)

	p, err = parseParams(nil)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultPort, p.settlementParams.Port)
	assert.Equal(t, core.StorePostgres, p.settlementParams.Store)

	_, err = parseParams([]string{"--help"})
	assert.ErrorIs(t, err, core.ErrHelp)

	_, err = parseParams([]string{"--no-such-flag"})
	assert.Error(t, err)
}

func TestValidateParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settlement:\n  cover_unit_price: \"1.50\"\n"), 0o600))

	tests := []struct {
		name    string
		port    int
		store   string
		wantErr bool
	}{
		{name: "valid", port: 3001, store: core.StoreMemory},
		{name: "port zero", port: 0, store: core.StoreMemory, wantErr: true},
		{name: "port too big", port: 70000, store: core.StorePostgres, wantErr: true},
		{name: "unknown store", port: 3001, store: "sqlite", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &params{
				settlementParams: &core.SettlementParams{Port: tt.port, Store: tt.store},
				configPath:       path,
			}
			err := validateParams(p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "1.50", p.cfg.Settlement.CoverUnitPrice)
		})
	}
}
