package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/models"
	"github.com/ternarybob/foliogen/internal/services/market"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := common.NewDefaultConfig()
	cfg.Tenants.SQLitePath = filepath.Join(dir, "tenants.db")
	cfg.Storage.Badger.Enabled = false
	cfg.Storage.Filesystem.Enabled = true
	cfg.Storage.Filesystem.Path = filepath.Join(dir, "reports")
	return cfg
}

func TestNew_WiresEnabledProviders(t *testing.T) {
	cfg := testConfig(t)
	cfg.Market.EODHD.Enabled = true
	cfg.Market.EODHD.APIKey = "demo"

	a, err := New(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	require.Len(t, a.Providers, 2)
	assert.Equal(t, market.ProviderYahoo, a.Providers[0].Name())
	assert.Equal(t, market.ProviderEODHD, a.Providers[1].Name())
	assert.Equal(t, "filesystem", a.Storage.Writer().Name())
}

func TestNew_RequiresAProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Market.Yahoo.Enabled = false

	_, err := New(context.Background(), cfg, arbor.NewLogger())
	assert.Error(t, err)
}

func TestNew_OpensTenantSourceLazily(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	_, statErr := os.Stat(cfg.Tenants.SQLitePath)
	assert.True(t, os.IsNotExist(statErr), "tenant database is not opened at startup")

	tenants, err := a.Tenants.ListActiveTenants(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tenants)

	_, statErr = os.Stat(cfg.Tenants.SQLitePath)
	assert.NoError(t, statErr)
}

func TestRoutesFromConfig(t *testing.T) {
	assert.Nil(t, routesFromConfig(nil))

	routes := routesFromConfig(map[string][]string{"news": {"eodhd"}})
	assert.Equal(t, []string{"eodhd"}, routes[models.Category("news")])
	assert.Equal(t, market.DefaultRoutes()[models.Category("profile")], routes[models.Category("profile")])
}
