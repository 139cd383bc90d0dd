package yamlfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/storage/sqlite"
)

const sampleTenants = `
tenants:
  - id: user_b
    first_name: Ana
    last_name: Ruiz
    portfolios:
      - name: Growth
        assets:
          - { symbol: NVD.F, quantity: "10", price: "95.20", acquired: "2024-03-01" }
          - { symbol: NVDA, quantity: "2", price: "120" }
      - name: Crypto
        assets:
          - { symbol: BTCUSD, quantity: "0.5", price: "40000" }
  - id: user_a
    first_name: Bo
  - id: user_c
    active: false
`

func writeTenantFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTenants), 0644))
	return path
}

func TestRepository_LoadsHierarchy(t *testing.T) {
	repo, err := NewRepository(writeTenantFile(t), arbor.NewLogger())
	require.NoError(t, err)
	ctx := context.Background()

	tenants, err := repo.ListActiveTenants(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "user_a", tenants[0].ID)
	assert.Equal(t, "user_b", tenants[1].ID)

	portfolios, err := repo.LoadPortfolios(ctx, "user_b")
	require.NoError(t, err)
	require.Len(t, portfolios, 2)
	assert.Equal(t, int64(1), portfolios[0].ID)
	assert.Equal(t, "Crypto", portfolios[1].Name)

	assets, err := repo.LoadAssets(ctx, portfolios[0].ID)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "NVD.F", assets[0].Symbol)
	assert.True(t, assets[0].CostBasis().Equal(decimal.RequireFromString("952")))
	require.NotNil(t, assets[0].AcquisitionDate)
	assert.Nil(t, assets[1].AcquisitionDate)

	inactive, err := repo.GetTenant(ctx, "user_c")
	require.NoError(t, err)
	assert.False(t, inactive.Active)

	_, err = repo.GetTenant(ctx, "nobody")
	assert.ErrorIs(t, err, interfaces.ErrTenantNotFound)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing id", "tenants:\n  - first_name: X\n"},
		{"duplicate id", "tenants:\n  - id: a\n  - id: a\n"},
		{"not yaml", "tenants: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}

	file, err := Parse([]byte("tenants:\n  - id: a\n    portfolios:\n      - name: P\n        assets:\n          - { symbol: X, quantity: lots }\n"))
	require.NoError(t, err)
	_, err = NewRepositoryFromFile(file, arbor.NewLogger())
	assert.Error(t, err)
}

func TestSeed_IntoSQLite(t *testing.T) {
	db, err := sqlite.NewSQLiteDB(arbor.NewLogger(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()
	store := sqlite.NewTenantRepository(db, arbor.NewLogger())
	ctx := context.Background()

	file, err := LoadFile(writeTenantFile(t))
	require.NoError(t, err)

	result, err := Seed(ctx, store, file, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Tenants: 3, Portfolios: 2, Assets: 3}, result)

	again, err := Seed(ctx, store, file, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Portfolios)
	assert.Equal(t, 2, again.Skipped)

	active, err := store.ListActiveTenants(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	portfolios, err := store.LoadPortfolios(ctx, "user_b")
	require.NoError(t, err)
	require.Len(t, portfolios, 2)

	assets, err := store.LoadAssets(ctx, portfolios[0].ID)
	require.NoError(t, err)
	assert.Len(t, assets, 2)
}
