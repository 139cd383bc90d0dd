package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
)

func newTestRepository(t *testing.T) *TenantRepository {
	t.Helper()

	db, err := NewSQLiteDB(arbor.NewLogger(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewTenantRepository(db, arbor.NewLogger())
}

func TestNewSQLiteDB_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := NewSQLiteDB(arbor.NewLogger(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteDB(arbor.NewLogger(), path)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestTenantRepository_Hierarchy(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveTenant(ctx, &models.Tenant{ID: "u2", FirstName: "Ana", LastName: "Ruiz", Active: true}))
	require.NoError(t, repo.SaveTenant(ctx, &models.Tenant{ID: "u1", FirstName: "Bo", Email: "bo@example.com", Active: true}))
	require.NoError(t, repo.SaveTenant(ctx, &models.Tenant{ID: "u3", Active: false}))

	tenants, err := repo.ListActiveTenants(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "u1", tenants[0].ID)
	assert.Equal(t, "u2", tenants[1].ID)
	assert.Equal(t, "Ana Ruiz", tenants[1].DisplayName())

	portfolioID, err := repo.CreatePortfolio(ctx, &models.Portfolio{TenantID: "u1", Name: "Growth"})
	require.NoError(t, err)

	acquired := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = repo.AddAsset(ctx, &models.Asset{
		PortfolioID:      portfolioID,
		Symbol:           "NVD.F",
		Quantity:         decimal.RequireFromString("1.5"),
		AcquisitionPrice: decimal.RequireFromString("100.10"),
		AcquisitionDate:  &acquired,
	})
	require.NoError(t, err)
	secondID, err := repo.AddAsset(ctx, &models.Asset{
		PortfolioID:      portfolioID,
		Symbol:           "BTCUSD",
		Quantity:         decimal.RequireFromString("0.25"),
		AcquisitionPrice: decimal.RequireFromString("40000"),
	})
	require.NoError(t, err)

	portfolios, err := repo.LoadPortfolios(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, portfolios, 1)
	assert.Equal(t, "Growth", portfolios[0].Name)

	assets, err := repo.LoadAssets(ctx, portfolioID)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "NVD.F", assets[0].Symbol)
	assert.True(t, assets[0].Quantity.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, assets[0].CostBasis().Equal(decimal.RequireFromString("150.15")))
	require.NotNil(t, assets[0].AcquisitionDate)
	assert.True(t, assets[0].AcquisitionDate.Equal(acquired))
	assert.Nil(t, assets[1].AcquisitionDate)

	require.NoError(t, repo.DeleteAsset(ctx, secondID))
	assets, err = repo.LoadAssets(ctx, portfolioID)
	require.NoError(t, err)
	assert.Len(t, assets, 1)

	none, err := repo.LoadPortfolios(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTenantRepository_GetTenant(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveTenant(ctx, &models.Tenant{ID: "u1", FirstName: "Bo", Active: true}))
	require.NoError(t, repo.SaveTenant(ctx, &models.Tenant{ID: "u1", FirstName: "Bob", Active: true}))

	tenant, err := repo.GetTenant(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Bob", tenant.FirstName)
	assert.False(t, tenant.CreatedAt.IsZero())

	_, err = repo.GetTenant(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrTenantNotFound)
}
