package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/foliogen/internal/models"
)

// ErrTenantNotFound is returned by GetTenant when no tenant has the requested id.
var ErrTenantNotFound = errors.New("tenant not found")

// TenantRepository supplies the tenant -> portfolio -> asset hierarchy.
// Portfolios and assets are loaded lazily, only for tenants being processed.
type TenantRepository interface {
	ListActiveTenants(ctx context.Context) ([]models.Tenant, error)
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	LoadPortfolios(ctx context.Context, tenantID string) ([]models.Portfolio, error)
	LoadAssets(ctx context.Context, portfolioID int64) ([]models.Asset, error)
}

// TenantStore is a TenantRepository that can also be written to (seeding, admin tooling).
type TenantStore interface {
	TenantRepository
	SaveTenant(ctx context.Context, tenant *models.Tenant) error
	CreatePortfolio(ctx context.Context, portfolio *models.Portfolio) (int64, error)
	AddAsset(ctx context.Context, asset *models.Asset) (int64, error)
	DeleteAsset(ctx context.Context, assetID int64) error
}
