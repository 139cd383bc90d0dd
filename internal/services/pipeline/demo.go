package pipeline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
)

const demoPortfolioName = "Demo Portfolio"

// DemoTenant returns the built-in demo client.
func DemoTenant(id string) models.Tenant {
	return models.Tenant{
		ID:        id,
		FirstName: "Demo",
		LastName:  "Client",
		Email:     "demo@example.com",
		Active:    true,
	}
}

// demoRepository serves the demo tenant from memory so demo runs never touch
// the configured tenant source.
type demoRepository struct {
	tenant  models.Tenant
	symbols []string
}

var _ interfaces.TenantRepository = (*demoRepository)(nil)

func newDemoRepository(id string, symbols []string) *demoRepository {
	return &demoRepository{tenant: DemoTenant(id), symbols: symbols}
}

func (r *demoRepository) ListActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	return []models.Tenant{r.tenant}, nil
}

func (r *demoRepository) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	if tenantID != r.tenant.ID {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrTenantNotFound, tenantID)
	}
	tenant := r.tenant
	return &tenant, nil
}

func (r *demoRepository) LoadPortfolios(ctx context.Context, tenantID string) ([]models.Portfolio, error) {
	if tenantID != r.tenant.ID {
		return nil, nil
	}
	return []models.Portfolio{{ID: 1, TenantID: tenantID, Name: demoPortfolioName}}, nil
}

func (r *demoRepository) LoadAssets(ctx context.Context, portfolioID int64) ([]models.Asset, error) {
	if portfolioID != 1 {
		return nil, nil
	}
	assets := make([]models.Asset, 0, len(r.symbols))
	for i, symbol := range r.symbols {
		assets = append(assets, models.Asset{
			ID:               int64(i + 1),
			PortfolioID:      portfolioID,
			Symbol:           symbol,
			Quantity:         decimal.NewFromInt(1),
			AcquisitionPrice: decimal.Zero,
		})
	}
	return assets, nil
}
