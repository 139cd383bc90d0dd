package yamlfile

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
)

// SeedResult counts what Seed wrote.
type SeedResult struct {
	Tenants    int
	Portfolios int
	Assets     int
	Skipped    int // portfolios that already existed by name
}

// Seed imports a tenant document into a writable store.
// Tenants are upserted; a portfolio whose name already exists for the tenant is left untouched,
// so seeding the same file twice does not duplicate assets.
func Seed(ctx context.Context, store interfaces.TenantStore, file *File, logger arbor.ILogger) (SeedResult, error) {
	var result SeedResult

	for _, entry := range file.Tenants {
		tenant := entry.tenant()
		if err := store.SaveTenant(ctx, &tenant); err != nil {
			return result, err
		}
		result.Tenants++

		existing, err := store.LoadPortfolios(ctx, entry.ID)
		if err != nil {
			return result, err
		}
		names := make(map[string]bool, len(existing))
		for _, p := range existing {
			names[p.Name] = true
		}

		for _, p := range entry.Portfolios {
			if names[p.Name] {
				logger.Debug().Str("tenant_id", entry.ID).Str("portfolio", p.Name).Msg("Portfolio already seeded")
				result.Skipped++
				continue
			}

			id, err := store.CreatePortfolio(ctx, &models.Portfolio{
				TenantID:    entry.ID,
				Name:        p.Name,
				Description: p.Description,
			})
			if err != nil {
				return result, err
			}
			result.Portfolios++

			for _, a := range p.Assets {
				asset, err := a.asset(id)
				if err != nil {
					return result, fmt.Errorf("tenant %s portfolio %q: %w", entry.ID, p.Name, err)
				}
				if _, err := store.AddAsset(ctx, &asset); err != nil {
					return result, err
				}
				result.Assets++
			}
		}
	}

	logger.Info().
		Int("tenants", result.Tenants).
		Int("portfolios", result.Portfolios).
		Int("assets", result.Assets).
		Int("skipped", result.Skipped).
		Msg("Seed complete")
	return result, nil
}
