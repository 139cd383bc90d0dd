package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
)

// loadHoldings walks a tenant's portfolios and assets and merges every asset into
// one Holding per canonical symbol, ordered by symbol. The second return value is
// the number of stored asset rows seen.
func loadHoldings(ctx context.Context, repo interfaces.TenantRepository, tenantID string, logger arbor.ILogger) ([]models.Holding, int, error) {
	portfolios, err := repo.LoadPortfolios(ctx, tenantID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load portfolios: %w", err)
	}

	bySymbol := make(map[string]*models.Holding)
	rows := 0

	for _, portfolio := range portfolios {
		assets, err := repo.LoadAssets(ctx, portfolio.ID)
		if err != nil {
			return nil, rows, fmt.Errorf("failed to load assets of portfolio %q: %w", portfolio.Name, err)
		}

		for _, asset := range assets {
			rows++

			symbol, rule := common.ClassifySymbol(asset.Symbol)
			if symbol == "" {
				logger.Warn().Int64("asset_id", asset.ID).Msg("Skipping asset with empty symbol")
				continue
			}
			if rule != common.SymbolRuleUnchanged {
				logger.Debug().
					Str("raw", asset.Symbol).
					Str("symbol", symbol).
					Str("rule", string(rule)).
					Msg("Symbol normalized")
			}

			holding, ok := bySymbol[symbol]
			if !ok {
				holding = &models.Holding{
					Symbol:    symbol,
					Quantity:  decimal.Zero,
					CostBasis: decimal.Zero,
				}
				bySymbol[symbol] = holding
			}
			holding.RawSymbols = appendUnique(holding.RawSymbols, asset.Symbol)
			holding.Portfolios = appendUnique(holding.Portfolios, portfolio.Name)
			holding.Quantity = holding.Quantity.Add(asset.Quantity)
			holding.CostBasis = holding.CostBasis.Add(asset.CostBasis())
		}
	}

	holdings := make([]models.Holding, 0, len(bySymbol))
	for _, h := range bySymbol {
		sort.Strings(h.RawSymbols)
		sort.Strings(h.Portfolios)
		holdings = append(holdings, *h)
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })

	return holdings, rows, nil
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
