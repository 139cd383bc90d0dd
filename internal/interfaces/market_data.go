package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/foliogen/internal/models"
)

var (
	// ErrProviderUnavailable marks fetches skipped because the provider was disabled for the run.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrUnsupportedCategory is returned when a provider has no endpoint for a category.
	ErrUnsupportedCategory = errors.New("category not supported by provider")
)

// MarketDataProvider is one external market data source.
// Every call is independently failable; symbols are canonical (normalized) symbols.
type MarketDataProvider interface {
	Name() string
	Supports(category models.Category) bool

	// Verify performs a lightweight call to confirm the provider is reachable.
	Verify(ctx context.Context) error

	FetchProfile(ctx context.Context, symbol string) (*models.Profile, error)
	FetchStatements(ctx context.Context, symbol string) (*models.Statements, error)
	FetchPrices(ctx context.Context, symbol string) (*models.PriceHistory, error)
	FetchNews(ctx context.Context, symbol string) ([]models.NewsItem, error)
}

// MarketDataGateway fetches one category for one symbol through the configured providers.
type MarketDataGateway interface {
	Verify(ctx context.Context) (unavailable []string)
	Fetch(ctx context.Context, symbol string, category models.Category) models.FetchResult
}
