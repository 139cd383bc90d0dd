// -----------------------------------------------------------------------
// Market data gateway: category routing, provider fallback, pacing,
// per-call timeouts and the per-run unavailable-provider set
// -----------------------------------------------------------------------

package market

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
	"github.com/ternarybob/foliogen/internal/services/pacing"
)

// DefaultMaxConsecutiveTimeouts marks a provider unavailable after this many
// back-to-back call timeouts.
const DefaultMaxConsecutiveTimeouts = 3

// Routes maps each category to the ordered providers that may serve it.
type Routes map[models.Category][]string

// DefaultRoutes prefers Yahoo and falls back to EODHD for every category.
func DefaultRoutes() Routes {
	routes := make(Routes, len(models.Categories))
	for _, category := range models.Categories {
		routes[category] = []string{ProviderYahoo, ProviderEODHD}
	}
	return routes
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	Routes                 Routes
	RequestTimeout         time.Duration
	MaxConsecutiveTimeouts int
}

// Gateway fronts the registered providers for one run.
// A Gateway is not reused across runs: its unavailable set is run-scoped.
type Gateway struct {
	providers   map[string]interfaces.MarketDataProvider
	order       []string
	routes      Routes
	pacer       *pacing.Pacer
	timeout     time.Duration
	maxTimeouts int
	logger      arbor.ILogger

	mu          sync.Mutex
	unavailable map[string]error
	timeouts    map[string]int
}

var _ interfaces.MarketDataGateway = (*Gateway)(nil)

// NewGateway builds a gateway over providers. Route entries naming
// unregistered providers are dropped.
func NewGateway(providers []interfaces.MarketDataProvider, options GatewayOptions, pacer *pacing.Pacer, logger arbor.ILogger) *Gateway {
	if pacer == nil {
		pacer = pacing.NewPacer(pacing.ZeroPolicy(), logger)
	}
	if options.MaxConsecutiveTimeouts <= 0 {
		options.MaxConsecutiveTimeouts = DefaultMaxConsecutiveTimeouts
	}
	if options.Routes == nil {
		options.Routes = DefaultRoutes()
	}

	g := &Gateway{
		providers:   make(map[string]interfaces.MarketDataProvider, len(providers)),
		routes:      make(Routes, len(options.Routes)),
		pacer:       pacer,
		timeout:     options.RequestTimeout,
		maxTimeouts: options.MaxConsecutiveTimeouts,
		logger:      logger,
		unavailable: make(map[string]error),
		timeouts:    make(map[string]int),
	}

	for _, provider := range providers {
		if provider == nil {
			continue
		}
		if _, exists := g.providers[provider.Name()]; !exists {
			g.order = append(g.order, provider.Name())
		}
		g.providers[provider.Name()] = provider
	}

	for category, names := range options.Routes {
		for _, name := range names {
			if _, ok := g.providers[name]; ok {
				g.routes[category] = append(g.routes[category], name)
				continue
			}
			if logger != nil {
				logger.Debug().
					Str("category", string(category)).
					Str("provider", name).
					Msg("Route names an unregistered provider; skipping")
			}
		}
	}

	return g
}

// Verify probes every registered provider once and returns the sorted names
// of those that failed. Failed providers stay unavailable for the run.
func (g *Gateway) Verify(ctx context.Context) []string {
	for _, name := range g.order {
		provider := g.providers[name]

		err := g.pacer.Wait(ctx, name)
		if err == nil {
			err = g.call(ctx, func(callCtx context.Context) error {
				return provider.Verify(callCtx)
			})
		}

		if err != nil {
			g.markUnavailable(name, err)
			if g.logger != nil {
				g.logger.Warn().
					Str("provider", name).
					Err(err).
					Msg("Provider failed verification; disabled for this run")
			}
			continue
		}

		if g.logger != nil {
			g.logger.Info().Str("provider", name).Msg("Provider verified")
		}
	}

	return g.Unavailable()
}

// Unavailable returns the sorted names of providers disabled for this run.
func (g *Gateway) Unavailable() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	names := make([]string, 0, len(g.unavailable))
	for name := range g.unavailable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch retrieves one category for one canonical symbol, trying each routed
// provider in order until one succeeds. It never panics on provider failure;
// the failure is carried in the result.
func (g *Gateway) Fetch(ctx context.Context, symbol string, category models.Category) models.FetchResult {
	result := models.FetchResult{Symbol: symbol, Category: category}

	if !category.IsValid() {
		result.Err = fmt.Errorf("%w: %s", interfaces.ErrUnsupportedCategory, category)
		return result
	}

	names := g.routes[category]
	if len(names) == 0 {
		result.Err = fmt.Errorf("no provider routed for %s", category)
		return result
	}

	var errs []error
	for _, name := range names {
		provider := g.providers[name]
		result.Provider = name

		if cause := g.unavailableCause(name); cause != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, interfaces.ErrProviderUnavailable))
			continue
		}
		if !provider.Supports(category) {
			errs = append(errs, fmt.Errorf("%s: %w: %s", name, interfaces.ErrUnsupportedCategory, category))
			continue
		}

		if err := g.pacer.Wait(ctx, name); err != nil {
			errs = append(errs, err)
			break
		}

		err := g.call(ctx, func(callCtx context.Context) error {
			return fetchInto(callCtx, provider, symbol, category, &result)
		})
		g.recordOutcome(name, err)

		if err == nil {
			result.Err = nil
			return result
		}

		if g.logger != nil {
			g.logger.Warn().
				Str("provider", name).
				Str("symbol", symbol).
				Str("category", string(category)).
				Err(err).
				Msg("Market data fetch failed")
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))

		if ctx.Err() != nil {
			break
		}
	}

	result.Err = errors.Join(errs...)
	return result
}

// call runs fn under the per-call timeout.
func (g *Gateway) call(ctx context.Context, fn func(context.Context) error) error {
	if g.timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err := fn(callCtx)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("timed out after %s: %w", g.timeout, context.DeadlineExceeded)
	}
	return err
}

// recordOutcome tracks consecutive timeouts and disables a provider once
// every recent call to it has timed out.
func (g *Gateway) recordOutcome(name string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err == nil || !errors.Is(err, context.DeadlineExceeded) {
		g.timeouts[name] = 0
		return
	}

	g.timeouts[name]++
	if g.timeouts[name] >= g.maxTimeouts {
		if _, already := g.unavailable[name]; !already {
			g.unavailable[name] = err
			if g.logger != nil {
				g.logger.Warn().
					Str("provider", name).
					Int("timeouts", g.timeouts[name]).
					Msg("Provider timing out repeatedly; disabled for this run")
			}
		}
	}
}

func (g *Gateway) markUnavailable(name string, err error) {
	g.mu.Lock()
	g.unavailable[name] = err
	g.mu.Unlock()
}

func (g *Gateway) unavailableCause(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unavailable[name]
}

func fetchInto(ctx context.Context, provider interfaces.MarketDataProvider, symbol string, category models.Category, result *models.FetchResult) error {
	switch category {
	case models.CategoryProfile:
		profile, err := provider.FetchProfile(ctx, symbol)
		if err != nil {
			return err
		}
		result.Profile = profile
	case models.CategoryStatements:
		statements, err := provider.FetchStatements(ctx, symbol)
		if err != nil {
			return err
		}
		result.Statements = statements
	case models.CategoryPrices:
		prices, err := provider.FetchPrices(ctx, symbol)
		if err != nil {
			return err
		}
		result.Prices = prices
	case models.CategoryNews:
		news, err := provider.FetchNews(ctx, symbol)
		if err != nil {
			return err
		}
		result.News = news
	default:
		return fmt.Errorf("%w: %s", interfaces.ErrUnsupportedCategory, category)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// tail returns the last n bars.
func tail(bars []models.PriceBar, n int) []models.PriceBar {
	if n > 0 && len(bars) > n {
		return bars[len(bars)-n:]
	}
	return bars
}
