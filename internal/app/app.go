package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/eodhd"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
	"github.com/ternarybob/foliogen/internal/services/market"
	"github.com/ternarybob/foliogen/internal/services/pacing"
	"github.com/ternarybob/foliogen/internal/services/pipeline"
	"github.com/ternarybob/foliogen/internal/services/reports"
	"github.com/ternarybob/foliogen/internal/services/scheduler"
	"github.com/ternarybob/foliogen/internal/storage"
	"github.com/ternarybob/foliogen/internal/yahoo"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Storage      *storage.Manager
	Tenants      *lazyTenants
	Providers    []interfaces.MarketDataProvider
	Builder      *reports.Builder
	Orchestrator *pipeline.Orchestrator
	Scheduler    *scheduler.Service
}

// New initializes the application with all dependencies.
// The tenant source is opened on first use, so demo runs never touch it.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if logger == nil {
		logger = common.GetLogger()
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.initProviders()
	if len(app.Providers) == 0 {
		app.Close()
		return nil, fmt.Errorf("no market data provider enabled")
	}

	app.initServices()

	logger.Info().
		Int("providers", len(app.Providers)).
		Str("storage", app.Storage.Writer().Name()).
		Str("tenant_source", cfg.Tenants.Source).
		Msg("Application initialized")
	return app, nil
}

func (a *App) initStorage(ctx context.Context) error {
	manager, err := storage.NewManager(ctx, &a.Config.Storage, a.Logger, reports.RenderHTML)
	if err != nil {
		return err
	}
	a.Storage = manager
	a.Tenants = &lazyTenants{config: &a.Config.Tenants, logger: a.Logger}
	return nil
}

// initProviders registers providers in fallback order: Yahoo, then EODHD.
func (a *App) initProviders() {
	marketCfg := a.Config.Market
	timeout := marketCfg.RequestTimeoutDuration()

	if marketCfg.Yahoo.Enabled {
		opts := []yahoo.ClientOption{yahoo.WithLogger(a.Logger), yahoo.WithTimeout(timeout)}
		if marketCfg.Yahoo.BaseURL != "" {
			opts = append(opts, yahoo.WithBaseURL(marketCfg.Yahoo.BaseURL))
		}
		if marketCfg.Yahoo.SessionURL != "" {
			opts = append(opts, yahoo.WithSessionURL(marketCfg.Yahoo.SessionURL))
		}
		a.Providers = append(a.Providers, market.NewYahooProvider(yahoo.NewClient(opts...), market.YahooOptions{
			ProbeSymbol: marketCfg.ProbeSymbol,
			HistoryDays: marketCfg.HistoryDays,
			Intraday:    marketCfg.Yahoo.Intraday,
			NewsCount:   marketCfg.Yahoo.NewsCount,
		}))
	}

	if marketCfg.EODHD.Enabled {
		opts := []eodhd.ClientOption{eodhd.WithLogger(a.Logger)}
		if marketCfg.EODHD.BaseURL != "" {
			opts = append(opts, eodhd.WithBaseURL(marketCfg.EODHD.BaseURL))
		}
		a.Providers = append(a.Providers, market.NewEODHDProvider(eodhd.NewClient(marketCfg.EODHD.APIKey, opts...), market.EODHDOptions{
			ProbeSymbol: marketCfg.ProbeSymbol,
			HistoryDays: marketCfg.HistoryDays,
			NewsCount:   marketCfg.Yahoo.NewsCount,
		}))
	}

	for _, p := range a.Providers {
		a.Logger.Debug().Str("provider", p.Name()).Msg("Market data provider registered")
	}
}

func (a *App) initServices() {
	reportOptions := reports.DefaultOptions()
	reportOptions.HistoryDays = a.Config.Market.HistoryDays
	if a.Config.Market.Yahoo.NewsCount > 0 {
		reportOptions.NewsLimit = a.Config.Market.Yahoo.NewsCount
	}
	a.Builder = reports.NewBuilder(reportOptions)

	a.Orchestrator = pipeline.NewOrchestrator(
		a.Tenants,
		a.Providers,
		a.Storage.Writer(),
		a.Builder,
		pipeline.Options{
			Gateway: market.GatewayOptions{
				Routes:                 routesFromConfig(a.Config.Market.Routes),
				RequestTimeout:         a.Config.Market.RequestTimeoutDuration(),
				MaxConsecutiveTimeouts: a.Config.Market.MaxConsecutiveTimeouts,
			},
			Pacing: pacing.Policy{
				Default:   a.Config.Pacing.DefaultInterval(),
				Providers: a.Config.Pacing.ProviderIntervals(),
				Tenant:    a.Config.Pacing.TenantInterval(),
			},
			DemoTenantID:          a.Config.Demo.TenantID,
			DemoSymbols:           a.Config.Demo.Symbols,
			MaxDocumentsPerTenant: a.Config.Storage.MaxDocumentsPerTenant,
		},
		a.Logger,
	)

	a.Scheduler = scheduler.NewService(func(ctx context.Context) error {
		_, err := a.Run(ctx, models.AllTenants())
		return err
	}, a.Logger)
}

// Run executes one pipeline run.
func (a *App) Run(ctx context.Context, mode models.RunMode) (*models.BatchSummary, error) {
	return a.Orchestrator.Run(ctx, mode)
}

// StartScheduler starts the cron schedule from config.
func (a *App) StartScheduler(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx, a.Config.Schedule.Cron); err != nil {
		return err
	}
	if a.Config.Schedule.RunOnStart {
		go a.Scheduler.TriggerNow()
	}
	return nil
}

// Close releases storage and tenant source connections.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Tenants != nil {
		if err := a.Tenants.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close tenant source")
		}
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
	}
	return nil
}

func routesFromConfig(configured map[string][]string) market.Routes {
	if len(configured) == 0 {
		return nil
	}
	routes := market.DefaultRoutes()
	for category, providers := range configured {
		routes[models.Category(category)] = providers
	}
	return routes
}

// lazyTenants opens the configured tenant source on first use.
type lazyTenants struct {
	config *common.TenantsConfig
	logger arbor.ILogger

	mu    sync.Mutex
	repo  interfaces.TenantRepository
	close func() error
}

var _ interfaces.TenantRepository = (*lazyTenants)(nil)

func (l *lazyTenants) get() (interfaces.TenantRepository, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.repo != nil {
		return l.repo, nil
	}
	repo, closeFn, err := storage.NewTenantRepository(l.config, l.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open tenant source: %w", err)
	}
	l.repo, l.close = repo, closeFn
	return repo, nil
}

func (l *lazyTenants) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.close == nil {
		return nil
	}
	err := l.close()
	l.repo, l.close = nil, nil
	return err
}

func (l *lazyTenants) ListActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	repo, err := l.get()
	if err != nil {
		return nil, err
	}
	return repo.ListActiveTenants(ctx)
}

func (l *lazyTenants) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	repo, err := l.get()
	if err != nil {
		return nil, err
	}
	return repo.GetTenant(ctx, tenantID)
}

func (l *lazyTenants) LoadPortfolios(ctx context.Context, tenantID string) ([]models.Portfolio, error) {
	repo, err := l.get()
	if err != nil {
		return nil, err
	}
	return repo.LoadPortfolios(ctx, tenantID)
}

func (l *lazyTenants) LoadAssets(ctx context.Context, portfolioID int64) ([]models.Asset, error) {
	repo, err := l.get()
	if err != nil {
		return nil, err
	}
	return repo.LoadAssets(ctx, portfolioID)
}
