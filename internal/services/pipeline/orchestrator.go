// -----------------------------------------------------------------------
// Orchestrator - drives one batch run
// Idle -> Verifying -> PerTenant -> Aggregating -> Done | Failed
// Tenants and symbols are processed sequentially. A failure (or panic) while
// processing one tenant is recorded on that tenant and the run moves on.
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
	"github.com/ternarybob/foliogen/internal/services/market"
	"github.com/ternarybob/foliogen/internal/services/pacing"
	"github.com/ternarybob/foliogen/internal/services/reports"
)

// Options configures the orchestrator.
type Options struct {
	Gateway market.GatewayOptions
	Pacing  pacing.Policy

	DemoTenantID string
	DemoSymbols  []string

	// MaxDocumentsPerTenant prunes older documents after each tenant; 0 keeps everything.
	MaxDocumentsPerTenant int
}

// Orchestrator runs the tenant -> portfolio -> asset -> report pipeline.
type Orchestrator struct {
	tenants   interfaces.TenantRepository
	providers []interfaces.MarketDataProvider
	store     interfaces.TenantDocumentStore
	builder   *reports.Builder
	options   Options
	logger    arbor.ILogger
	now       func() time.Time
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(
	tenants interfaces.TenantRepository,
	providers []interfaces.MarketDataProvider,
	store interfaces.TenantDocumentStore,
	builder *reports.Builder,
	options Options,
	logger arbor.ILogger,
) *Orchestrator {
	if options.DemoTenantID == "" {
		options.DemoTenantID = "demo_user_001"
	}
	options.DemoSymbols = common.NormalizeSymbols(options.DemoSymbols)
	if len(options.DemoSymbols) == 0 {
		options.DemoSymbols = []string{"NVDA", "GOOGL", "AAPL"}
	}
	return &Orchestrator{
		tenants:   tenants,
		providers: providers,
		store:     store,
		builder:   builder,
		options:   options,
		logger:    logger,
		now:       time.Now,
	}
}

// Run processes the tenants selected by mode. The returned summary is always
// non-nil. An error is returned only for setup failures (state Failed).
func (o *Orchestrator) Run(ctx context.Context, mode models.RunMode) (*models.BatchSummary, error) {
	summary := &models.BatchSummary{
		RunID:     common.NewRunID(),
		Mode:      mode,
		State:     models.RunStateIdle,
		StartedAt: o.now(),
	}
	runLogger := o.logger.WithCorrelationId(summary.RunID)

	runLogger.Info().
		Str("run_id", summary.RunID).
		Str("mode", mode.String()).
		Msg("Pipeline run started")

	if mode.Kind == models.RunModeTenant && mode.TenantID == "" {
		return o.fail(summary, runLogger, fmt.Errorf("tenant mode requires a tenant id"))
	}

	pacer := pacing.NewPacer(o.options.Pacing, runLogger)
	gateway := market.NewGateway(o.providers, o.options.Gateway, pacer, runLogger)

	policy := pacer.Policy()
	runLogger.Debug().
		Dur("default_interval", policy.Default).
		Dur("tenant_interval", policy.Tenant).
		Int("provider_overrides", len(policy.Providers)).
		Msg("Pacing policy")

	summary.State = models.RunStateVerifying
	summary.UnavailableProviders = gateway.Verify(ctx)
	if len(summary.UnavailableProviders) > 0 {
		runLogger.Warn().
			Strs("providers", summary.UnavailableProviders).
			Msg("Continuing with unavailable providers")
	}

	repo, tenants, err := o.resolveTenants(ctx, mode)
	if errors.Is(err, interfaces.ErrTenantNotFound) {
		msg := fmt.Sprintf("tenant not found: %s", mode.TenantID)
		runLogger.Warn().Str("tenant_id", mode.TenantID).Msg("Tenant not found")
		summary.Errors = append(summary.Errors, msg)
		return o.finish(summary, runLogger), nil
	}
	if err != nil {
		return o.fail(summary, runLogger, err)
	}

	summary.State = models.RunStatePerTenant
	for i, tenant := range tenants {
		if i > 0 {
			if err := pacer.PauseBetweenTenants(ctx); err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("run interrupted before tenant %s: %v", tenant.ID, err))
				return o.fail(summary, runLogger, err)
			}
		}

		outcome := o.processTenant(ctx, repo, gateway, tenant, runLogger)
		summary.Tenants = append(summary.Tenants, outcome)
		if outcome.Error != "" && outcome.Status == models.TenantFailed {
			summary.Errors = append(summary.Errors, fmt.Sprintf("tenant %s: %s", tenant.ID, outcome.Error))
		}
	}

	// Providers may have been disabled mid-run after repeated timeouts
	summary.UnavailableProviders = gateway.Unavailable()

	return o.finish(summary, runLogger), nil
}

func (o *Orchestrator) resolveTenants(ctx context.Context, mode models.RunMode) (interfaces.TenantRepository, []models.Tenant, error) {
	switch mode.Kind {
	case models.RunModeDemo:
		demo := newDemoRepository(o.options.DemoTenantID, o.options.DemoSymbols)
		tenants, _ := demo.ListActiveTenants(ctx)
		return demo, tenants, nil

	case models.RunModeTenant:
		tenant, err := o.tenants.GetTenant(ctx, mode.TenantID)
		if err == nil && tenant == nil {
			err = fmt.Errorf("%w: %s", interfaces.ErrTenantNotFound, mode.TenantID)
		}
		if err != nil {
			if errors.Is(err, interfaces.ErrTenantNotFound) {
				return nil, nil, err
			}
			return nil, nil, fmt.Errorf("failed to resolve tenant %s: %w", mode.TenantID, err)
		}
		return o.tenants, []models.Tenant{*tenant}, nil

	case models.RunModeAll:
		tenants, err := o.tenants.ListActiveTenants(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list tenants: %w", err)
		}
		return o.tenants, tenants, nil

	default:
		return nil, nil, fmt.Errorf("unknown run mode: %s", mode.Kind)
	}
}

// processTenant never panics and never returns an error: every problem is
// folded into the outcome.
func (o *Orchestrator) processTenant(
	ctx context.Context,
	repo interfaces.TenantRepository,
	gateway *market.Gateway,
	tenant models.Tenant,
	runLogger arbor.ILogger,
) (outcome models.TenantOutcome) {
	outcome = models.TenantOutcome{TenantID: tenant.ID, Name: tenant.DisplayName()}
	started := o.now()

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			runLogger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(buf[:n])).
				Str("tenant_id", tenant.ID).
				Msg("Recovered from panic while processing tenant")
			outcome.Status = models.TenantFailed
			outcome.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	runLogger.Info().Str("tenant_id", tenant.ID).Str("name", outcome.Name).Msg("Processing tenant")

	holdings, rows, err := loadHoldings(ctx, repo, tenant.ID, runLogger)
	if err != nil {
		runLogger.Error().Err(err).Str("tenant_id", tenant.ID).Msg("Failed to load tenant holdings")
		outcome.Status = models.TenantFailed
		outcome.Error = err.Error()
		return outcome
	}

	if len(holdings) == 0 {
		runLogger.Info().Str("tenant_id", tenant.ID).Msg("Tenant has no assets, skipping")
		outcome.Status = models.TenantSkipped
		return outcome
	}

	for _, h := range holdings {
		outcome.Symbols = append(outcome.Symbols, h.Symbol)
	}
	runLogger.Info().
		Str("tenant_id", tenant.ID).
		Int("assets", rows).
		Int("symbols", len(holdings)).
		Msg("Holdings aggregated")

	if err := o.store.EnsureNamespace(ctx, tenant.ID); err != nil {
		runLogger.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("Failed to prepare tenant namespace")
	}

	assetReports := make([]models.AssetReport, 0, len(holdings))
	documents := make([]string, 0, len(holdings)+1)
	var lastWriteErr error

	for _, h := range holdings {
		results := make([]models.FetchResult, 0, len(models.Categories))
		for _, category := range models.Categories {
			results = append(results, gateway.Fetch(ctx, h.Symbol, category))
		}

		report := o.builder.BuildAssetReport(h.Symbol, results)
		assetReports = append(assetReports, report)

		if report.Succeeded() {
			outcome.AssetsProcessed++
		} else {
			outcome.AssetsFailed++
			runLogger.Warn().Str("tenant_id", tenant.ID).Str("symbol", h.Symbol).Msg("No data available for symbol")
		}

		name := common.AssetDocumentName(h.Symbol)
		documents = append(documents, name)
		if err := o.write(ctx, tenant.ID, name, report.Content, &outcome, runLogger); err != nil {
			lastWriteErr = err
		}
	}

	consolidated := o.builder.Consolidate(tenant, holdings, assetReports)
	documents = append(documents, common.ConsolidatedDocumentName)
	if err := o.write(ctx, tenant.ID, common.ConsolidatedDocumentName, consolidated.Content, &outcome, runLogger); err != nil {
		lastWriteErr = err
	}

	if outcome.DocumentsWritten == 0 && outcome.DocumentsFailed > 0 {
		outcome.Status = models.TenantFailed
		outcome.Error = fmt.Sprintf("all %d document writes failed: %v", outcome.DocumentsFailed, lastWriteErr)
		return outcome
	}

	// Documents from this run are never pruned, even when they outnumber keep
	if keep := o.options.MaxDocumentsPerTenant; keep > 0 {
		if deleted, err := o.store.Prune(ctx, tenant.ID, keep, documents...); err != nil {
			runLogger.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("Failed to prune old documents")
		} else if deleted > 0 {
			runLogger.Debug().Str("tenant_id", tenant.ID).Int("deleted", deleted).Msg("Pruned old documents")
		}
	}

	outcome.Status = models.TenantSucceeded
	if outcome.DocumentsFailed > 0 {
		outcome.Error = fmt.Sprintf("%d document writes failed: %v", outcome.DocumentsFailed, lastWriteErr)
	}

	runLogger.Info().
		Str("tenant_id", tenant.ID).
		Int("assets_processed", outcome.AssetsProcessed).
		Int("assets_failed", outcome.AssetsFailed).
		Int("documents_written", outcome.DocumentsWritten).
		Dur("elapsed", o.now().Sub(started)).
		Msg("Tenant processed")
	return outcome
}

func (o *Orchestrator) write(ctx context.Context, tenantID, name, content string, outcome *models.TenantOutcome, runLogger arbor.ILogger) error {
	if err := o.store.Write(ctx, tenantID, name, content); err != nil {
		runLogger.Error().Err(err).Str("tenant_id", tenantID).Str("document", name).Msg("Failed to write document")
		outcome.DocumentsFailed++
		return err
	}
	outcome.DocumentsWritten++
	return nil
}

func (o *Orchestrator) finish(summary *models.BatchSummary, runLogger arbor.ILogger) *models.BatchSummary {
	summary.State = models.RunStateAggregating
	summary.Aggregate()
	summary.State = models.RunStateDone
	summary.FinishedAt = o.now()

	runLogger.Info().
		Int("tenants_succeeded", summary.TenantsSucceeded).
		Int("tenants_failed", summary.TenantsFailed).
		Int("tenants_skipped", summary.TenantsSkipped).
		Int("assets_processed", summary.AssetsProcessed).
		Int("assets_failed", summary.AssetsFailed).
		Int("documents_written", summary.DocumentsWritten).
		Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Pipeline run complete")
	return summary
}

func (o *Orchestrator) fail(summary *models.BatchSummary, runLogger arbor.ILogger, err error) (*models.BatchSummary, error) {
	summary.Aggregate()
	summary.State = models.RunStateFailed
	summary.FinishedAt = o.now()
	summary.Errors = append(summary.Errors, err.Error())

	runLogger.Error().Err(err).Msg("Pipeline run failed")
	return summary, err
}
