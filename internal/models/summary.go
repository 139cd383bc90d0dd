package models

import (
	"fmt"
	"time"
)

// RunModeKind selects which tenants a pipeline run processes.
type RunModeKind string

const (
	RunModeAll    RunModeKind = "all"
	RunModeTenant RunModeKind = "tenant"
	RunModeDemo   RunModeKind = "demo"
)

// RunMode is the argument to a pipeline run.
type RunMode struct {
	Kind     RunModeKind `json:"kind"`
	TenantID string      `json:"tenant_id,omitempty"`
}

// AllTenants processes every active tenant.
func AllTenants() RunMode { return RunMode{Kind: RunModeAll} }

// SingleTenant processes one tenant by id.
func SingleTenant(id string) RunMode { return RunMode{Kind: RunModeTenant, TenantID: id} }

// Demo processes the built-in demo tenant without repository access.
func Demo() RunMode { return RunMode{Kind: RunModeDemo} }

func (m RunMode) String() string {
	if m.Kind == RunModeTenant {
		return fmt.Sprintf("%s:%s", m.Kind, m.TenantID)
	}
	return string(m.Kind)
}

// RunState is the pipeline state machine position.
type RunState string

const (
	RunStateIdle        RunState = "idle"
	RunStateVerifying   RunState = "verifying"
	RunStatePerTenant   RunState = "per_tenant"
	RunStateAggregating RunState = "aggregating"
	RunStateDone        RunState = "done"
	RunStateFailed      RunState = "failed"
)

// TenantStatus is the outcome of processing one tenant.
type TenantStatus string

const (
	TenantSucceeded TenantStatus = "succeeded"
	TenantFailed    TenantStatus = "failed"
	TenantSkipped   TenantStatus = "skipped"
)

// TenantOutcome records what happened to one tenant during a run.
type TenantOutcome struct {
	TenantID         string       `json:"tenant_id"`
	Name             string       `json:"name"`
	Status           TenantStatus `json:"status"`
	Symbols          []string     `json:"symbols,omitempty"`
	AssetsProcessed  int          `json:"assets_processed"`
	AssetsFailed     int          `json:"assets_failed"`
	DocumentsWritten int          `json:"documents_written"`
	DocumentsFailed  int          `json:"documents_failed"`
	Error            string       `json:"error,omitempty"`
}

// BatchSummary is the single source of truth for what a run achieved.
type BatchSummary struct {
	RunID                string          `json:"run_id"`
	Mode                 RunMode         `json:"mode"`
	State                RunState        `json:"state"`
	StartedAt            time.Time       `json:"started_at"`
	FinishedAt           time.Time       `json:"finished_at"`
	TenantsSucceeded     int             `json:"tenants_succeeded"`
	TenantsFailed        int             `json:"tenants_failed"`
	TenantsSkipped       int             `json:"tenants_skipped"`
	AssetsProcessed      int             `json:"assets_processed"`
	AssetsFailed         int             `json:"assets_failed"`
	DocumentsWritten     int             `json:"documents_written"`
	DocumentsFailed      int             `json:"documents_failed"`
	UnavailableProviders []string        `json:"unavailable_providers,omitempty"`
	Tenants              []TenantOutcome `json:"tenants"`
	Errors               []string        `json:"errors,omitempty"`
}

// TenantsProcessed is the number of tenants that were attempted (succeeded or failed).
func (s *BatchSummary) TenantsProcessed() int {
	return s.TenantsSucceeded + s.TenantsFailed
}

// Outcome returns the recorded outcome for tenantID.
func (s *BatchSummary) Outcome(tenantID string) (TenantOutcome, bool) {
	for _, o := range s.Tenants {
		if o.TenantID == tenantID {
			return o, true
		}
	}
	return TenantOutcome{}, false
}

// Aggregate recomputes the totals from the tenant outcomes.
func (s *BatchSummary) Aggregate() {
	s.TenantsSucceeded, s.TenantsFailed, s.TenantsSkipped = 0, 0, 0
	s.AssetsProcessed, s.AssetsFailed = 0, 0
	s.DocumentsWritten, s.DocumentsFailed = 0, 0

	for _, o := range s.Tenants {
		switch o.Status {
		case TenantSucceeded:
			s.TenantsSucceeded++
		case TenantFailed:
			s.TenantsFailed++
		case TenantSkipped:
			s.TenantsSkipped++
		}
		s.AssetsProcessed += o.AssetsProcessed
		s.AssetsFailed += o.AssetsFailed
		s.DocumentsWritten += o.DocumentsWritten
		s.DocumentsFailed += o.DocumentsFailed
	}
}
