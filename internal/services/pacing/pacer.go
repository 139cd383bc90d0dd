// -----------------------------------------------------------------------
// Pacer - fixed minimum interval between calls to the same provider
// One limiter per provider; providers never delay each other.
// No backoff: a failed call is reported by the caller, not retried here.
// -----------------------------------------------------------------------

package pacing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// Policy holds the pacing intervals for a run.
type Policy struct {
	// Default applies to providers without an explicit interval.
	Default time.Duration
	// Providers maps provider name to its minimum interval between calls.
	Providers map[string]time.Duration
	// Tenant is the pause between two tenants.
	Tenant time.Duration
}

// ZeroPolicy never waits. Used by tests and dry runs.
func ZeroPolicy() Policy {
	return Policy{}
}

// Interval returns the minimum interval for provider.
func (p Policy) Interval(provider string) time.Duration {
	if d, ok := p.Providers[provider]; ok {
		return d
	}
	return p.Default
}

// Pacer gates outbound calls according to a Policy.
// Create one per run; its per-provider state is discarded with it.
type Pacer struct {
	policy   Policy
	logger   arbor.ILogger
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	calls    map[string]int
}

// NewPacer creates a pacer for one run.
func NewPacer(policy Policy, logger arbor.ILogger) *Pacer {
	return &Pacer{
		policy:   policy,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
		calls:    make(map[string]int),
	}
}

// Policy returns the pacing policy in use.
func (p *Pacer) Policy() Policy {
	return p.policy
}

// Wait blocks until the provider's minimum interval has elapsed since its previous call.
func (p *Pacer) Wait(ctx context.Context, provider string) error {
	reservation := p.limiter(provider).Reserve()
	delay := reservation.Delay()

	if delay > 0 && p.logger != nil {
		p.logger.Debug().
			Str("provider", provider).
			Dur("delay", delay).
			Msg("Pacing provider call")
	}

	if err := sleep(ctx, delay); err != nil {
		reservation.Cancel()
		return fmt.Errorf("pacing %s: %w", provider, err)
	}

	p.count(provider)
	return nil
}

// PauseBetweenTenants sleeps for the tenant interval.
func (p *Pacer) PauseBetweenTenants(ctx context.Context) error {
	if p.policy.Tenant <= 0 {
		return nil
	}
	if p.logger != nil {
		p.logger.Info().
			Dur("pause", p.policy.Tenant).
			Msg("Pausing before next tenant")
	}
	return sleep(ctx, p.policy.Tenant)
}

// Calls returns how many calls were let through for provider.
func (p *Pacer) Calls(provider string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[provider]
}

func (p *Pacer) limiter(provider string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.limiters[provider]; ok {
		return l
	}

	limit := rate.Inf
	if interval := p.policy.Interval(provider); interval > 0 {
		limit = rate.Every(interval)
	}
	l := rate.NewLimiter(limit, 1)
	p.limiters[provider] = l
	return l
}

func (p *Pacer) count(provider string) {
	p.mu.Lock()
	p.calls[provider]++
	p.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
