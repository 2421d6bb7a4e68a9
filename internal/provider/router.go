package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/internal/quota"
	"github.com/wonny/funddash/pkg/logger"
	"github.com/wonny/funddash/pkg/metrics"
)

// ErrNoProvider is returned when no candidate provider could serve a
// request: none supports the kind, or all were out of quota or failed.
var ErrNoProvider = errors.New("no provider available")

// RouterConfig bounds the router's retry behavior. Total retry time per
// request stays within MaxAttempts * MaxBackoff per provider.
type RouterConfig struct {
	MaxAttempts    int           // attempts per provider before fallback
	InitialBackoff time.Duration // first retry delay, doubled per attempt
	MaxBackoff     time.Duration // backoff ceiling
	WaitThreshold  time.Duration // longest quota wait before falling back
}

// DefaultRouterConfig returns the production retry bounds.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		WaitThreshold:  2 * time.Second,
	}
}

// Router resolves a logical data need to a concrete provider call with
// quota-aware fallback. Provider errors are fully absorbed here: callers
// only ever see a terminal ProviderResult, never a propagated error.
type Router struct {
	registry *Registry
	tracker  *quota.Tracker
	cfg      RouterConfig
	metrics  *metrics.Recorder
	logger   *logger.Logger
}

// NewRouter creates a router. metrics may be nil.
func NewRouter(registry *Registry, tracker *quota.Tracker, cfg RouterConfig, rec *metrics.Recorder, log *logger.Logger) *Router {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Router{
		registry: registry,
		tracker:  tracker,
		cfg:      cfg,
		metrics:  rec,
		logger:   log.WithField("module", "router"),
	}
}

// Route fetches a single request, trying candidates in priority order.
func (r *Router) Route(ctx context.Context, req contracts.FetchRequest) contracts.ProviderResult {
	candidates := r.registry.Candidates(req.Kind)
	if len(candidates) == 0 {
		return contracts.PermanentError("router",
			fmt.Errorf("%w: no provider supports kind %q", ErrNoProvider, req.Kind))
	}

	fetch := func(p Provider) contracts.ProviderResult {
		return p.FetchSingle(ctx, req)
	}
	return r.routeWith(ctx, candidates, fetch, string(req.Kind), req.Ticker)
}

// RouteBatch fetches one batch of tickers. The caller is responsible for
// sizing the batch to the chosen provider tier; oversized batches are a
// permanent error from the provider itself.
func (r *Router) RouteBatch(ctx context.Context, tickers []string, kind contracts.DataKind) contracts.ProviderResult {
	candidates := r.registry.BatchCandidates(kind)
	if len(candidates) == 0 {
		return contracts.PermanentError("router",
			fmt.Errorf("%w: no batch provider supports kind %q", ErrNoProvider, kind))
	}

	fetch := func(p Provider) contracts.ProviderResult {
		return p.FetchBatch(ctx, tickers, kind)
	}
	return r.routeWith(ctx, candidates, fetch, string(kind), fmt.Sprintf("batch(%d)", len(tickers)))
}

// routeWith walks the candidate list applying the quota check, bounded
// per-provider retry with exponential backoff, and fallback.
func (r *Router) routeWith(ctx context.Context, candidates []Provider, fetch func(Provider) contracts.ProviderResult, kind, subject string) contracts.ProviderResult {
	var last contracts.ProviderResult
	attempted := false

	for _, p := range candidates {
		name := p.Name()
		backoff := r.cfg.InitialBackoff

	attempts:
		for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return contracts.TransientError(name, err)
			}

			if !r.acquireQuota(ctx, name) {
				r.logger.WithFields(map[string]interface{}{
					"provider": name,
					"kind":     kind,
					"subject":  subject,
				}).Debug("Provider out of quota, falling back")
				if r.metrics != nil {
					r.metrics.RecordQuotaSkip(name)
				}
				break attempts
			}

			res := fetch(p)
			last = res
			attempted = true
			if r.metrics != nil {
				r.metrics.RecordProviderCall(name, string(res.Outcome))
			}

			switch res.Outcome {
			case contracts.OutcomeSuccess:
				return res

			case contracts.OutcomeRateLimited, contracts.OutcomeTransient:
				if attempt == r.cfg.MaxAttempts {
					break attempts
				}
				delay := backoff
				if res.RetryAfter > 0 && res.RetryAfter > delay {
					delay = res.RetryAfter
				}
				if delay > r.cfg.MaxBackoff {
					// Waiting out a long vendor hint would stall the
					// worker; the next candidate is cheaper.
					break attempts
				}
				r.logger.WithFields(map[string]interface{}{
					"provider": name,
					"kind":     kind,
					"subject":  subject,
					"attempt":  attempt,
					"delay":    delay,
					"outcome":  string(res.Outcome),
				}).Warn("Retrying provider")
				if err := sleepCtx(ctx, delay); err != nil {
					return contracts.TransientError(name, err)
				}
				backoff *= 2
				if backoff > r.cfg.MaxBackoff {
					backoff = r.cfg.MaxBackoff
				}

			case contracts.OutcomePermanent:
				break attempts
			}
		}
	}

	if !attempted {
		return contracts.PermanentError("router",
			fmt.Errorf("%w: all candidates out of quota for kind %q", ErrNoProvider, kind))
	}

	r.logger.WithFields(map[string]interface{}{
		"kind":    kind,
		"subject": subject,
		"outcome": string(last.Outcome),
	}).Error("All providers exhausted for request")
	return last
}

// acquireQuota atomically checks and records a call slot. A short quota
// wait (window refill) is ridden out; anything past the threshold means
// immediate fallback so workers never block on a drained provider.
func (r *Router) acquireQuota(ctx context.Context, name string) bool {
	if r.tracker.TryAcquire(ctx, name) {
		return true
	}

	wait := r.tracker.TimeUntilAvailable(ctx, name)
	if wait <= 0 || wait > r.cfg.WaitThreshold {
		return false
	}
	if err := sleepCtx(ctx, wait); err != nil {
		return false
	}
	return r.tracker.TryAcquire(ctx, name)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
