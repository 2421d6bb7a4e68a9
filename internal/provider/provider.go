package provider

import (
	"context"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/internal/quota"
)

// Provider is one external data source behind a uniform capability set.
// Implementations live under internal/external and wrap a single vendor's
// transport and response parsing.
type Provider interface {
	// Name is the registry key, also used in config and metrics labels.
	Name() string

	// Limits declares the vendor-documented call limits.
	Limits() quota.Limits

	// MaxBatchSize is the largest number of tickers one call may cover.
	// 1 means the provider has no batch endpoint.
	MaxBatchSize() int

	// Supports reports whether the provider serves the given data kind.
	Supports(kind contracts.DataKind) bool

	// FetchSingle fetches one ticker's data for the request's kind.
	FetchSingle(ctx context.Context, req contracts.FetchRequest) contracts.ProviderResult

	// FetchBatch fetches data for up to MaxBatchSize tickers in one call.
	// Providers without batch support return a permanent error.
	FetchBatch(ctx context.Context, tickers []string, kind contracts.DataKind) contracts.ProviderResult
}

// Registry holds the available providers in priority order.
type Registry struct {
	ordered []Provider
	byName  map[string]Provider
}

// NewRegistry builds a registry from providers and a priority list of
// names (highest priority first). Providers not named in the priority
// list are appended after the listed ones in registration order.
func NewRegistry(providers []Provider, priority []string) *Registry {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	ordered := make([]Provider, 0, len(providers))
	seen := make(map[string]bool, len(providers))
	for _, name := range priority {
		if p, ok := byName[name]; ok && !seen[name] {
			ordered = append(ordered, p)
			seen[name] = true
		}
	}
	for _, p := range providers {
		if !seen[p.Name()] {
			ordered = append(ordered, p)
			seen[p.Name()] = true
		}
	}

	return &Registry{ordered: ordered, byName: byName}
}

// Candidates returns providers supporting the kind, in priority order.
func (r *Registry) Candidates(kind contracts.DataKind) []Provider {
	var out []Provider
	for _, p := range r.ordered {
		if p.Supports(kind) {
			out = append(out, p)
		}
	}
	return out
}

// BatchCandidates returns providers supporting the kind with a batch
// endpoint, in priority order.
func (r *Registry) BatchCandidates(kind contracts.DataKind) []Provider {
	var out []Provider
	for _, p := range r.ordered {
		if p.Supports(kind) && p.MaxBatchSize() > 1 {
			out = append(out, p)
		}
	}
	return out
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// All returns every registered provider in priority order.
func (r *Registry) All() []Provider {
	return r.ordered
}
