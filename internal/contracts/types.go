package contracts

import (
	"time"
)

// DataKind identifies the logical kind of data a fetch request asks for.
type DataKind string

const (
	KindProfile    DataKind = "profile"
	KindQuote      DataKind = "quote"
	KindFinancials DataKind = "financials"
	KindEarnings   DataKind = "earnings"
	KindIndicators DataKind = "indicators"
)

// FetchRequest is one unit of fetch work. Immutable after creation.
type FetchRequest struct {
	Ticker   string
	Kind     DataKind
	Priority int // lower sorts first; derived from earnings proximity
}

// Outcome classifies the result of a provider fetch attempt.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeTransient   Outcome = "transient_error"
	OutcomePermanent   Outcome = "permanent_error"
)

// Payload is the parsed response for a single ticker: provider-agnostic
// field name to value.
type Payload map[string]interface{}

// ProviderResult is the outcome of a fetch attempt. Exactly one of
// Payload/Batch is set on success; Err is set on the error outcomes.
type ProviderResult struct {
	Provider   string
	Outcome    Outcome
	Payload    Payload
	Batch      map[string]Payload // set for batch fetches
	RetryAfter time.Duration      // hint from the provider, zero if none
	Err        error
}

// OK reports whether the fetch succeeded.
func (r ProviderResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Retryable reports whether the same provider may be retried.
func (r ProviderResult) Retryable() bool {
	return r.Outcome == OutcomeRateLimited || r.Outcome == OutcomeTransient
}

// Success builds a successful single-ticker result.
func Success(provider string, payload Payload) ProviderResult {
	return ProviderResult{Provider: provider, Outcome: OutcomeSuccess, Payload: payload}
}

// BatchSuccess builds a successful batch result.
func BatchSuccess(provider string, batch map[string]Payload) ProviderResult {
	return ProviderResult{Provider: provider, Outcome: OutcomeSuccess, Batch: batch}
}

// RateLimited builds a rate-limited result with an optional retry hint.
func RateLimited(provider string, retryAfter time.Duration, err error) ProviderResult {
	return ProviderResult{Provider: provider, Outcome: OutcomeRateLimited, RetryAfter: retryAfter, Err: err}
}

// TransientError builds a retryable error result.
func TransientError(provider string, err error) ProviderResult {
	return ProviderResult{Provider: provider, Outcome: OutcomeTransient, Err: err}
}

// PermanentError builds a non-retryable error result.
func PermanentError(provider string, err error) ProviderResult {
	return ProviderResult{Provider: provider, Outcome: OutcomePermanent, Err: err}
}
