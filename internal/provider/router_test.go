package provider

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/internal/quota"
	"github.com/wonny/funddash/pkg/logger"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

// fakeProvider returns scripted results in order, repeating the last one.
type fakeProvider struct {
	name    string
	limits  quota.Limits
	batch   int
	kinds   map[contracts.DataKind]bool
	results []contracts.ProviderResult
	calls   int
}

func (f *fakeProvider) Name() string                       { return f.name }
func (f *fakeProvider) Limits() quota.Limits               { return f.limits }
func (f *fakeProvider) MaxBatchSize() int                  { return f.batch }
func (f *fakeProvider) Supports(k contracts.DataKind) bool { return f.kinds[k] }

func (f *fakeProvider) next() contracts.ProviderResult {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i]
}

func (f *fakeProvider) FetchSingle(ctx context.Context, req contracts.FetchRequest) contracts.ProviderResult {
	return f.next()
}

func (f *fakeProvider) FetchBatch(ctx context.Context, tickers []string, kind contracts.DataKind) contracts.ProviderResult {
	return f.next()
}

func quoteKinds() map[contracts.DataKind]bool {
	return map[contracts.DataKind]bool{contracts.KindQuote: true}
}

func testRouter(t *testing.T, providers []Provider, priority []string) (*Router, *quota.Tracker) {
	t.Helper()
	log := logger.NewWriter(io.Discard, "error")
	tracker := quota.New(&fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}, nil, log)
	for _, p := range providers {
		tracker.Register(p.Name(), p.Limits())
	}

	registry := NewRegistry(providers, priority)
	cfg := RouterConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		WaitThreshold:  0, // no quota waits in tests
	}
	return NewRouter(registry, tracker, cfg, nil, log), tracker
}

func req(ticker string) contracts.FetchRequest {
	return contracts.FetchRequest{Ticker: ticker, Kind: contracts.KindQuote}
}

func TestRoute_PrimarySuccess(t *testing.T) {
	primary := &fakeProvider{
		name: "fmp", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 100,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.Success("fmp", contracts.Payload{"price": 1.0})},
	}
	fallback := &fakeProvider{
		name: "yahoo", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 1,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.Success("yahoo", nil)},
	}

	router, _ := testRouter(t, []Provider{primary, fallback}, []string{"fmp", "yahoo"})

	res := router.Route(context.Background(), req("AAPL"))
	if !res.OK() || res.Provider != "fmp" {
		t.Errorf("result = %+v, want success from fmp", res)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback was called %d times, want 0", fallback.calls)
	}
}

func TestRoute_FallbackOnRateLimit(t *testing.T) {
	// Primary stays rate limited through every retry; fallback succeeds.
	primary := &fakeProvider{
		name: "fmp", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 100,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.RateLimited("fmp", 0, errors.New("429"))},
	}
	fallback := &fakeProvider{
		name: "yahoo", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 1,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.Success("yahoo", contracts.Payload{"price": 2.0})},
	}

	router, tracker := testRouter(t, []Provider{primary, fallback}, []string{"fmp", "yahoo"})

	res := router.Route(context.Background(), req("AAPL"))
	if !res.OK() || res.Provider != "yahoo" {
		t.Errorf("result = %+v, want success from yahoo", res)
	}
	if primary.calls != 3 {
		t.Errorf("primary attempts = %d, want 3 (bounded retry)", primary.calls)
	}

	// Primary's attempts still count against its quota
	usage := map[string]quota.Usage{}
	for _, u := range tracker.Usage(context.Background()) {
		usage[u.Provider] = u
	}
	if usage["fmp"].CallsUsed != 3 {
		t.Errorf("fmp CallsUsed = %d, want 3 recorded attempts", usage["fmp"].CallsUsed)
	}
	if usage["yahoo"].CallsUsed != 1 {
		t.Errorf("yahoo CallsUsed = %d, want 1", usage["yahoo"].CallsUsed)
	}
}

func TestRoute_PermanentErrorSkipsRetry(t *testing.T) {
	primary := &fakeProvider{
		name: "fmp", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 100,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.PermanentError("fmp", errors.New("unknown symbol"))},
	}
	fallback := &fakeProvider{
		name: "yahoo", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 1,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.Success("yahoo", nil)},
	}

	router, _ := testRouter(t, []Provider{primary, fallback}, []string{"fmp", "yahoo"})

	res := router.Route(context.Background(), req("ZZZZ"))
	if !res.OK() || res.Provider != "yahoo" {
		t.Errorf("result = %+v, want success from yahoo", res)
	}
	if primary.calls != 1 {
		t.Errorf("primary attempts = %d, want 1 (no retry on permanent error)", primary.calls)
	}
}

func TestRoute_SkipsProviderWithoutQuota(t *testing.T) {
	primary := &fakeProvider{
		name: "fmp", limits: quota.Limits{Daily: 0, PerMinute: 100}, batch: 100,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.Success("fmp", nil)},
	}
	fallback := &fakeProvider{
		name: "yahoo", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 1,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.Success("yahoo", nil)},
	}

	router, _ := testRouter(t, []Provider{primary, fallback}, []string{"fmp", "yahoo"})

	res := router.Route(context.Background(), req("AAPL"))
	if !res.OK() || res.Provider != "yahoo" {
		t.Errorf("result = %+v, want success from yahoo", res)
	}
	if primary.calls != 0 {
		t.Errorf("primary was called %d times despite zero quota, want 0", primary.calls)
	}
}

func TestRoute_AllExhaustedReturnsLastError(t *testing.T) {
	cause := errors.New("connection reset")
	only := &fakeProvider{
		name: "fmp", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 100,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.TransientError("fmp", cause)},
	}

	router, _ := testRouter(t, []Provider{only}, []string{"fmp"})

	res := router.Route(context.Background(), req("AAPL"))
	if res.OK() {
		t.Fatal("expected terminal failure")
	}
	if !errors.Is(res.Err, cause) {
		t.Errorf("terminal result should carry the last error, got %v", res.Err)
	}
}

func TestRoute_NoSupportingProvider(t *testing.T) {
	only := &fakeProvider{
		name: "fmp", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 100,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.Success("fmp", nil)},
	}

	router, _ := testRouter(t, []Provider{only}, []string{"fmp"})

	res := router.Route(context.Background(), contracts.FetchRequest{Ticker: "AAPL", Kind: contracts.KindEarnings})
	if res.Outcome != contracts.OutcomePermanent || !errors.Is(res.Err, ErrNoProvider) {
		t.Errorf("result = %+v, want permanent ErrNoProvider", res)
	}
}

func TestRouteBatch_OnlyBatchProviders(t *testing.T) {
	single := &fakeProvider{
		name: "yahoo", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 1,
		kinds:   quoteKinds(),
		results: []contracts.ProviderResult{contracts.Success("yahoo", nil)},
	}
	batch := &fakeProvider{
		name: "fmp", limits: quota.Limits{Daily: 100, PerMinute: 100}, batch: 100,
		kinds: quoteKinds(),
		results: []contracts.ProviderResult{contracts.BatchSuccess("fmp", map[string]contracts.Payload{
			"AAPL": {"price": 1.0},
			"MSFT": {"price": 2.0},
		})},
	}

	// yahoo is higher priority but has no batch endpoint
	router, _ := testRouter(t, []Provider{single, batch}, []string{"yahoo", "fmp"})

	res := router.RouteBatch(context.Background(), []string{"AAPL", "MSFT"}, contracts.KindQuote)
	if !res.OK() || res.Provider != "fmp" {
		t.Errorf("result = %+v, want batch success from fmp", res)
	}
	if single.calls != 0 {
		t.Errorf("single-only provider called %d times for a batch, want 0", single.calls)
	}
	if len(res.Batch) != 2 {
		t.Errorf("batch size = %d, want 2", len(res.Batch))
	}
}

func TestRegistryPriorityOrder(t *testing.T) {
	a := &fakeProvider{name: "a", kinds: quoteKinds(), batch: 1}
	b := &fakeProvider{name: "b", kinds: quoteKinds(), batch: 1}
	c := &fakeProvider{name: "c", kinds: quoteKinds(), batch: 1}

	reg := NewRegistry([]Provider{a, b, c}, []string{"c", "a"})

	got := reg.Candidates(contracts.KindQuote)
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %d, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Name() != want[i] {
			t.Errorf("candidate[%d] = %s, want %s", i, p.Name(), want[i])
		}
	}
}
