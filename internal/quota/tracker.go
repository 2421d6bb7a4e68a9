package quota

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/funddash/pkg/logger"
	"github.com/wonny/funddash/pkg/redis"
)

// Clock abstracts time so tests can drive day rollover and window refill.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns a Clock backed by time.Now.
func RealClock() Clock { return realClock{} }

// Limits declares a provider's documented call limits.
type Limits struct {
	Daily     int
	PerMinute int
}

// Usage is a read-only snapshot of one provider's quota state.
type Usage struct {
	Provider   string `json:"provider"`
	CallsUsed  int    `json:"calls_used"`
	DailyLimit int    `json:"daily_limit"`
	Day        string `json:"day"`
}

type providerState struct {
	limits     Limits
	day        time.Time // UTC date the daily counter belongs to
	callsToday int
	limiter    *rate.Limiter
	loaded     bool // persisted count restored for the current day
	exhausted  bool // persisted store unreadable; assume no quota left
}

// DayStore persists per-provider per-UTC-day call counts across process
// restarts. Implemented by redis.DayCounter.
type DayStore interface {
	Incr(ctx context.Context, provider string, day time.Time) (int64, error)
	Get(ctx context.Context, provider string, day time.Time) (int64, error)
}

var _ DayStore = (*redis.DayCounter)(nil)

// Tracker owns per-provider per-UTC-day call counters and the sub-day
// rate window. It is the one piece of state shared by all workers: the
// check-and-record pair is guarded by a single mutex, and the lock is
// never held across network I/O — persisted counts are read and written
// with the mutex released, and applied only if the day is still current.
//
// Daily counters reset by date comparison, not a timer, so rollover
// behaves correctly across process restarts and long idle periods. When
// a persisted counter cannot be read the provider is treated as
// exhausted for the day rather than fresh: overcounting wastes quota,
// undercounting gets the key banned.
type Tracker struct {
	mu        sync.Mutex
	clock     Clock
	providers map[string]*providerState
	persist   DayStore // nil or disabled means memory only
	logger    *logger.Logger
}

// New creates a Tracker. persist may be nil for in-memory-only tracking.
func New(clock Clock, persist DayStore, log *logger.Logger) *Tracker {
	return &Tracker{
		clock:     clock,
		providers: make(map[string]*providerState),
		persist:   persist,
		logger:    log.WithField("module", "quota"),
	}
}

// Register declares a provider and its limits. Must be called before any
// CanCall/RecordCall for that provider; unknown providers report no quota.
func (t *Tracker) Register(provider string, limits Limits) {
	t.mu.Lock()
	defer t.mu.Unlock()

	perMin := limits.PerMinute
	if perMin < 1 {
		perMin = 1
	}

	t.providers[provider] = &providerState{
		limits:  limits,
		day:     utcDay(t.clock.Now()),
		limiter: rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin),
	}
}

// CanCall reports whether a call to the provider is permitted right now.
// It consumes nothing; callers that proceed must follow with RecordCall.
func (t *Tracker) CanCall(ctx context.Context, provider string) bool {
	t.syncDay(ctx, provider)

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.providers[provider]
	if !ok {
		return false
	}

	now := t.clock.Now()
	t.rolloverLocked(st, now)

	if st.exhausted {
		return false
	}
	if st.callsToday >= st.limits.Daily {
		return false
	}
	return st.limiter.TokensAt(now) >= 1
}

// TryAcquire atomically performs the CanCall check and, when it passes,
// records the call. This is the only safe entry point for concurrent
// workers: separate check-then-record from two goroutines could both see
// headroom and jointly overshoot the cap.
func (t *Tracker) TryAcquire(ctx context.Context, provider string) bool {
	t.syncDay(ctx, provider)

	t.mu.Lock()

	st, ok := t.providers[provider]
	if !ok {
		t.mu.Unlock()
		return false
	}

	now := t.clock.Now()
	t.rolloverLocked(st, now)

	if st.exhausted || st.callsToday >= st.limits.Daily {
		t.mu.Unlock()
		return false
	}
	if st.limiter.TokensAt(now) < 1 {
		t.mu.Unlock()
		return false
	}

	day := recordLocked(st, now)
	t.mu.Unlock()

	t.persistIncr(ctx, provider, day)
	return true
}

// RecordCall counts one actual network call against the provider's daily
// and sub-day windows. Called exactly once per call placed on the wire,
// immediately before the call, so an ambiguous crash mid-call leaves the
// call counted.
func (t *Tracker) RecordCall(ctx context.Context, provider string) {
	t.syncDay(ctx, provider)

	t.mu.Lock()

	st, ok := t.providers[provider]
	if !ok {
		t.mu.Unlock()
		return
	}

	now := t.clock.Now()
	t.rolloverLocked(st, now)
	day := recordLocked(st, now)
	t.mu.Unlock()

	t.persistIncr(ctx, provider, day)
}

// recordLocked counts one call in memory and returns the day the call
// belongs to, so the caller can persist it after releasing t.mu.
func recordLocked(st *providerState, now time.Time) time.Time {
	st.callsToday++
	// Consume a window token unconditionally; the reservation's delay is
	// irrelevant here, only the token accounting matters.
	st.limiter.ReserveN(now, 1)
	return st.day
}

// persistIncr writes one recorded call through to the day store. Called
// with t.mu released; the in-memory counter is authoritative and the
// persisted one trails it, so a write failure only costs cross-process
// visibility.
func (t *Tracker) persistIncr(ctx context.Context, provider string, day time.Time) {
	if t.persist == nil {
		return
	}
	if _, err := t.persist.Incr(ctx, provider, day); err != nil {
		t.logger.WithError(err).WithField("provider", provider).
			Warn("Failed to persist quota counter")
	}
}

// TimeUntilAvailable returns the minimum wait before CanCall could become
// true: the sub-day window refill time, or the time to next UTC midnight
// when the daily cap is spent.
func (t *Tracker) TimeUntilAvailable(ctx context.Context, provider string) time.Duration {
	t.syncDay(ctx, provider)

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.providers[provider]
	if !ok {
		return time.Duration(1<<63 - 1) // effectively never
	}

	now := t.clock.Now()
	t.rolloverLocked(st, now)

	if st.exhausted || st.callsToday >= st.limits.Daily {
		return nextUTCMidnight(now).Sub(now)
	}

	r := st.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return delay
}

// Usage returns a snapshot of every registered provider's daily usage.
func (t *Tracker) Usage(ctx context.Context) []Usage {
	t.mu.Lock()
	names := make([]string, 0, len(t.providers))
	for name := range t.providers {
		names = append(names, name)
	}
	t.mu.Unlock()

	for _, name := range names {
		t.syncDay(ctx, name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	out := make([]Usage, 0, len(t.providers))
	for name, st := range t.providers {
		t.rolloverLocked(st, now)
		out = append(out, Usage{
			Provider:   name,
			CallsUsed:  st.callsToday,
			DailyLimit: st.limits.Daily,
			Day:        st.day.Format("2006-01-02"),
		})
	}
	return out
}

// rolloverLocked resets the daily counter when the UTC date has changed.
// In-memory only; the persisted count for a fresh day is restored by
// syncDay. Callers hold t.mu.
func (t *Tracker) rolloverLocked(st *providerState, now time.Time) {
	day := utcDay(now)
	if !day.Equal(st.day) {
		st.day = day
		st.callsToday = 0
		st.loaded = t.persist == nil
		st.exhausted = false
	}
}

// syncDay rolls the provider's daily window forward and, on first use of
// a day, restores the persisted count. The store read happens with t.mu
// released so a slow store never stalls other workers; the result is
// applied only if the day is still current on re-entry. A day flip in
// that gap is decided with a fresh counter and reconciled on the next
// call.
func (t *Tracker) syncDay(ctx context.Context, provider string) {
	t.mu.Lock()

	st, ok := t.providers[provider]
	if !ok {
		t.mu.Unlock()
		return
	}

	t.rolloverLocked(st, t.clock.Now())
	if st.loaded || t.persist == nil {
		st.loaded = true
		t.mu.Unlock()
		return
	}
	day := st.day
	t.mu.Unlock()

	n, err := t.persist.Get(ctx, provider, day)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !st.day.Equal(day) || st.loaded {
		return
	}
	if err != nil {
		t.logger.WithError(err).WithField("provider", provider).
			Warn("Quota state unreadable, treating provider as exhausted for today")
		st.exhausted = true
		st.loaded = true
		return
	}
	if int(n) > st.callsToday {
		st.callsToday = int(n)
	}
	st.loaded = true
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func nextUTCMidnight(t time.Time) time.Time {
	return utcDay(t).Add(24 * time.Hour)
}
