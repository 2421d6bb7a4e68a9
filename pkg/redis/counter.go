package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DayCounter persists per-provider per-day call counters so that quota
// usage survives process restarts and is visible across processes.
// Keys expire two days after creation; rollover is driven by the date in
// the key, not by the TTL.
type DayCounter struct {
	client *Client
	prefix string
}

// NewDayCounter creates a new day counter helper
func NewDayCounter(client *Client, prefix string) *DayCounter {
	return &DayCounter{
		client: client,
		prefix: prefix,
	}
}

func (d *DayCounter) key(provider string, day time.Time) string {
	return fmt.Sprintf("%s:calls:%s:%s", d.prefix, provider, day.UTC().Format("2006-01-02"))
}

// Incr increments the counter for a provider on the given UTC day and
// returns the new value.
func (d *DayCounter) Incr(ctx context.Context, provider string, day time.Time) (int64, error) {
	if !d.client.Enabled() {
		return 0, nil
	}

	key := d.key(provider, day)
	rdb := d.client.Redis()

	n, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}

	// Best-effort expiry so stale day keys do not accumulate
	if n == 1 {
		rdb.Expire(ctx, key, 48*time.Hour)
	}

	return n, nil
}

// Get returns the recorded count for a provider on the given UTC day.
// A missing key reads as zero.
func (d *DayCounter) Get(ctx context.Context, provider string, day time.Time) (int64, error) {
	if !d.client.Enabled() {
		return 0, nil
	}

	n, err := d.client.Redis().Get(ctx, d.key(provider, day)).Int64()
	if err != nil {
		// redis.Nil means no calls recorded yet
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get %s: %w", d.key(provider, day), err)
	}
	return n, nil
}
