package events

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers which event ids have been handled so redelivered
// events are skipped rather than applied twice.
type Deduper interface {
	// MarkProcessed records the event id. It returns true if the id was new
	// and this caller owns processing it, false if it was already seen.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

// RedisDeduper stores processed ids in Redis with a TTL, so replays within
// the retention window are suppressed across process restarts.
type RedisDeduper struct {
	Redis  *redis.Client
	Prefix string
	TTL    time.Duration
}

func (d *RedisDeduper) key(eventID string) string {
	prefix := d.Prefix
	if prefix == "" {
		prefix = "taskpay_events"
	}
	return prefix + ":processed:" + eventID
}

func (d *RedisDeduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	ttl := d.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return d.Redis.SetNX(ctx, d.key(eventID), 1, ttl).Result()
}

// MemoryDeduper is an in-process Deduper for tests.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryDeduper creates an empty in-memory deduper.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]struct{})}
}

func (d *MemoryDeduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[eventID]; ok {
		return false, nil
	}
	d.seen[eventID] = struct{}{}
	return true, nil
}
