package security

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenBucket is a distributed token-bucket rate limiter. The bucket
// state lives in Redis so limits hold across API replicas.
type RedisTokenBucket struct {
	Redis      *redis.Client
	Prefix     string
	Capacity   int
	RefillRate float64 // tokens per second
}

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local data = redis.call('HMGET', key, 'tokens', 'last')
local tokens = tonumber(data[1])
local last = tonumber(data[2])

if tokens == nil then tokens = capacity end
if last == nil then last = now end

local delta = now - last
if delta < 0 then delta = 0 end

local filled = tokens + (delta * refill_rate)
if filled > capacity then filled = capacity end

local allowed = 0
if filled >= 1 then
  allowed = 1
  filled = filled - 1
end

redis.call('HSET', key, 'tokens', filled, 'last', now)
redis.call('EXPIRE', key, ttl)

return allowed
`)

func (l *RedisTokenBucket) key(raw string) string {
	if l.Prefix == "" {
		return raw
	}
	return l.Prefix + ":" + raw
}

// Allow consumes one token for the key. A misconfigured limiter fails open.
func (l *RedisTokenBucket) Allow(ctx context.Context, rawKey string) (bool, error) {
	if l.Redis == nil || l.Capacity <= 0 || l.RefillRate <= 0 {
		return true, nil
	}

	now := float64(time.Now().UnixNano()) / 1e9
	ttl := int64(float64(l.Capacity)/l.RefillRate) + 1

	res, err := tokenBucketScript.Run(ctx, l.Redis, []string{l.key(rawKey)}, l.Capacity, l.RefillRate, now, ttl).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// RateLimitMiddleware rejects requests once the caller's bucket is empty.
// Limiter errors fail open: an unreachable Redis must not take the API down.
func RateLimitMiddleware(l *RedisTokenBucket, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := l.Allow(r.Context(), keyFn(r))
			if err == nil && !allowed {
				WriteJSONError(w, r, http.StatusTooManyRequests, "rate_limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the caller's IP for rate-limit keying.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
