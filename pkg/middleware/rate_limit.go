package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"turfbook/pkg/auth"
	apperrors "turfbook/pkg/errors"
	httputil "turfbook/pkg/http"
	"turfbook/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// KeyExtractor names the bucket a request is counted against. An empty key
// skips limiting.
type KeyExtractor func(r *http.Request) string

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
	Stop()
}

// RateLimiter is a per-process sliding window. Each replica counts on its
// own; RedisRateLimiter shares the budget between replicas.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	limiter := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow records a request for key and reports whether it fits in the
// sliding window.
func (rl *RateLimiter) Allow(_ context.Context, key string) Decision {
	if key == "" {
		return Decision{Allowed: true, Limit: rl.limit, Remaining: rl.limit}
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[key]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return Decision{
			Limit:      rl.limit,
			RetryAfter: valid[0].Add(rl.window).Sub(now),
		}
	}

	rl.requests[key] = append(valid, now)
	return Decision{
		Allowed:   true,
		Limit:     rl.limit,
		Remaining: rl.limit - len(valid) - 1,
	}
}

// tokenBucketScript refills one token per interval up to capacity and takes
// one token per call. Returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local intervals = math.floor(elapsed / interval_ms)
if intervals > 0 then
	tokens = math.min(capacity, tokens + intervals)
	last_refill = last_refill + (intervals * interval_ms)
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

const rateLimitKeyPrefix = "turfbook:ratelimit:"

// RedisRateLimiter is a token bucket kept in Redis, so every replica draws
// from the same budget. Redis failures let the request through.
type RedisRateLimiter struct {
	rdb      redis.Scripter
	limit    int
	interval time.Duration
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewRedisRateLimiter(rdb redis.Scripter, limit int, window time.Duration, log *logger.Logger) *RedisRateLimiter {
	interval := max(window/time.Duration(max(limit, 1)), time.Millisecond)
	return &RedisRateLimiter{
		rdb:      rdb,
		limit:    limit,
		interval: interval,
		ttl:      window.Round(time.Second) + time.Second,
		log:      log,
		now:      time.Now,
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) Decision {
	if key == "" {
		return Decision{Allowed: true, Limit: rl.limit, Remaining: rl.limit}
	}

	res, err := tokenBucketScript.Run(ctx, rl.rdb, []string{rateLimitKeyPrefix + key},
		rl.now().UnixMilli(),
		rl.limit,
		rl.interval.Milliseconds(),
		int64(rl.ttl/time.Second),
	).Int64Slice()
	if err != nil || len(res) != 3 {
		rl.log.Warn("Rate limit check failed, allowing request", "key", key, "error", err)
		return Decision{Allowed: true, Limit: rl.limit, Remaining: rl.limit}
	}

	return Decision{
		Allowed:    res[0] == 1,
		Limit:      rl.limit,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}
}

func (rl *RedisRateLimiter) Stop() {}

func RateLimit(limiter Limiter, extractor KeyExtractor, log *logger.Logger) func(http.Handler) http.Handler {
	if extractor == nil {
		extractor = RequesterKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractor(r)
			decision := limiter.Allow(r.Context(), key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(decision.Remaining, 0)))

			if !decision.Allowed {
				log.Warn("Rate limit exceeded",
					"request_id", requestID(r),
					"key", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", retryAfter(decision.RetryAfter))
				_ = httputil.WriteError(w, apperrors.RateLimited())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequesterKey counts authenticated callers by token subject and everyone
// else by client address.
func RequesterKey(r *http.Request) string {
	if id, ok := auth.CurrentUser(r.Context()); ok {
		return "user:" + id.UserID
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(wait time.Duration) string {
	seconds := max(int(math.Ceil(wait.Seconds())), 1)
	return strconv.Itoa(seconds)
}
