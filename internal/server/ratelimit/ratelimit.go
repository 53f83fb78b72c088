// Package ratelimit throttles requests with a fixed-window counter, shared
// through Redis when available and kept in process memory otherwise.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result describes the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter allows at most Requests hits per key in every Window.
type Limiter struct {
	requests int
	window   time.Duration
	redis    *redis.Client
	prefix   string

	mu       sync.Mutex
	localMap map[string]*entry
	now      func() time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

// allowScript increments the window counter unless the limit is reached.
// Returns {allowed, remaining, ttl_seconds}.
var allowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = tonumber(redis.call("GET", key) or "0")
	if current >= limit then
		return {0, 0, redis.call("TTL", key)}
	end

	current = redis.call("INCR", key)
	if current == 1 then
		redis.call("EXPIRE", key, window)
	end

	return {1, limit - current, redis.call("TTL", key)}
`)

// New returns a limiter. A nil client selects the in-process counter.
func New(requests int, window time.Duration, client *redis.Client) *Limiter {
	return &Limiter{
		requests: requests,
		window:   window,
		redis:    client,
		prefix:   "ratelimit:",
		localMap: make(map[string]*entry),
		now:      time.Now,
	}
}

// Allow records a hit for key and reports whether it fits the budget.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	if l.redis != nil {
		return l.allowRedis(ctx, key)
	}
	return l.allowLocal(key), nil
}

func (l *Limiter) allowRedis(ctx context.Context, key string) (Result, error) {
	windowSeconds := int(l.window.Seconds())
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	values, err := allowScript.Run(ctx, l.redis, []string{l.prefix + key}, l.requests, windowSeconds).Int64Slice()
	if err != nil {
		return Result{}, err
	}
	if len(values) != 3 {
		return Result{}, fmt.Errorf("unexpected redis response: %v", values)
	}

	ttl := values[2]
	if ttl < 0 {
		ttl = 0
	}

	return Result{
		Allowed:   values[0] == 1,
		Limit:     l.requests,
		Remaining: int(values[1]),
		ResetAt:   l.now().Add(time.Duration(ttl) * time.Second),
	}, nil
}

func (l *Limiter) allowLocal(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if len(l.localMap) > 100 {
		for k, e := range l.localMap {
			if now.After(e.resetAt) {
				delete(l.localMap, k)
			}
		}
	}

	e, ok := l.localMap[key]
	if !ok || now.After(e.resetAt) {
		e = &entry{resetAt: now.Add(l.window)}
		l.localMap[key] = e
	}

	if e.count >= l.requests {
		return Result{Allowed: false, Limit: l.requests, Remaining: 0, ResetAt: e.resetAt}
	}

	e.count++
	return Result{Allowed: true, Limit: l.requests, Remaining: l.requests - e.count, ResetAt: e.resetAt}
}
