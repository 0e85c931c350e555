package middleware

import (
	"context"  // Context for counter backends
	"net/http" // HTTP status codes
	"strconv"  // Header formatting
	"sync"     // Mutex for the in-memory counter
	"time"     // Windows and sweeps

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// Login throttle and general API limiter settings
const (
	LoginWindow      = 15 * time.Minute
	LoginMaxAttempts = 5
	APIWindow        = 15 * time.Minute
	APIMaxRequests   = 100
)

// AttemptCounter counts hits per key inside a fixed window that starts at the first hit
type AttemptCounter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	Hit(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

type attempts struct {
	count int
	first time.Time
}

// MemoryCounter is a process-local AttemptCounter
type MemoryCounter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	now    func() time.Time
	items  map[string]*attempts
}

// NewMemoryCounter creates a counter blocking a key after max hits within window
func NewMemoryCounter(window time.Duration, max int) *MemoryCounter {
	return &MemoryCounter{
		window: window,
		max:    max,
		now:    time.Now,
		items:  make(map[string]*attempts),
	}
}

// current returns the live entry for key, restarting it once the window has passed. Caller holds mu.
func (m *MemoryCounter) current(key string) *attempts {
	now := m.now()
	a, ok := m.items[key]
	if !ok || now.Sub(a.first) > m.window {
		a = &attempts{first: now}
		m.items[key] = a
	}
	return a
}

// Blocked reports whether key reached the limit in the current window
func (m *MemoryCounter) Blocked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current(key).count >= m.max, nil
}

// Hit records one attempt for key and returns the count in the current window
func (m *MemoryCounter) Hit(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.current(key)
	a.count++
	return a.count, nil
}

// Reset forgets key
func (m *MemoryCounter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Sweep drops entries whose window has expired
func (m *MemoryCounter) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, a := range m.items {
		if now.Sub(a.first) > m.window {
			delete(m.items, key)
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done
func (m *MemoryCounter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// RedisCounter is an AttemptCounter shared by every instance using the same Redis
type RedisCounter struct {
	rdb    *redis.Client
	prefix string
	window time.Duration
	max    int
}

// NewRedisCounter creates a Redis-backed counter; keys are namespaced by prefix
func NewRedisCounter(rdb *redis.Client, prefix string, window time.Duration, max int) *RedisCounter {
	return &RedisCounter{rdb: rdb, prefix: prefix, window: window, max: max}
}

func (r *RedisCounter) key(key string) string {
	return r.prefix + ":" + key
}

// Blocked reports whether key reached the limit in the current window
func (r *RedisCounter) Blocked(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Get(ctx, r.key(key)).Int()
	if err == redis.Nil {
		return false, nil // No attempts recorded
	} else if err != nil {
		return false, err
	}
	return n >= r.max, nil
}

// Hit increments key; the first hit starts the window
func (r *RedisCounter) Hit(ctx context.Context, key string) (int, error) {
	k := r.key(key)
	n, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.rdb.Expire(ctx, k, r.window).Err(); err != nil {
			return int(n), err
		}
	}
	return int(n), nil
}

// Reset forgets key
func (r *RedisCounter) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}

// BruteForceProtection rejects the request with 429 while the client IP is blocked.
// Counting failures is left to the handler.
func BruteForceProtection(counter AttemptCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		blocked, err := counter.Blocked(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Fail open; the credentials check still runs
			logrus.WithFields(logrus.Fields{"ip": c.ClientIP(), "error": err.Error()}).Warn("Login throttle unavailable")
		}
		if blocked {
			abort(c, http.StatusTooManyRequests, "Demasiados intentos de login. Intenta de nuevo en 15 minutos.")
			return
		}
		c.Next()
	}
}

// RateLimit counts every request per client IP and rejects with 429 past the counter's limit
func RateLimit(counter AttemptCounter, max int) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := counter.Hit(c.Request.Context(), c.ClientIP())
		if err != nil {
			logrus.WithFields(logrus.Fields{"ip": c.ClientIP(), "error": err.Error()}).Warn("Rate limiter unavailable")
			c.Next()
			return
		}
		remaining := max - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("RateLimit-Limit", strconv.Itoa(max))
		c.Header("RateLimit-Remaining", strconv.Itoa(remaining))
		if n > max {
			abort(c, http.StatusTooManyRequests, "Demasiadas solicitudes desde esta IP, intenta de nuevo en 15 minutos.")
			return
		}
		c.Next()
	}
}
