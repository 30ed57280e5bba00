package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	authmiddleware "github.com/Conceptual-Machines/eternal-union/internal/middleware"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL     = 10 * time.Minute
	limiterSweepPeriod = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (v *visitor) touch() {
	v.mu.Lock()
	v.lastSeen = time.Now()
	v.mu.Unlock()
}

func (v *visitor) idleFor() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return time.Since(v.lastSeen)
}

// RateLimiter keeps one token bucket per signed-in user or client address.
type RateLimiter struct {
	visitors sync.Map
	rate     rate.Limit
	burst    int
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows perMinute generation requests per client, with a
// burst of the same size. Idle buckets are evicted in the background.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	rl := &RateLimiter{
		rate:  rate.Every(time.Minute / time.Duration(perMinute)),
		burst: perMinute,
		done:  make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Get returns the limiter for key, creating one if needed.
func (rl *RateLimiter) Get(key string) *rate.Limiter {
	if v, ok := rl.visitors.Load(key); ok {
		vis := v.(*visitor)
		vis.touch()
		return vis.limiter
	}
	v, _ := rl.visitors.LoadOrStore(key, &visitor{
		limiter:  rate.NewLimiter(rl.rate, rl.burst),
		lastSeen: time.Now(),
	})
	return v.(*visitor).limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(limiterSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.visitors.Range(func(key, value any) bool {
				if value.(*visitor).idleFor() > limiterIdleTTL {
					rl.visitors.Delete(key)
				}
				return true
			})
		case <-rl.done:
			return
		}
	}
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// limiterKey buckets signed-in requests by user and the rest by client IP.
// Studio ids are not used: a browser that drops its cookie gets a new one.
func limiterKey(c *gin.Context) string {
	if userID, ok := authmiddleware.GetCurrentUserID(c); ok {
		return "user:" + strconv.FormatUint(uint64(userID), 10)
	}
	return "ip:" + c.ClientIP()
}

// Middleware limits requests per client.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := limiterKey(c)

		reservation := rl.Get(key).Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many generation requests, slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
