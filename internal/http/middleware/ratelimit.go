package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-todo-backend/internal/domain"
)

const (
	// sweepEvery is the number of lookups between sweeps of idle buckets.
	sweepEvery = 5000
	// idleTTL is how long an unused bucket survives a sweep.
	idleTTL = 10 * time.Minute
	// maxRetryAfter caps the advertised wait.
	maxRetryAfter = time.Hour
)

var rateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "todo",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
}, []string{"path"})

func init() {
	prometheus.MustRegister(rateLimited)
}

// KeyFunc selects the identity used to key a rate-limit bucket.
type KeyFunc func(*gin.Context) string

// KeyByIP keys buckets by client IP ("ip:203.0.113.7").
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is an in-memory, per-key token bucket limiter. It is process
// local and safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	keyFn KeyFunc
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
}

// NewRateLimiter returns a limiter refilling rps tokens per second with room
// for burst tokens per key. A burst below 1 is raised to 1.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		keyFn:   keyFn,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// limiterFor returns the bucket limiter for key, creating it on first use.
// Every sweepEvery lookups, buckets idle for idleTTL are dropped first.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lookups++; rl.lookups >= sweepEvery {
		rl.lookups = 0
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= idleTTL {
				delete(rl.buckets, k)
			}
		}
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// allow takes a token for key. When none is available it returns the wait
// until the next one in whole seconds, between 1 and maxRetryAfter. A bucket
// that never refills reports 1.
func (rl *RateLimiter) allow(key string) (bool, int) {
	now := rl.now()
	res := rl.limiterFor(key, now).ReserveN(now, 1)
	if !res.OK() {
		return false, 1
	}
	wait := res.DelayFrom(now)
	if wait == 0 {
		return true, 0
	}
	res.CancelAt(now)
	switch {
	case wait == rate.InfDuration:
		return false, 1
	case wait > maxRetryAfter:
		wait = maxRetryAfter
	}
	return false, max(int(math.Ceil(wait.Seconds())), 1)
}

// Handler enforces the limit. A rejected request gets 429, Retry-After, and
// the BadRequest envelope:
//
//	{"success":false,"errorCode":1001,"errorMessage":"Bad Request: rate limit exceeded"}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry := rl.allow(rl.keyFn(c))
		if ok {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		rateLimited.WithLabelValues(path).Inc()
		c.Header("Retry-After", strconv.Itoa(retry))
		abortWithError(c, http.StatusTooManyRequests, domain.NewBadRequestError("rate limit exceeded"))
	}
}
