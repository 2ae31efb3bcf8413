package server

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateLimiter is a fixed-window per-client counter. Windows are tracked
// in memory; a multi-instance deployment gets limit*instances, which is
// acceptable for an abuse brake on the public token endpoints.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*rateBucket
}

type rateBucket struct {
	windowStart time.Time
	count       int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*rateBucket),
	}
}

// Allow reports whether the client may proceed and counts the attempt.
func (l *rateLimiter) Allow(client string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[client]
	if !ok || now.Sub(bucket.windowStart) >= l.window {
		l.buckets[client] = &rateBucket{windowStart: now, count: 1}
		if len(l.buckets) > 10000 {
			l.evictStale(now)
		}
		return true
	}
	bucket.count++
	return bucket.count <= l.limit
}

// evictStale drops closed windows. Caller holds the lock.
func (l *rateLimiter) evictStale(now time.Time) {
	for client, bucket := range l.buckets {
		if now.Sub(bucket.windowStart) >= l.window {
			delete(l.buckets, client)
		}
	}
}

// PublicRateLimit throttles the unauthenticated token endpoints by
// client IP.
func (s *Server) PublicRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.rateLimiter.Allow(c.ClientIP(), time.Now()) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
