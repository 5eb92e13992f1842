package middleware

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/alairock/kash-money/internal/config"
)

// clientLimiter is one client IP's bucket plus its last activity, so idle
// entries can be evicted.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware applies a token-bucket rate limit per client IP.
type RateLimiterMiddleware struct {
	cfg     *config.Config
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimiterMiddleware creates a new rate limiter middleware.
func NewRateLimiterMiddleware(cfg *config.Config) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		cfg:     cfg,
		clients: make(map[string]*clientLimiter),
	}
	// Background goroutine to clean up old client entries
	go rm.cleanupClients()
	return rm
}

func (rm *RateLimiterMiddleware) limiterFor(key string) *rate.Limiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	client, ok := rm.clients[key]
	if !ok {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitRefillRate), rm.cfg.RateLimitBucketSize),
		}
		rm.clients[key] = client
	}
	client.lastSeen = time.Now()
	return client.limiter
}

// cleanupClients periodically removes client entries that have gone idle.
// The map sits on an unauthenticated surface, so without eviction every
// unique IP would pin a limiter for the life of the process.
func (rm *RateLimiterMiddleware) cleanupClients() {
	for {
		time.Sleep(10 * time.Minute)
		if count := rm.evictStale(30 * time.Minute); count > 0 {
			log.Printf("Rate limiter cleanup removed %d old client entries.", count)
		}
	}
}

// evictStale drops entries idle longer than maxIdle and reports how many
// were removed.
func (rm *RateLimiterMiddleware) evictStale(maxIdle time.Duration) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	count := 0
	for key, client := range rm.clients {
		if time.Since(client.lastSeen) > maxIdle {
			delete(rm.clients, key)
			count++
		}
	}
	return count
}

// Limit returns the Gin handler enforcing the limit.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rm.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
