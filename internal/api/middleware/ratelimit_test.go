package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alairock/kash-money/internal/config"
)

func rateLimiterForTest() *RateLimiterMiddleware {
	// Construct directly so no cleanup goroutine runs during the test.
	return &RateLimiterMiddleware{
		cfg:     &config.Config{RateLimitBucketSize: 4, RateLimitRefillRate: 2},
		clients: make(map[string]*clientLimiter),
	}
}

func TestLimiterReusedPerClient(t *testing.T) {
	rm := rateLimiterForTest()

	first := rm.limiterFor("10.0.0.1")
	second := rm.limiterFor("10.0.0.1")
	assert.Same(t, first, second, "same client must share one bucket")
	assert.Len(t, rm.clients, 1)

	rm.limiterFor("10.0.0.2")
	assert.Len(t, rm.clients, 2)
}

func TestEvictStaleDropsIdleClients(t *testing.T) {
	rm := rateLimiterForTest()

	rm.limiterFor("10.0.0.1")
	rm.limiterFor("10.0.0.2")
	rm.clients["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)

	removed := rm.evictStale(30 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.Len(t, rm.clients, 1)
	require.Contains(t, rm.clients, "10.0.0.2")
}

func TestEvictStaleResetByActivity(t *testing.T) {
	rm := rateLimiterForTest()

	rm.limiterFor("10.0.0.1")
	rm.clients["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)

	// A fresh request refreshes lastSeen, so the sweep keeps the entry.
	rm.limiterFor("10.0.0.1")
	assert.Equal(t, 0, rm.evictStale(30*time.Minute))
	assert.Len(t, rm.clients, 1)
}
