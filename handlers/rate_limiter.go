package handlers

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Per-IP token buckets plus one global bucket, both env configurable.
var (
	globalLimiter *rate.Limiter
	ipLimiters    sync.Map
	ipRate        rate.Limit = 10
	ipBurst                  = 20
)

// InitRateLimiter reads rate limit settings from the environment.
// RATE_LIMIT_GLOBAL and RATE_LIMIT_PER_IP are requests per second.
func InitRateLimiter() {
	globalRPS := envInt("RATE_LIMIT_GLOBAL", 100)
	perIPRPS := envInt("RATE_LIMIT_PER_IP", 10)

	globalLimiter = rate.NewLimiter(rate.Limit(globalRPS), globalRPS*2)
	ipRate = rate.Limit(perIPRPS)
	ipBurst = perIPRPS * 2

	log.Printf("Rate limiter initialized: global %d rps, per-IP %d rps", globalRPS, perIPRPS)
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func limiterForIP(ip string) *rate.Limiter {
	if entry, ok := ipLimiters.Load(ip); ok {
		e := entry.(*ipLimiterEntry)
		e.lastSeen = time.Now()
		return e.limiter
	}
	entry := &ipLimiterEntry{
		limiter:  rate.NewLimiter(ipRate, ipBurst),
		lastSeen: time.Now(),
	}
	actual, _ := ipLimiters.LoadOrStore(ip, entry)
	return actual.(*ipLimiterEntry).limiter
}

// RateLimitMiddleware rejects requests beyond the configured budget.
func RateLimitMiddleware() gin.HandlerFunc {
	if globalLimiter == nil {
		InitRateLimiter()
	}

	// Stale per-IP buckets are dropped in the background.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-10 * time.Minute)
			ipLimiters.Range(func(key, value interface{}) bool {
				if value.(*ipLimiterEntry).lastSeen.Before(cutoff) {
					ipLimiters.Delete(key)
				}
				return true
			})
		}
	}()

	return func(c *gin.Context) {
		if !globalLimiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "server is busy, try again later"})
			return
		}
		if !limiterForIP(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
