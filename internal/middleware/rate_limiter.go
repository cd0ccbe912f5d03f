package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mroshb/friendgraph/pkg/errors"
	"github.com/mroshb/friendgraph/pkg/response"
)

// RateLimiter implements a fixed-window in-memory rate limiter keyed by
// caller id and client IP.
type RateLimiter struct {
	userLimits map[uint]*windowCount
	ipLimits   map[string]*windowCount
	mu         sync.Mutex

	userMaxRequests int
	ipMaxRequests   int
	window          time.Duration
	now             func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type windowCount struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter. Call Stop to end its cleanup loop.
func NewRateLimiter(userMaxRequests, ipMaxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		userLimits:      make(map[uint]*windowCount),
		ipLimits:        make(map[string]*windowCount),
		userMaxRequests: userMaxRequests,
		ipMaxRequests:   ipMaxRequests,
		window:          window,
		now:             time.Now,
		stop:            make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// CheckUserLimit checks if user has exceeded rate limit
func (rl *RateLimiter) CheckUserLimit(userID uint) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := rl.userLimits[userID]
	allowed, next := rl.hit(limit, exists, rl.userMaxRequests)
	rl.userLimits[userID] = next
	return allowed
}

// CheckIPLimit checks if IP has exceeded rate limit
func (rl *RateLimiter) CheckIPLimit(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := rl.ipLimits[ip]
	allowed, next := rl.hit(limit, exists, rl.ipMaxRequests)
	rl.ipLimits[ip] = next
	return allowed
}

func (rl *RateLimiter) hit(limit *windowCount, exists bool, max int) (bool, *windowCount) {
	now := rl.now()
	if !exists || now.After(limit.resetTime) {
		return true, &windowCount{requests: 1, resetTime: now.Add(rl.window)}
	}
	if limit.requests >= max {
		return false, limit
	}
	limit.requests++
	return true, limit
}

// GetUserRemaining returns remaining requests for user
func (rl *RateLimiter) GetUserRemaining(userID uint) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.remaining(rl.userLimits[userID], rl.userMaxRequests)
}

// GetIPRemaining returns remaining requests for IP
func (rl *RateLimiter) GetIPRemaining(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.remaining(rl.ipLimits[ip], rl.ipMaxRequests)
}

func (rl *RateLimiter) remaining(limit *windowCount, max int) int {
	if limit == nil || rl.now().After(limit.resetTime) {
		return max
	}
	if remaining := max - limit.requests; remaining > 0 {
		return remaining
	}
	return 0
}

// LimitIP rejects requests once the client IP exhausts its window.
func (rl *RateLimiter) LimitIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.CheckIPLimit(ip) {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			response.Error(c, errors.New(errors.ErrCodeRateLimitExceeded, "too many requests"))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.GetIPRemaining(ip)))
		c.Next()
	}
}

// LimitUser rejects requests once the authenticated caller exhausts its
// window. It must run after RequireAuth.
func (rl *RateLimiter) LimitUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}
		if !rl.CheckUserLimit(userID) {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			response.Error(c, errors.New(errors.ErrCodeRateLimitExceeded, "too many requests"))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.GetUserRemaining(userID)))
		c.Next()
	}
}

// cleanup removes expired entries
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for userID, limit := range rl.userLimits {
				if now.After(limit.resetTime) {
					delete(rl.userLimits, userID)
				}
			}
			for ip, limit := range rl.ipLimits {
				if now.After(limit.resetTime) {
					delete(rl.ipLimits, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.userLimits = make(map[uint]*windowCount)
	rl.ipLimits = make(map[string]*windowCount)
}
