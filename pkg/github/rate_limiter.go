package github

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter arbitrates the shared GitHub API budget across all
// repository sync cycles. It is the single cross-repository shared
// resource; every outbound call waits on it first.
type RateLimiter interface {
	// Wait blocks until it's safe to make an API call
	Wait(ctx context.Context) error

	// UpdateLimits updates the limiter with rate limit information
	// reported by the GitHub API response headers
	UpdateLimits(remaining int, reset time.Time)

	// AcquireSlot acquires a slot for concurrent processing (blocks if limit reached)
	AcquireSlot(ctx context.Context) error

	// ReleaseSlot releases a slot for concurrent processing
	ReleaseSlot()

	// Stats returns current rate limiter statistics
	Stats() RateLimiterStats
}

// RateLimiterStats provides statistics about rate limiter usage
type RateLimiterStats struct {
	RemainingRequests  int           `json:"remaining_requests"`
	ResetTime          time.Time     `json:"reset_time"`
	ConcurrentSlots    int           `json:"concurrent_slots"`
	MaxConcurrentSlots int           `json:"max_concurrent_slots"`
	TotalWaits         int64         `json:"total_waits"`
	TotalDelayTime     time.Duration `json:"total_delay_time"`
}

// RateLimiterConfig configures the rate limiter behavior
type RateLimiterConfig struct {
	// BaseDelay is the minimum delay between requests
	BaseDelay time.Duration

	// MaxDelay is the maximum delay between requests
	MaxDelay time.Duration

	// BackoffFactor is the exponential backoff multiplier
	BackoffFactor float64

	// Jitter adds randomness to delays to avoid thundering herd
	Jitter float64

	// ConcurrencyLimit is the maximum number of concurrent repository cycles
	ConcurrencyLimit int

	// MinRemainingRequests is the threshold below which aggressive throttling starts
	MinRemainingRequests int

	// AggressiveThrottleDelay is the delay when remaining requests are low
	AggressiveThrottleDelay time.Duration
}

// DefaultRateLimiterConfig returns a default rate limiter configuration
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		BaseDelay:               100 * time.Millisecond,
		MaxDelay:                30 * time.Second,
		BackoffFactor:           2.0,
		Jitter:                  0.1,
		ConcurrencyLimit:        5,
		MinRemainingRequests:    100,
		AggressiveThrottleDelay: 2 * time.Second,
	}
}

// rateLimiter implements the RateLimiter interface
type rateLimiter struct {
	config *RateLimiterConfig
	mu     sync.RWMutex

	remaining int
	resetTime time.Time
	lastCall  time.Time

	semaphore chan struct{}

	stats RateLimiterStats

	rand *rand.Rand
}

// NewRateLimiter creates a rate limiter shared by all repository cycles
func NewRateLimiter(config *RateLimiterConfig) RateLimiter {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}
	if config.ConcurrencyLimit <= 0 {
		config.ConcurrencyLimit = 1
	}

	rl := &rateLimiter{
		config:    config,
		remaining: 5000, // GitHub's default hourly quota
		resetTime: time.Now().Add(time.Hour),
		semaphore: make(chan struct{}, config.ConcurrencyLimit),
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	rl.stats.MaxConcurrentSlots = config.ConcurrencyLimit

	return rl
}

// Wait blocks until it's safe to make an API call
func (rl *rateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()

	delay := rl.calculateDelay()
	if delay > 0 {
		rl.stats.TotalWaits++
		rl.stats.TotalDelayTime += delay

		// Release the lock while waiting
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		rl.mu.Lock()
	}

	rl.lastCall = time.Now()
	rl.mu.Unlock()
	return nil
}

// UpdateLimits updates the limiter with information from response headers
func (rl *rateLimiter) UpdateLimits(remaining int, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.remaining = remaining
	rl.resetTime = reset
	rl.stats.RemainingRequests = remaining
	rl.stats.ResetTime = reset
}

// AcquireSlot acquires a slot for concurrent processing
func (rl *rateLimiter) AcquireSlot(ctx context.Context) error {
	select {
	case rl.semaphore <- struct{}{}:
		rl.mu.Lock()
		rl.stats.ConcurrentSlots++
		rl.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReleaseSlot releases a slot for concurrent processing
func (rl *rateLimiter) ReleaseSlot() {
	select {
	case <-rl.semaphore:
		rl.mu.Lock()
		rl.stats.ConcurrentSlots--
		rl.mu.Unlock()
	default:
		// No slot to release
	}
}

// Stats returns current rate limiter statistics
func (rl *rateLimiter) Stats() RateLimiterStats {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	return rl.stats
}

// calculateDelay calculates the delay needed before the next API call.
// Caller must hold mu.
func (rl *rateLimiter) calculateDelay() time.Duration {
	now := time.Now()

	// Quota has reset, no delay needed
	if now.After(rl.resetTime) {
		return 0
	}

	var totalDelay time.Duration

	if !rl.lastCall.IsZero() {
		sinceLast := now.Sub(rl.lastCall)
		if sinceLast < rl.config.BaseDelay {
			totalDelay = rl.config.BaseDelay - sinceLast
		}
	}

	// Throttle harder as the remaining budget shrinks
	if rl.remaining < rl.config.MinRemainingRequests {
		aggressive := rl.calculateAggressiveDelay()
		if aggressive > totalDelay {
			totalDelay = aggressive
		}
	}

	// Exponential backoff when under 10% of the default quota
	if rl.remaining < 500 {
		multiplier := math.Pow(rl.config.BackoffFactor, float64(5000-rl.remaining)/1000)
		backoff := time.Duration(float64(rl.config.BaseDelay) * multiplier)
		if backoff > totalDelay {
			totalDelay = backoff
		}
	}

	if rl.config.Jitter > 0 && totalDelay > 0 {
		jitter := time.Duration(rl.rand.Float64() * float64(totalDelay) * rl.config.Jitter)
		totalDelay += jitter
	}

	if totalDelay > rl.config.MaxDelay {
		totalDelay = rl.config.MaxDelay
	}

	return totalDelay
}

// calculateAggressiveDelay calculates delay when remaining requests are low
func (rl *rateLimiter) calculateAggressiveDelay() time.Duration {
	if rl.remaining <= 0 {
		// Budget exhausted, wait for the reset
		waitTime := time.Until(rl.resetTime)
		if waitTime > 0 {
			return waitTime
		}
		return 0
	}

	remainingRatio := float64(rl.remaining) / float64(rl.config.MinRemainingRequests)
	if remainingRatio >= 1.0 {
		return 0
	}

	// Fewer remaining requests, longer delay
	return time.Duration(float64(rl.config.AggressiveThrottleDelay) * (1.0 - remainingRatio))
}
