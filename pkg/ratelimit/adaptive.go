package ratelimit

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// LoadFunc reports system load between 0.0 and 1.0
type LoadFunc func() float64

// GoroutineLoad uses the goroutine count against maxGoroutines as a load proxy
func GoroutineLoad(maxGoroutines int) LoadFunc {
	return func() float64 {
		load := float64(runtime.NumGoroutine()) / float64(maxGoroutines)
		return min(load, 1.0)
	}
}

// AdaptiveRateLimiter adjusts rate limits based on system load
type AdaptiveRateLimiter struct {
	baseLimiter        *TokenBucket
	maxRate            float64
	minRate            float64
	currentRate        float64
	loadThreshold      float64
	currentLoad        float64
	load               LoadFunc
	requestCount       int64
	successCount       int64
	rejectionCount     int64
	mutex              sync.Mutex
	stopChan           chan struct{}
	stopOnce           sync.Once
	adaptationInterval time.Duration
}

// AdaptiveConfig configures an AdaptiveRateLimiter
type AdaptiveConfig struct {
	MaxTokens float64
	MaxRate   float64
	MinRate   float64
	// LoadThreshold is the load above which the rate falls towards MinRate
	LoadThreshold float64
	Interval      time.Duration
	// Load defaults to GoroutineLoad(10000)
	Load LoadFunc
}

// NewAdaptiveRateLimiter creates a new adaptive rate limiter and starts its adaptation loop
func NewAdaptiveRateLimiter(cfg AdaptiveConfig) *AdaptiveRateLimiter {
	arl := newAdaptiveRateLimiter(cfg, time.Now)

	go arl.adaptationLoop()

	return arl
}

func newAdaptiveRateLimiter(cfg AdaptiveConfig, now func() time.Time) *AdaptiveRateLimiter {
	if cfg.Load == nil {
		cfg.Load = GoroutineLoad(10000)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.LoadThreshold <= 0 || cfg.LoadThreshold >= 1 {
		cfg.LoadThreshold = 0.8
	}

	return &AdaptiveRateLimiter{
		baseLimiter:        newTokenBucket(cfg.MaxTokens, cfg.MaxRate, now),
		maxRate:            cfg.MaxRate,
		minRate:            cfg.MinRate,
		currentRate:        cfg.MaxRate,
		loadThreshold:      cfg.LoadThreshold,
		load:               cfg.Load,
		adaptationInterval: cfg.Interval,
		stopChan:           make(chan struct{}),
	}
}

// Allow checks if a request can proceed based on the adaptive rate limit
func (arl *AdaptiveRateLimiter) Allow() bool {
	atomic.AddInt64(&arl.requestCount, 1)
	allowed := arl.baseLimiter.Allow()

	if allowed {
		atomic.AddInt64(&arl.successCount, 1)
	} else {
		atomic.AddInt64(&arl.rejectionCount, 1)
	}

	return allowed
}

func (arl *AdaptiveRateLimiter) adaptationLoop() {
	ticker := time.NewTicker(arl.adaptationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			arl.adapt()
		case <-arl.stopChan:
			return
		}
	}
}

// adapt keeps maxRate up to the load threshold and falls linearly to minRate at full load
func (arl *AdaptiveRateLimiter) adapt() {
	arl.mutex.Lock()
	defer arl.mutex.Unlock()

	arl.currentLoad = min(max(arl.load(), 0), 1)

	newRate := arl.maxRate

	if arl.currentLoad > arl.loadThreshold {
		loadFactor := (arl.currentLoad - arl.loadThreshold) / (1.0 - arl.loadThreshold)
		newRate = arl.maxRate - (arl.maxRate-arl.minRate)*loadFactor
	}

	arl.currentRate = newRate
	arl.baseLimiter.SetRate(newRate)
}

// Stop stops the adaptive rate limiter
func (arl *AdaptiveRateLimiter) Stop() {
	arl.stopOnce.Do(func() { close(arl.stopChan) })
}

// GetMetrics returns metrics about the rate limiter
func (arl *AdaptiveRateLimiter) GetMetrics() map[string]interface{} {
	arl.mutex.Lock()
	currentRate, currentLoad := arl.currentRate, arl.currentLoad
	arl.mutex.Unlock()

	return map[string]interface{}{
		"current_rate":     currentRate,
		"max_rate":         arl.maxRate,
		"min_rate":         arl.minRate,
		"current_load":     currentLoad,
		"load_threshold":   arl.loadThreshold,
		"request_count":    atomic.LoadInt64(&arl.requestCount),
		"success_count":    atomic.LoadInt64(&arl.successCount),
		"rejection_count":  atomic.LoadInt64(&arl.rejectionCount),
		"available_tokens": arl.baseLimiter.Available(),
	}
}

// Reset resets the rate limiter to its initial state
func (arl *AdaptiveRateLimiter) Reset() {
	arl.mutex.Lock()
	defer arl.mutex.Unlock()

	arl.baseLimiter.Reset()
	arl.baseLimiter.SetRate(arl.maxRate)
	arl.currentRate = arl.maxRate

	atomic.StoreInt64(&arl.requestCount, 0)
	atomic.StoreInt64(&arl.successCount, 0)
	atomic.StoreInt64(&arl.rejectionCount, 0)
}
