package ratelimit

import (
	"sync"
	"time"
)

type keyedEntry struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per client key and forgets keys idle longer than idleExpiry
type KeyedLimiter struct {
	limiters   map[string]*keyedEntry
	mu         sync.Mutex
	maxTokens  float64
	refillRate float64
	idleExpiry time.Duration
	now        func() time.Time
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewKeyedLimiter creates a KeyedLimiter and starts its eviction loop
func NewKeyedLimiter(maxTokens, refillRate float64, idleExpiry time.Duration) *KeyedLimiter {
	limiter := newKeyedLimiter(maxTokens, refillRate, idleExpiry, time.Now)

	go limiter.cleanupLoop()

	return limiter
}

func newKeyedLimiter(maxTokens, refillRate float64, idleExpiry time.Duration, now func() time.Time) *KeyedLimiter {
	if idleExpiry <= 0 {
		idleExpiry = 10 * time.Minute
	}

	return &KeyedLimiter{
		limiters:   make(map[string]*keyedEntry),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		idleExpiry: idleExpiry,
		now:        now,
		stopChan:   make(chan struct{}),
	}
}

// Allow checks if a request for the given key can proceed
func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.getLimiter(key).Allow()
}

func (kl *KeyedLimiter) getLimiter(key string) *TokenBucket {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	entry, exists := kl.limiters[key]

	if !exists {
		entry = &keyedEntry{bucket: newTokenBucket(kl.maxTokens, kl.refillRate, kl.now)}
		kl.limiters[key] = entry
	}

	entry.lastSeen = kl.now()
	return entry.bucket
}

// Len returns the number of tracked keys
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	return len(kl.limiters)
}

// evictIdle drops keys not seen since idleExpiry and returns how many were removed
func (kl *KeyedLimiter) evictIdle() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	cutoff := kl.now().Add(-kl.idleExpiry)
	removed := 0

	for key, entry := range kl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(kl.limiters, key)
			removed++
		}
	}

	return removed
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.idleExpiry / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			kl.evictIdle()
		case <-kl.stopChan:
			return
		}
	}
}

// Stop stops the eviction loop
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() { close(kl.stopChan) })
}
