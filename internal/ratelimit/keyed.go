// Package ratelimit limits producer calls per session and API calls per
// client with a token bucket and an optional rolling daily window per key.
package ratelimit

import (
	"sync"
	"time"

	"github.com/genocem/Edumond-AI-portal/internal/metrics"
)

// DefaultCleanupPeriod is used when KeyedConfig.CleanupPeriod is zero.
const DefaultCleanupPeriod = 5 * time.Minute

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Name identifies this limiter for metrics (e.g., "llm", "http")
	Name string

	// Token bucket settings
	Burst      float64 // Maximum tokens (burst capacity)
	RefillRate float64 // Tokens refilled per second

	// Rolling 24h cap per key (0 = disabled)
	DailyLimit int

	// How often to drop idle keys. Zero uses DefaultCleanupPeriod.
	CleanupPeriod time.Duration

	// Optional metrics reporter
	Metrics *metrics.Metrics
}

// KeyedLimiter tracks rate limits per key (e.g., session ID, client IP).
// Entries are created on first use and dropped once idle.
type KeyedLimiter struct {
	mu       sync.RWMutex
	entries  map[string]*keyedEntry
	config   KeyedConfig
	onDrop   func()          // Optional callback when request is dropped
	onUpdate func(count int) // Optional callback when active count changes
	stopCh   chan struct{}
	now      func() time.Time
}

// keyedEntry holds per-key state. mu guards both quotas so a call is
// checked against both before either is charged.
type keyedEntry struct {
	mu     sync.Mutex
	bucket *tokenBucket
	daily  *rollingWindow
}

// admit charges one call if both quotas allow it.
func (e *keyedEntry) admit(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.daily.canTake(now) || !e.bucket.canTake(now) {
		return false
	}
	e.daily.take()
	e.bucket.take()
	return true
}

func (e *keyedEntry) idle(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bucket.full(now) && e.daily.effective(now) == 0
}

// NewKeyedLimiter creates a new per-key rate limiter.
//
// Example:
//
//	limiter := NewKeyedLimiter(KeyedConfig{
//	    Name:       "http",
//	    Burst:      20,
//	    RefillRate: 1,
//	})
//	defer limiter.Stop()
//
//	if limiter.Allow(clientIP) {
//	    // Process request
//	}
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = DefaultCleanupPeriod
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		config:  cfg,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	// Setup metrics callbacks
	if cfg.Metrics != nil {
		kl.onDrop = func() {
			cfg.Metrics.RecordRateLimiterDrop(cfg.Name)
		}
		kl.onUpdate = func(count int) {
			cfg.Metrics.SetRateLimiterKeys(cfg.Name, count)
		}
	}

	go kl.cleanupLoop()

	return kl
}

// Allow charges one call to key and reports whether it was admitted.
// With DailyLimit set, both the bucket and the daily window must pass.
// The empty key is never limited.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	if kl.getOrCreateEntry(key).admit(kl.now()) {
		return true
	}
	if kl.onDrop != nil {
		kl.onDrop()
	}
	return false
}

// getOrCreateEntry returns the entry for a key, creating it if needed.
func (kl *KeyedLimiter) getOrCreateEntry(key string) *keyedEntry {
	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if exists {
		return entry
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	// Double-check after acquiring write lock
	entry, exists = kl.entries[key]
	if exists {
		return entry
	}

	now := kl.now()
	entry = &keyedEntry{
		bucket: newTokenBucket(kl.config.Burst, kl.config.RefillRate, now),
		daily:  newRollingWindow(kl.config.DailyLimit, 24*time.Hour, now),
	}
	kl.entries[key] = entry
	return entry
}

// GetAvailable returns the number of available tokens for a key.
// Returns Burst if the key has no limiter yet.
func (kl *KeyedLimiter) GetAvailable(key string) float64 {
	if key == "" {
		return kl.config.Burst
	}

	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if !exists {
		return kl.config.Burst
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.bucket.available(kl.now())
}

// GetDailyRemaining returns the remaining daily quota for a key.
// Returns -1 if daily limit is disabled, or max if key not found.
func (kl *KeyedLimiter) GetDailyRemaining(key string) int {
	if kl.config.DailyLimit <= 0 {
		return -1 // Disabled
	}

	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if !exists {
		return kl.config.DailyLimit
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.daily.remaining(kl.now())
}

// GetActiveCount returns the number of active limiters.
func (kl *KeyedLimiter) GetActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

// cleanupLoop periodically removes inactive limiters.
func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.sweep()
		}
	}
}

// sweep drops entries whose bucket has refilled and whose daily window is empty.
func (kl *KeyedLimiter) sweep() {
	now := kl.now()
	kl.mu.Lock()
	for key, entry := range kl.entries {
		if entry.idle(now) {
			delete(kl.entries, key)
		}
	}
	activeCount := len(kl.entries)
	kl.mu.Unlock()

	if kl.onUpdate != nil {
		kl.onUpdate(activeCount)
	}
}

// Forget drops the state of key, e.g. when its session is deleted.
func (kl *KeyedLimiter) Forget(key string) {
	kl.mu.Lock()
	delete(kl.entries, key)
	kl.mu.Unlock()
}

// NewHourlyLimiter creates a keyed limiter allowing maxPerHour calls per key
// with a burst of the full hourly allowance, plus an optional rolling
// daily cap.
func NewHourlyLimiter(name string, maxPerHour float64, dailyLimit int, m *metrics.Metrics) *KeyedLimiter {
	return NewKeyedLimiter(KeyedConfig{
		Name:       name,
		Burst:      maxPerHour,
		RefillRate: maxPerHour / 3600,
		DailyLimit: dailyLimit,
		Metrics:    m,
	})
}

// Stop gracefully stops the cleanup goroutine.
// Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	select {
	case <-kl.stopCh:
		// Already stopped
	default:
		close(kl.stopCh)
	}
}
