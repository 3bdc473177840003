package ratelimit

import "time"

// tokenBucket refills at rate tokens per second up to capacity. It has no
// lock of its own: keyedEntry.mu guards it.
type tokenBucket struct {
	tokens     float64
	capacity   float64
	rate       float64
	lastRefill time.Time
}

func newTokenBucket(capacity, rate float64, now time.Time) *tokenBucket {
	return &tokenBucket{tokens: capacity, capacity: capacity, rate: rate, lastRefill: now}
}

func (b *tokenBucket) refill(now time.Time) {
	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.rate)
	}
	b.lastRefill = now
}

func (b *tokenBucket) available(now time.Time) float64 {
	b.refill(now)
	return b.tokens
}

func (b *tokenBucket) canTake(now time.Time) bool {
	return b.available(now) >= 1
}

func (b *tokenBucket) take() {
	if b.tokens >= 1 {
		b.tokens--
	}
}

func (b *tokenBucket) full(now time.Time) bool {
	return b.available(now) >= b.capacity
}

// rollingWindow caps events over a rolling window approximated from two
// fixed windows:
//
//	effective = current + previous × (time left in current window / window)
//
// A session that used 20 of 30 calls yesterday and is 6h into today still
// counts 15 of them. A nil window is unlimited.
type rollingWindow struct {
	limit    int
	size     time.Duration
	start    time.Time
	current  int
	previous int
}

func newRollingWindow(limit int, size time.Duration, now time.Time) *rollingWindow {
	if limit <= 0 {
		return nil
	}
	return &rollingWindow{limit: limit, size: size, start: now}
}

func (w *rollingWindow) rotate(now time.Time) {
	elapsed := now.Sub(w.start)
	if elapsed < w.size {
		return
	}
	passed := int(elapsed / w.size)
	if passed == 1 {
		w.previous = w.current
	} else {
		w.previous = 0
	}
	w.current = 0
	w.start = w.start.Add(time.Duration(passed) * w.size)
}

func (w *rollingWindow) effective(now time.Time) float64 {
	if w == nil {
		return 0
	}
	w.rotate(now)
	overlap := float64(w.size-now.Sub(w.start)) / float64(w.size)
	overlap = max(0, min(1, overlap))
	return float64(w.current) + float64(w.previous)*overlap
}

func (w *rollingWindow) canTake(now time.Time) bool {
	return w == nil || w.effective(now) < float64(w.limit)
}

func (w *rollingWindow) take() {
	if w != nil {
		w.current++
	}
}

func (w *rollingWindow) remaining(now time.Time) int {
	if w == nil {
		return -1
	}
	return max(0, int(float64(w.limit)-w.effective(now)))
}
