package request

import (
	"math/rand"
	"sync"
	"time"
)

// ProviderBackoff throttles outbound requests per provider after failures.
// Each failure doubles the hold-off up to maxDelay; successes walk the
// failure count back down one step at a time.
type ProviderBackoff struct {
	mu        sync.RWMutex
	states    map[string]*backoffState
	baseDelay time.Duration
	maxDelay  time.Duration
}

type backoffState struct {
	failureCount int
	nextAllowed  time.Time
}

// NewProviderBackoff creates a backoff manager with the given base and cap.
func NewProviderBackoff(baseDelay, maxDelay time.Duration) *ProviderBackoff {
	return &ProviderBackoff{
		states:    make(map[string]*backoffState),
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
	}
}

// Wait blocks until the provider's hold-off window has passed.
func (b *ProviderBackoff) Wait(provider string) {
	b.mu.RLock()
	st, ok := b.states[provider]
	b.mu.RUnlock()
	if !ok {
		return
	}
	if d := time.Until(st.nextAllowed); d > 0 {
		time.Sleep(d)
	}
}

// RecordFailure extends the provider's hold-off window.
func (b *ProviderBackoff) RecordFailure(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[provider]
	if !ok {
		st = &backoffState{}
		b.states[provider] = st
	}
	st.failureCount++
	st.nextAllowed = time.Now().Add(b.delayFor(st.failureCount))
}

// RecordSuccess steps the provider one level back toward no hold-off.
func (b *ProviderBackoff) RecordSuccess(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[provider]
	if !ok {
		return
	}
	if st.failureCount > 0 {
		st.failureCount--
	}
	if st.failureCount == 0 {
		st.nextAllowed = time.Time{}
	}
}

// delayFor computes baseDelay * 2^(failures-1), capped, plus up to 10% jitter.
func (b *ProviderBackoff) delayFor(failures int) time.Duration {
	delay := b.baseDelay
	for i := 1; i < failures && delay < b.maxDelay; i++ {
		delay *= 2
	}
	if delay > b.maxDelay {
		delay = b.maxDelay
	}
	return delay + time.Duration(rand.Int63n(int64(delay)/10+1))
}

// GetState reports the provider's failure count and hold-off deadline.
func (b *ProviderBackoff) GetState(provider string) (failureCount int, nextAllowed time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if st, ok := b.states[provider]; ok {
		return st.failureCount, st.nextAllowed
	}
	return 0, time.Time{}
}
