package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/chartstats/pkg/timeutil"
)

// RateLimiter spaces out live requests per host.
// FinalDelay = max(BaseDelay, BackoffDelay) + Jitter, minus the time
// already elapsed since the host was last fetched.
type RateLimiter interface {
	Backoff(host string)
	ResetBackoff(host string)
	MarkLastFetchAsNow(host string)
	ResolveDelay(host string) time.Duration
	Wait(ctx context.Context, host string) error
}

type HostRateLimiter struct {
	mu           sync.RWMutex
	rngMu        sync.Mutex
	baseDelay    time.Duration
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	hostTimings  map[string]hostTiming
	rng          *rand.Rand
}

func NewHostRateLimiter(
	baseDelay time.Duration,
	jitter time.Duration,
	randomSeed int64,
	backoffParam timeutil.BackoffParam,
) *HostRateLimiter {
	return &HostRateLimiter{
		baseDelay:    baseDelay,
		jitter:       jitter,
		backoffParam: backoffParam,
		hostTimings:  make(map[string]hostTiming),
		rng:          rand.New(rand.NewSource(randomSeed)),
	}
}

// Backoff increments the backoff counter for host and recomputes its delay.
func (r *HostRateLimiter) Backoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.backoffCount++

	r.rngMu.Lock()
	timing.backoffDelay = timeutil.ExponentialBackoffDelay(timing.backoffCount, r.jitter, r.rng, r.backoffParam)
	r.rngMu.Unlock()

	r.hostTimings[host] = timing
}

// ResetBackoff clears the backoff state after a successful request.
func (r *HostRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timing, exists := r.hostTimings[host]; exists {
		timing.backoffCount = 0
		timing.backoffDelay = 0
		r.hostTimings[host] = timing
	}
}

func (r *HostRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.lastFetchAt = time.Now()
	r.hostTimings[host] = timing
}

// ResolveDelay returns how long the caller must wait before hitting host.
// Hosts never fetched before are not delayed.
func (r *HostRateLimiter) ResolveDelay(host string) time.Duration {
	r.mu.RLock()
	timing, exists := r.hostTimings[host]
	base := r.baseDelay
	jitter := r.jitter
	r.mu.RUnlock()

	if !exists || timing.lastFetchAt.IsZero() {
		return 0
	}

	finalDelay := timeutil.MaxDuration([]time.Duration{base, timing.backoffDelay})

	r.rngMu.Lock()
	finalDelay += timeutil.ComputeJitter(jitter, r.rng)
	r.rngMu.Unlock()

	elapsed := time.Since(timing.lastFetchAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// Wait blocks until host may be fetched again or ctx is done.
func (r *HostRateLimiter) Wait(ctx context.Context, host string) error {
	return timeutil.Sleep(ctx, r.ResolveDelay(host))
}

func (r *HostRateLimiter) HostTiming(host string) (hostTiming, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	timing, ok := r.hostTimings[host]
	return timing, ok
}
