package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles writes per destination (a sink table or DSN). A
// non-positive rate disables throttling.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter allowing perSecond operations per
// destination with the given burst.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until the destination may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, destination string) error {
	return l.get(destination).Wait(ctx)
}

func (l *Limiter) get(destination string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[destination]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[destination]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[destination] = limiter
	return limiter
}
