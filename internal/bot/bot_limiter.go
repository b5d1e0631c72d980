package bot

import (
	"sync"

	"golang.org/x/time/rate"
)

// commandLimiter throttles how fast a single user can issue commands, mostly
// to keep a spammed !join/!leave loop from hammering the engine.
type commandLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newCommandLimiter() *commandLimiter {
	return &commandLimiter{
		limiters: map[string]*rate.Limiter{},
	}
}

// allow reports whether the user may run a command right now, one command per
// second with a small burst.
func (l *commandLimiter) allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(1), 3)
		l.limiters[userID] = limiter
	}

	return limiter.Allow()
}
