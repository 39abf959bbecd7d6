package safety

import (
	"sync"
	"time"
)

// Limiter enforces a sliding-window message cap per user. A user who exceeds
// the cap is blocked for a multiple of the window, and the block does not
// extend while it is being hit.
type Limiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	block     time.Duration
	users     map[string]*userWindow
	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
}

type userWindow struct {
	times        []time.Time
	blockedUntil time.Time
}

// NewLimiter allows max messages per window; exceeding the cap blocks the
// user for window*multiplier. A background sweep evicts idle users.
func NewLimiter(max int, window time.Duration, multiplier int) *Limiter {
	l := &Limiter{
		max:    max,
		window: window,
		block:  window * time.Duration(multiplier),
		users:  make(map[string]*userWindow),
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow reports whether the user may send a message now, and if not, how long
// until they may try again.
func (l *Limiter) Allow(userID string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.users[userID]
	if !ok {
		w = &userWindow{}
		l.users[userID] = w
	}

	if now.Before(w.blockedUntil) {
		return false, w.blockedUntil.Sub(now)
	}

	cutoff := now.Add(-l.window)
	kept := w.times[:0]
	for _, t := range w.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.times = kept

	if len(w.times) >= l.max {
		w.blockedUntil = now.Add(l.block)
		w.times = nil
		return false, l.block
	}

	w.times = append(w.times, now)
	return true, 0
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cutoff := now.Add(-l.window)
	for id, w := range l.users {
		if now.After(w.blockedUntil) && (len(w.times) == 0 || !w.times[len(w.times)-1].After(cutoff)) {
			delete(l.users, id)
		}
	}
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}
