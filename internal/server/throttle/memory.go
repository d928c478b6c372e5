package throttle

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	expires time.Time
}

// MemoryLimiter is the in-process Limiter. Counters are lost on restart and
// are not shared between instances.
type MemoryLimiter struct {
	mu          sync.Mutex
	entries     map[string]*window
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func NewMemoryLimiter(maxAttempts int, w time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		entries:     make(map[string]*window),
		maxAttempts: maxAttempts,
		window:      w,
		now:         time.Now,
	}
}

// live returns the current window for k, dropping it if expired.
// Caller holds mu.
func (l *MemoryLimiter) live(k string) *window {
	w, ok := l.entries[k]
	if !ok {
		return nil
	}
	if !l.now().Before(w.expires) {
		delete(l.entries, k)
		return nil
	}
	return w
}

func (l *MemoryLimiter) Reserve(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := Normalize(id)
	w := l.live(k)
	if w == nil {
		w = &window{expires: l.now().Add(l.window)}
		l.entries[k] = w
	}
	if w.count >= l.maxAttempts {
		return ErrTooManyAttempts
	}
	w.count++
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, Normalize(id))
	return nil
}

// Sweep drops expired windows. Run it periodically on long-lived servers.
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, w := range l.entries {
		if !now.Before(w.expires) {
			delete(l.entries, k)
		}
	}
}
