package throttle

import (
	"context"
	"sync"
	"time"

	"storefront/pkg/requestcontext"
)

// InMemoryLatch is a process-local ThrottleLatch.
type InMemoryLatch struct {
	mu    sync.Mutex
	until time.Time
}

func NewInMemory() *InMemoryLatch {
	return &InMemoryLatch{}
}

// Trip sets the latch until now+ttl. An earlier expiry never shortens a later one.
func (l *InMemoryLatch) Trip(ctx context.Context, ttl time.Duration) error {
	until := requestcontext.Now(ctx).Add(ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	if until.After(l.until) {
		l.until = until
	}
	return nil
}

func (l *InMemoryLatch) Tripped(ctx context.Context) (bool, error) {
	now := requestcontext.Now(ctx)
	l.mu.Lock()
	defer l.mu.Unlock()
	return now.Before(l.until), nil
}
