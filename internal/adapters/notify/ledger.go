package notify

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger is the notification ledger used when no Redis is
// configured. Claims are only deduplicated within one process.
type MemoryLedger struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		claims: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (l *MemoryLedger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, expires := range l.claims {
		if !now.Before(expires) {
			delete(l.claims, k)
		}
	}

	if _, ok := l.claims[key]; ok {
		return false, nil
	}
	l.claims[key] = now.Add(ttl)
	return true, nil
}
