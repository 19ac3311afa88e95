package ports

import (
	"context"
	"time"

	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

type Notifier interface {
	Notify(ctx context.Context, event domain.Event) error
}

// NotificationLedger records which notifications were already sent.
type NotificationLedger interface {
	// Claim returns true for exactly one caller per key until ttl passes.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
