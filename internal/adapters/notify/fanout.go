package notify

import (
	"context"
	"errors"

	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
)

// ErrNoNotifiers is returned by a Fanout built without any notifier, so an
// unconfigured deployment never reports a driver as notified.
var ErrNoNotifiers = errors.New("no notifiers configured")

// Fanout delivers every event to all notifiers. One failing notifier does
// not stop the others; their errors are joined.
type Fanout struct {
	notifiers []ports.Notifier
}

func NewFanout(notifiers ...ports.Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

func (f *Fanout) Notify(ctx context.Context, event domain.Event) error {
	if len(f.notifiers) == 0 {
		return ErrNoNotifiers
	}

	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
