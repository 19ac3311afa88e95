package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

// TopicChange carries the columns written alongside a status transition.
type TopicChange struct {
	BusID           uuid.NullUUID
	RejectionReason string
}

type TopicRepository interface {
	// Create stores the topic and its options atomically.
	Create(ctx context.Context, topic *domain.Topic) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error)
	// ListByStatus returns topics newest first.
	ListByStatus(ctx context.Context, statuses ...domain.TopicStatus) ([]*domain.Topic, error)
	// ListExpired returns active topics whose end date is before now.
	ListExpired(ctx context.Context, now time.Time) ([]*domain.Topic, error)
	// Transition moves an active topic to a terminal status. It returns
	// domain.ErrInvalidTransition when the topic is not active and
	// domain.ErrTopicNotFound when it does not exist.
	Transition(ctx context.Context, id uuid.UUID, to domain.TopicStatus, change TopicChange) error
}
