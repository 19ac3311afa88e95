package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

// Dashboard is everything a voting view renders for one user.
type Dashboard struct {
	Topics     []*domain.Topic `json:"topics"`
	PastTopics []*domain.Topic `json:"past_topics"`
	Buses      []*domain.Bus   `json:"buses"`
}

type BusRequestInput struct {
	RouteID     uuid.NullUUID
	ScheduleID  uuid.NullUUID
	BusID       uuid.UUID
	Description string
	Reason      string
	Date        time.Time
	EndDate     time.Time
}

// MutationResult carries the user-facing messages of a successful
// mutation. Warning is set when a side effect such as a driver
// notification failed without failing the mutation.
type MutationResult struct {
	Notices []string `json:"notices,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

type VotingService interface {
	Dashboard(ctx context.Context, user *domain.User) (*Dashboard, error)
	CastVote(ctx context.Context, user *domain.User, topicID, optionID uuid.UUID) (MutationResult, error)
	RequestNewBus(ctx context.Context, user *domain.User, input BusRequestInput) (*domain.Topic, MutationResult, error)
	ApproveRequest(ctx context.Context, topicID, busID uuid.UUID) (MutationResult, error)
	RejectRequest(ctx context.Context, topicID uuid.UUID) (MutationResult, error)
}

type SweepService interface {
	// CompleteExpired closes active topics whose voting period ended and
	// returns how many were closed.
	CompleteExpired(ctx context.Context) (int, error)
}
