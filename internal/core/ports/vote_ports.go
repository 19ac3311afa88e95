package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

type VoteRepository interface {
	// SaveVote returns domain.ErrAlreadyVoted when the student already voted.
	SaveVote(ctx context.Context, vote *domain.Vote) error
	HasVoted(ctx context.Context, topicID, studentID uuid.UUID) (bool, error)
	ListBallots(ctx context.Context) ([]domain.CastBallot, error)
	ListBallotsByTopic(ctx context.Context, topicID uuid.UUID) ([]domain.CastBallot, error)
	VotedTopicIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
}
