package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
)

const uniqueViolation = "23505"

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

func (r *voteRepository) SaveVote(ctx context.Context, vote *domain.Vote) error {
	query := `
		INSERT INTO votes (id, topic_id, option_id, student_id, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.db.ExecContext(ctx, query, vote.ID, vote.TopicID, vote.OptionID, vote.StudentID, vote.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to save vote: %w", err)
	}
	return nil
}

func (r *voteRepository) HasVoted(ctx context.Context, topicID, studentID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM votes WHERE topic_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	err := r.db.QueryRowContext(ctx, query, topicID, studentID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}
	return true, nil
}

func (r *voteRepository) ListBallots(ctx context.Context) ([]domain.CastBallot, error) {
	query := `
		SELECT v.topic_id, v.student_id, COALESCE(p.region, '')
		FROM votes v
		LEFT JOIN profiles p ON p.id = v.student_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	return scanBallots(rows)
}

func (r *voteRepository) ListBallotsByTopic(ctx context.Context, topicID uuid.UUID) ([]domain.CastBallot, error) {
	query := `
		SELECT v.topic_id, v.student_id, COALESCE(p.region, '')
		FROM votes v
		LEFT JOIN profiles p ON p.id = v.student_id
		WHERE v.topic_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list topic votes: %w", err)
	}
	defer rows.Close()

	return scanBallots(rows)
}

func (r *voteRepository) VotedTopicIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT topic_id FROM votes WHERE student_id = $1`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student votes: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}
	return ids, nil
}

func scanBallots(rows *sql.Rows) ([]domain.CastBallot, error) {
	var ballots []domain.CastBallot
	for rows.Next() {
		var b domain.CastBallot
		if err := rows.Scan(&b.TopicID, &b.StudentID, &b.Region); err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		ballots = append(ballots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ballots: %w", err)
	}
	return ballots, nil
}
