package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
)

// The topic region is the region of the profile that created it.
const selectTopics = `
	SELECT t.id, t.title, t.description, t.route_id, t.schedule_id, t.bus_id,
		t.status, t.created_at, t.end_date, COALESCE(p.region, ''),
		COALESCE(t.rejection_reason, ''), t.created_by
	FROM voting_topics t
	LEFT JOIN profiles p ON p.id = t.created_by
`

type topicRepository struct {
	db *sql.DB
}

func NewTopicRepository(db *sql.DB) ports.TopicRepository {
	return &topicRepository{
		db: db,
	}
}

func (r *topicRepository) Create(ctx context.Context, topic *domain.Topic) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryTopic := `
		INSERT INTO voting_topics (id, title, description, route_id, schedule_id, bus_id, status, created_by, created_at, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, queryTopic,
		topic.ID, topic.Title, topic.Description, topic.RouteID, topic.ScheduleID, topic.BusID,
		topic.Status, topic.CreatedBy, topic.CreatedAt, topic.EndDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert topic: %w", err)
	}

	queryOption := `
		INSERT INTO voting_options (id, topic_id, text, created_at)
		VALUES ($1, $2, $3, $4)
	`
	stmt, err := tx.PrepareContext(ctx, queryOption)
	if err != nil {
		return fmt.Errorf("failed to prepare option statement: %w", err)
	}
	defer stmt.Close()

	for _, opt := range topic.Options {
		_, err = stmt.ExecContext(ctx, opt.ID, opt.TopicID, opt.Text, opt.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *topicRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	row := r.db.QueryRowContext(ctx, selectTopics+` WHERE t.id = $1`, id)

	topic, err := scanTopic(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	options, err := r.fetchOptions(ctx, topic.ID)
	if err != nil {
		return nil, err
	}
	topic.Options = options

	return topic, nil
}

func (r *topicRepository) ListByStatus(ctx context.Context, statuses ...domain.TopicStatus) ([]*domain.Topic, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	rows, err := r.db.QueryContext(ctx, selectTopics+`
		WHERE t.status = ANY($1)
		ORDER BY t.created_at DESC
	`, pq.Array(values))
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	return r.scanTopics(ctx, rows)
}

func (r *topicRepository) ListExpired(ctx context.Context, now time.Time) ([]*domain.Topic, error) {
	rows, err := r.db.QueryContext(ctx, selectTopics+`
		WHERE t.status = $1 AND t.end_date < $2
		ORDER BY t.end_date
	`, domain.TopicActive, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired topics: %w", err)
	}
	defer rows.Close()

	return r.scanTopics(ctx, rows)
}

func (r *topicRepository) Transition(ctx context.Context, id uuid.UUID, to domain.TopicStatus, change ports.TopicChange) error {
	if !domain.CanTransition(domain.TopicActive, to) {
		return domain.ErrInvalidTransition
	}

	query := `
		UPDATE voting_topics
		SET status = $2,
			bus_id = COALESCE($3, bus_id),
			rejection_reason = COALESCE(NULLIF($4, ''), rejection_reason),
			updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`
	res, err := r.db.ExecContext(ctx, query, id, to, change.BusID, change.RejectionReason)
	if err != nil {
		return fmt.Errorf("failed to update topic status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM voting_topics WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check topic: %w", err)
	}
	if !exists {
		return domain.ErrTopicNotFound
	}
	return domain.ErrInvalidTransition
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (*domain.Topic, error) {
	var topic domain.Topic
	err := row.Scan(
		&topic.ID, &topic.Title, &topic.Description, &topic.RouteID, &topic.ScheduleID, &topic.BusID,
		&topic.Status, &topic.CreatedAt, &topic.EndDate, &topic.Region,
		&topic.RejectionReason, &topic.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *topicRepository) scanTopics(ctx context.Context, rows *sql.Rows) ([]*domain.Topic, error) {
	var topics []*domain.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topics: %w", err)
	}

	for _, topic := range topics {
		options, err := r.fetchOptions(ctx, topic.ID)
		if err != nil {
			return nil, err
		}
		topic.Options = options
	}
	return topics, nil
}

func (r *topicRepository) fetchOptions(ctx context.Context, topicID uuid.UUID) ([]domain.VotingOption, error) {
	queryOptions := `
		SELECT id, topic_id, text, created_at
		FROM voting_options
		WHERE topic_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, queryOptions, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic options: %w", err)
	}
	defer rows.Close()

	var options []domain.VotingOption
	for rows.Next() {
		var opt domain.VotingOption
		if err := rows.Scan(&opt.ID, &opt.TopicID, &opt.Text, &opt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}
	return options, nil
}
