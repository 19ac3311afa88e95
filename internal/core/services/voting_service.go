package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
	"github.com/vncsmyrnk/busvote/internal/core/tally"
	"github.com/vncsmyrnk/busvote/internal/metrics"
)

const (
	noticeVoteCast          = "Vote cast successfully!"
	noticeThresholdReached  = "Voting threshold reached! Driver has been notified."
	noticeBusRequested      = "Bus request submitted for voting."
	noticeRequestApproved   = "Voting request approved successfully!"
	noticeRequestRejected   = "Voting request rejected successfully!"
	warningNotificationSend = "Failed to send notification to driver"

	notificationKeyPrefix = "notification_sent_"
)

type VotingConfig struct {
	Threshold       float64
	Weights         tally.Weights
	NotificationTTL time.Duration
}

var _ ports.VotingService = (*VotingService)(nil)

// VotingService reads the voting dashboard and applies the voting mutations.
// It keeps no state between calls: every mutation writes to the store and
// callers refresh to observe the result.
type VotingService struct {
	topics   ports.TopicRepository
	votes    ports.VoteRepository
	buses    ports.BusRepository
	notifier ports.Notifier
	ledger   ports.NotificationLedger
	cfg      VotingConfig
	log      *slog.Logger
	now      func() time.Time
}

func NewVotingService(
	topics ports.TopicRepository,
	votes ports.VoteRepository,
	buses ports.BusRepository,
	notifier ports.Notifier,
	ledger ports.NotificationLedger,
	cfg VotingConfig,
	log *slog.Logger,
) *VotingService {
	return &VotingService{
		topics:   topics,
		votes:    votes,
		buses:    buses,
		notifier: notifier,
		ledger:   ledger,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func (s *VotingService) Dashboard(ctx context.Context, user *domain.User) (*ports.Dashboard, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}

	start := time.Now()
	defer func() {
		metrics.DashboardDuration.Observe(time.Since(start).Seconds())
	}()

	buses, err := s.buses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch buses: %w", err)
	}

	active, err := s.topics.ListByStatus(ctx, domain.TopicActive)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active topics: %w", err)
	}

	ballots, err := s.votes.ListBallots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch votes: %w", err)
	}

	votedIDs, err := s.votes.VotedTopicIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user votes: %w", err)
	}

	past, err := s.topics.ListByStatus(ctx, domain.TopicCompleted, domain.TopicRejected)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch past topics: %w", err)
	}

	voted := make(map[uuid.UUID]struct{}, len(votedIDs))
	for _, id := range votedIDs {
		voted[id] = struct{}{}
	}
	totals := tally.Tally(ballots, user.Region, s.cfg.Weights)

	decorate := func(t *domain.Topic) {
		_, hasVoted := voted[t.ID]
		t.HasVoted = hasVoted
		t.Votes = totals[t.ID]
		t.RequiredVotes = s.cfg.Threshold
		t.Region = t.DisplayRegion()
		if t.BusID.Valid {
			if bus := domain.FindBus(buses, t.BusID.UUID); bus != nil {
				t.BusNumber = bus.Number
			}
		}
	}

	for _, t := range active {
		decorate(t)
	}
	for _, t := range past {
		decorate(t)
		if t.Status == domain.TopicRejected && t.RejectionReason == "" {
			t.RejectionReason = domain.FallbackRejectionReason
		}
	}

	return &ports.Dashboard{
		Topics:     nonNil(active),
		PastTopics: nonNil(past),
		Buses:      nonNil(buses),
	}, nil
}

func (s *VotingService) CastVote(ctx context.Context, user *domain.User, topicID, optionID uuid.UUID) (ports.MutationResult, error) {
	var result ports.MutationResult

	if user == nil {
		metrics.VotesRejected.WithLabelValues("unauthenticated").Inc()
		return result, domain.ErrUnauthenticated
	}

	topic, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		return result, err
	}

	if !topic.Open(s.now()) {
		metrics.VotesRejected.WithLabelValues("closed").Inc()
		return result, domain.ErrVotingClosed
	}

	if !topic.HasOption(optionID) {
		metrics.VotesRejected.WithLabelValues("invalid_option").Inc()
		return result, domain.ErrInvalidOption
	}

	hasVoted, err := s.votes.HasVoted(ctx, topicID, user.ID)
	if err != nil {
		return result, err
	}
	if hasVoted {
		metrics.VotesRejected.WithLabelValues("duplicate").Inc()
		return result, domain.ErrAlreadyVoted
	}

	before, err := s.topicTotal(ctx, topic)
	if err != nil {
		return result, err
	}

	vote := &domain.Vote{
		ID:        uuid.New(),
		TopicID:   topicID,
		OptionID:  optionID,
		StudentID: user.ID,
		CreatedAt: s.now(),
	}
	if err := s.votes.SaveVote(ctx, vote); err != nil {
		if errors.Is(err, domain.ErrAlreadyVoted) {
			metrics.VotesRejected.WithLabelValues("duplicate").Inc()
		}
		return result, err
	}
	metrics.VotesCast.Inc()
	result.Notices = append(result.Notices, noticeVoteCast)

	after, err := s.topicTotal(ctx, topic)
	if err != nil {
		s.log.Error("failed to recount topic votes", slog.String("topic_id", topicID.String()), slog.Any("error", err))
		return result, nil
	}

	if !tally.Crossed(before, after, s.cfg.Threshold) {
		return result, nil
	}

	claimed, err := s.ledger.Claim(ctx, notificationKeyPrefix+topicID.String(), s.cfg.NotificationTTL)
	if err != nil {
		s.log.Error("failed to claim threshold notification", slog.String("topic_id", topicID.String()), slog.Any("error", err))
		result.Warning = warningNotificationSend
		return result, nil
	}
	if !claimed {
		return result, nil
	}

	snapshot := *topic
	snapshot.Votes = after
	snapshot.RequiredVotes = s.cfg.Threshold
	snapshot.HasVoted = true
	snapshot.Region = topic.DisplayRegion()

	if err := s.dispatch(ctx, domain.Event{Kind: domain.EventThreshold, Topic: snapshot}); err != nil {
		result.Warning = warningNotificationSend
		return result, nil
	}
	result.Notices = append(result.Notices, noticeThresholdReached)

	return result, nil
}

func (s *VotingService) RequestNewBus(ctx context.Context, user *domain.User, input ports.BusRequestInput) (*domain.Topic, ports.MutationResult, error) {
	var result ports.MutationResult

	if user == nil {
		return nil, result, domain.ErrUnauthenticated
	}
	if input.BusID == uuid.Nil {
		return nil, result, domain.ErrBusNotSelected
	}

	bus, err := s.buses.GetByID(ctx, input.BusID)
	if err != nil {
		return nil, result, fmt.Errorf("failed to resolve bus: %w", err)
	}
	if bus == nil {
		return nil, result, domain.ErrBusNotFound
	}

	now := s.now()
	startDate := input.Date
	if startDate.IsZero() {
		startDate = now
	}
	if !input.EndDate.After(startDate) {
		return nil, result, domain.ErrInvalidWindow
	}

	description := input.Description
	if description == "" {
		description = input.Reason
	}

	topicID := uuid.New()
	topic := &domain.Topic{
		ID:            topicID,
		Title:         fmt.Sprintf("Additional Bus Request - %s", bus.Number),
		Description:   description,
		RouteID:       input.RouteID,
		ScheduleID:    input.ScheduleID,
		BusID:         uuid.NullUUID{UUID: bus.ID, Valid: true},
		BusNumber:     bus.Number,
		RequiredVotes: s.cfg.Threshold,
		Status:        domain.TopicActive,
		CreatedAt:     startDate,
		EndDate:       input.EndDate,
		Region:        user.Region,
		CreatedBy:     user.ID,
		Options: []domain.VotingOption{
			{
				ID:        uuid.New(),
				TopicID:   topicID,
				Text:      domain.ApproveOptionText,
				CreatedAt: now,
			},
		},
	}

	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, result, err
	}
	metrics.BusRequests.Inc()

	topic.Region = topic.DisplayRegion()
	result.Notices = append(result.Notices, noticeBusRequested)
	return topic, result, nil
}

func (s *VotingService) ApproveRequest(ctx context.Context, topicID, busID uuid.UUID) (ports.MutationResult, error) {
	var result ports.MutationResult

	if busID == uuid.Nil {
		return result, domain.ErrBusNotSelected
	}
	bus, err := s.buses.GetByID(ctx, busID)
	if err != nil {
		return result, fmt.Errorf("failed to resolve bus: %w", err)
	}
	if bus == nil {
		return result, domain.ErrBusNotFound
	}

	change := ports.TopicChange{BusID: uuid.NullUUID{UUID: busID, Valid: true}}
	if err := s.topics.Transition(ctx, topicID, domain.TopicApproved, change); err != nil {
		return result, err
	}
	metrics.Transitions.WithLabelValues(string(domain.TopicApproved)).Inc()

	result.Notices = append(result.Notices, noticeRequestApproved)
	result.Warning = s.announce(ctx, topicID, domain.EventApproved)
	return result, nil
}

func (s *VotingService) RejectRequest(ctx context.Context, topicID uuid.UUID) (ports.MutationResult, error) {
	var result ports.MutationResult

	change := ports.TopicChange{RejectionReason: domain.CoordinatorRejectionReason}
	if err := s.topics.Transition(ctx, topicID, domain.TopicRejected, change); err != nil {
		return result, err
	}
	metrics.Transitions.WithLabelValues(string(domain.TopicRejected)).Inc()

	result.Notices = append(result.Notices, noticeRequestRejected)
	result.Warning = s.announce(ctx, topicID, domain.EventRejected)
	return result, nil
}

// announce notifies the driver about a decided topic and returns the
// warning to surface when that fails.
func (s *VotingService) announce(ctx context.Context, topicID uuid.UUID, kind domain.EventKind) string {
	topic, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		s.log.Error("failed to load topic for notification", slog.String("topic_id", topicID.String()), slog.Any("error", err))
		return warningNotificationSend
	}

	total, err := s.topicTotal(ctx, topic)
	if err != nil {
		s.log.Error("failed to count topic votes for notification", slog.String("topic_id", topicID.String()), slog.Any("error", err))
		return warningNotificationSend
	}

	topic.Votes = total
	topic.RequiredVotes = s.cfg.Threshold
	topic.Region = topic.DisplayRegion()
	if topic.BusID.Valid {
		if bus, err := s.buses.GetByID(ctx, topic.BusID.UUID); err == nil && bus != nil {
			topic.BusNumber = bus.Number
		}
	}

	if err := s.dispatch(ctx, domain.Event{Kind: kind, Topic: *topic}); err != nil {
		return warningNotificationSend
	}
	return ""
}

func (s *VotingService) dispatch(ctx context.Context, event domain.Event) error {
	if err := s.notifier.Notify(ctx, event); err != nil {
		metrics.NotificationsFailed.WithLabelValues(string(event.Kind)).Inc()
		s.log.Error("failed to notify driver",
			slog.String("kind", string(event.Kind)),
			slog.String("topic_id", event.Topic.ID.String()),
			slog.Any("error", err),
		)
		return err
	}
	metrics.NotificationsSent.WithLabelValues(string(event.Kind)).Inc()
	s.log.Info("driver notified", slog.String("kind", string(event.Kind)), slog.String("topic_id", event.Topic.ID.String()))
	return nil
}

// topicTotal weighs a topic's votes relative to the region of the student
// who requested it.
func (s *VotingService) topicTotal(ctx context.Context, topic *domain.Topic) (float64, error) {
	ballots, err := s.votes.ListBallotsByTopic(ctx, topic.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch topic votes: %w", err)
	}
	return tally.TopicTotal(ballots, topic.ID, topic.DisplayRegion(), s.cfg.Weights), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
