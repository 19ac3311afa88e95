package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
	"github.com/vncsmyrnk/busvote/internal/metrics"
)

// SessionState is what a live voting view shows for one user.
type SessionState struct {
	Topics       []*domain.Topic `json:"topics"`
	PastTopics   []*domain.Topic `json:"past_topics"`
	Buses        []*domain.Bus   `json:"buses"`
	IsLoading    bool            `json:"is_loading"`
	IsSubmitting bool            `json:"is_submitting"`
	Error        string          `json:"error,omitempty"`
	Notices      []string        `json:"notices,omitempty"`
	Warning      string          `json:"warning,omitempty"`
	RefreshedAt  time.Time       `json:"refreshed_at"`
}

// Session keeps one user's dashboard fresh. It fetches when started, then
// on every tick of the refresh interval, and after each successful
// mutation. Refreshes and mutations may interleave; the state is whatever
// the latest completed fetch returned.
type Session struct {
	svc      ports.VotingService
	user     *domain.User
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	state   SessionState
	updates chan SessionState
}

func NewSession(svc ports.VotingService, user *domain.User, interval time.Duration, log *slog.Logger) *Session {
	return &Session{
		svc:      svc,
		user:     user,
		interval: interval,
		log:      log,
		state: SessionState{
			Topics:     []*domain.Topic{},
			PastTopics: []*domain.Topic{},
			Buses:      []*domain.Bus{},
			IsLoading:  true,
		},
		updates: make(chan SessionState, 1),
	}
}

// Run refreshes until ctx is cancelled. It returns immediately with
// domain.ErrUnauthenticated when the session has no user.
func (s *Session) Run(ctx context.Context) error {
	if s.user == nil {
		return domain.ErrUnauthenticated
	}

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	s.Refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Refresh(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// State returns a copy of the current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Updates delivers the latest state after every change. Slow readers only
// see the most recent state.
func (s *Session) Updates() <-chan SessionState {
	return s.updates
}

func (s *Session) Refresh(ctx context.Context) bool {
	if s.user == nil {
		s.update(func(st *SessionState) {
			st.IsLoading = false
			st.Error = domain.ErrUnauthenticated.Error()
		})
		return false
	}

	s.update(func(st *SessionState) {
		st.IsLoading = true
		st.Error = ""
	})

	dash, err := s.svc.Dashboard(ctx, s.user)

	s.update(func(st *SessionState) {
		st.IsLoading = false
		if err != nil {
			st.Error = err.Error()
			return
		}
		st.Topics = dash.Topics
		st.PastTopics = dash.PastTopics
		st.Buses = dash.Buses
		st.RefreshedAt = time.Now()
	})

	if err != nil {
		s.log.Error("failed to refresh dashboard", slog.String("user_id", s.user.ID.String()), slog.Any("error", err))
		return false
	}
	return true
}

func (s *Session) CastVote(ctx context.Context, topicID, optionID uuid.UUID) bool {
	return s.mutate(ctx, "cast_vote", func(ctx context.Context) (ports.MutationResult, error) {
		return s.svc.CastVote(ctx, s.user, topicID, optionID)
	})
}

func (s *Session) RequestNewBus(ctx context.Context, input ports.BusRequestInput) bool {
	return s.mutate(ctx, "request_new_bus", func(ctx context.Context) (ports.MutationResult, error) {
		_, result, err := s.svc.RequestNewBus(ctx, s.user, input)
		return result, err
	})
}

func (s *Session) ApproveRequest(ctx context.Context, topicID, busID uuid.UUID) bool {
	return s.mutate(ctx, "approve_request", func(ctx context.Context) (ports.MutationResult, error) {
		return s.svc.ApproveRequest(ctx, topicID, busID)
	})
}

func (s *Session) RejectRequest(ctx context.Context, topicID uuid.UUID) bool {
	return s.mutate(ctx, "reject_request", func(ctx context.Context) (ports.MutationResult, error) {
		return s.svc.RejectRequest(ctx, topicID)
	})
}

// mutate runs one mutation. Every failure lands in State().Error; a
// success records its notices and refreshes the dashboard.
func (s *Session) mutate(ctx context.Context, op string, fn func(context.Context) (ports.MutationResult, error)) bool {
	s.update(func(st *SessionState) {
		st.IsSubmitting = true
		st.Error = ""
		st.Notices = nil
		st.Warning = ""
	})

	result, err := fn(ctx)

	s.update(func(st *SessionState) {
		st.IsSubmitting = false
		if err != nil {
			st.Error = err.Error()
			return
		}
		st.Notices = result.Notices
		st.Warning = result.Warning
	})

	if err != nil {
		s.log.Warn("mutation failed", slog.String("op", op), slog.Any("error", err))
		return false
	}

	s.Refresh(ctx)
	return true
}

func (s *Session) update(fn func(*SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)

	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- s.state:
	default:
	}
}
