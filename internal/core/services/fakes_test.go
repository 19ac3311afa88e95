package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
)

type fakeTopicRepo struct {
	mu     sync.Mutex
	topics map[uuid.UUID]*domain.Topic
	err    error
}

func newFakeTopicRepo(topics ...*domain.Topic) *fakeTopicRepo {
	r := &fakeTopicRepo{topics: make(map[uuid.UUID]*domain.Topic)}
	for _, t := range topics {
		r.topics[t.ID] = copyTopic(t)
	}
	return r
}

func copyTopic(t *domain.Topic) *domain.Topic {
	c := *t
	c.Options = append([]domain.VotingOption(nil), t.Options...)
	return &c
}

func (r *fakeTopicRepo) Create(ctx context.Context, topic *domain.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.topics[topic.ID] = copyTopic(topic)
	return nil
}

func (r *fakeTopicRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[id]
	if !ok {
		return nil, domain.ErrTopicNotFound
	}
	return copyTopic(t), nil
}

func (r *fakeTopicRepo) ListByStatus(ctx context.Context, statuses ...domain.TopicStatus) ([]*domain.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.Topic
	for _, t := range r.topics {
		for _, s := range statuses {
			if t.Status == s {
				out = append(out, copyTopic(t))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTopicRepo) ListExpired(ctx context.Context, now time.Time) ([]*domain.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Topic
	for _, t := range r.topics {
		if t.Status == domain.TopicActive && t.EndDate.Before(now) {
			out = append(out, copyTopic(t))
		}
	}
	return out, nil
}

func (r *fakeTopicRepo) Transition(ctx context.Context, id uuid.UUID, to domain.TopicStatus, change ports.TopicChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[id]
	if !ok {
		return domain.ErrTopicNotFound
	}
	if !domain.CanTransition(t.Status, to) {
		return domain.ErrInvalidTransition
	}
	t.Status = to
	if change.BusID.Valid {
		t.BusID = change.BusID
	}
	if change.RejectionReason != "" {
		t.RejectionReason = change.RejectionReason
	}
	return nil
}

func (r *fakeTopicRepo) get(id uuid.UUID) *domain.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyTopic(r.topics[id])
}

type fakeVoteRepo struct {
	mu      sync.Mutex
	votes   []domain.Vote
	regions map[uuid.UUID]string
	// hideVotes makes HasVoted miss existing rows, as a concurrent insert would.
	hideVotes bool
	err       error
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{regions: make(map[uuid.UUID]string)}
}

func (r *fakeVoteRepo) add(topicID, studentID uuid.UUID, region string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regions[studentID] = region
	r.votes = append(r.votes, domain.Vote{ID: uuid.New(), TopicID: topicID, StudentID: studentID})
}

func (r *fakeVoteRepo) SaveVote(ctx context.Context, vote *domain.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.TopicID == vote.TopicID && v.StudentID == vote.StudentID {
			return domain.ErrAlreadyVoted
		}
	}
	r.votes = append(r.votes, *vote)
	return nil
}

func (r *fakeVoteRepo) HasVoted(ctx context.Context, topicID, studentID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hideVotes {
		return false, nil
	}
	for _, v := range r.votes {
		if v.TopicID == topicID && v.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVoteRepo) ListBallots(ctx context.Context) ([]domain.CastBallot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.CastBallot
	for _, v := range r.votes {
		out = append(out, domain.CastBallot{TopicID: v.TopicID, StudentID: v.StudentID, Region: r.regions[v.StudentID]})
	}
	return out, nil
}

func (r *fakeVoteRepo) ListBallotsByTopic(ctx context.Context, topicID uuid.UUID) ([]domain.CastBallot, error) {
	all, err := r.ListBallots(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.CastBallot
	for _, b := range all {
		if b.TopicID == topicID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeVoteRepo) VotedTopicIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, v := range r.votes {
		if v.StudentID == studentID {
			out = append(out, v.TopicID)
		}
	}
	return out, nil
}

func (r *fakeVoteRepo) count(topicID, studentID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.votes {
		if v.TopicID == topicID && v.StudentID == studentID {
			n++
		}
	}
	return n
}

type fakeBusRepo struct {
	buses []*domain.Bus
}

func (r *fakeBusRepo) List(ctx context.Context) ([]*domain.Bus, error) {
	return r.buses, nil
}

func (r *fakeBusRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bus, error) {
	return domain.FindBus(r.buses, id), nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fakeLedger struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{claimed: make(map[string]bool)}
}

func (l *fakeLedger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.claimed[key] {
		return false, nil
	}
	l.claimed[key] = true
	return true, nil
}
