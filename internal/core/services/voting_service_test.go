package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/busvote/internal/adapters/notify"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
	"github.com/vncsmyrnk/busvote/internal/core/tally"
	"github.com/vncsmyrnk/busvote/internal/logger"
)

var testNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type votingFixture struct {
	svc      *VotingService
	topics   *fakeTopicRepo
	votes    *fakeVoteRepo
	buses    *fakeBusRepo
	notifier *mockNotifier
	ledger   *fakeLedger
	bus      *domain.Bus
}

func newVotingFixture(t *testing.T, threshold float64, topics ...*domain.Topic) *votingFixture {
	t.Helper()

	bus := &domain.Bus{ID: uuid.New(), Number: "KA-25-F-1234", Name: "Campus Express", Capacity: 52, Status: "active"}
	f := &votingFixture{
		topics:   newFakeTopicRepo(topics...),
		votes:    newFakeVoteRepo(),
		buses:    &fakeBusRepo{buses: []*domain.Bus{bus}},
		notifier: &mockNotifier{},
		ledger:   newFakeLedger(),
		bus:      bus,
	}
	f.svc = NewVotingService(f.topics, f.votes, f.buses, f.notifier, f.ledger, VotingConfig{
		Threshold:       threshold,
		Weights:         tally.DefaultWeights,
		NotificationTTL: time.Hour,
	}, logger.Discard())
	f.svc.now = func() time.Time { return testNow }
	return f
}

func activeTopic(region string) *domain.Topic {
	id := uuid.New()
	return &domain.Topic{
		ID:          id,
		Title:       "Additional Bus Request - KA-25-F-1234",
		Description: "Morning rush",
		Status:      domain.TopicActive,
		CreatedAt:   testNow.Add(-time.Hour),
		EndDate:     testNow.Add(24 * time.Hour),
		Region:      region,
		CreatedBy:   uuid.New(),
		Options:     []domain.VotingOption{{ID: uuid.New(), TopicID: id, Text: domain.ApproveOptionText}},
	}
}

// student creates a student whose votes are stored with the given region.
func (f *votingFixture) student(region string) *domain.User {
	u := &domain.User{ID: uuid.New(), Role: domain.RoleStudent, Region: region}
	f.votes.mu.Lock()
	f.votes.regions[u.ID] = region
	f.votes.mu.Unlock()
	return u
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	a := activeTopic("Dharwad")
	b := activeTopic("")
	b.CreatedAt = testNow.Add(-30 * time.Minute)
	rejected := activeTopic("Dharwad")
	rejected.Status = domain.TopicRejected
	completed := activeTopic("Dharwad")
	completed.Status = domain.TopicCompleted
	approved := activeTopic("Dharwad")
	approved.Status = domain.TopicApproved

	f := newVotingFixture(t, 1, a, b, rejected, completed, approved)
	viewer := f.student("Dharwad")

	f.votes.add(a.ID, viewer.ID, "Dharwad")
	f.votes.add(a.ID, uuid.New(), "Dharwad")
	f.votes.add(a.ID, uuid.New(), "Hubli")
	f.votes.add(b.ID, uuid.New(), "Hubli")
	f.votes.add(b.ID, uuid.New(), "")

	withBus := f.topics.topics[a.ID]
	withBus.BusID = uuid.NullUUID{UUID: f.bus.ID, Valid: true}

	dash, err := f.svc.Dashboard(ctx, viewer)
	require.NoError(t, err)

	require.Len(t, dash.Topics, 2)
	assert.Equal(t, b.ID, dash.Topics[0].ID, "newest first")
	assert.Equal(t, a.ID, dash.Topics[1].ID)

	gotA, gotB := dash.Topics[1], dash.Topics[0]
	assert.InDelta(t, 2.5, gotA.Votes, 1e-9)
	assert.InDelta(t, 1.0, gotB.Votes, 1e-9)
	assert.True(t, gotA.HasVoted)
	assert.False(t, gotB.HasVoted)
	assert.Equal(t, f.bus.Number, gotA.BusNumber)
	assert.Equal(t, domain.DefaultTopicRegion, gotB.Region)
	assert.Equal(t, 1.0, gotA.RequiredVotes)

	require.Len(t, dash.PastTopics, 2, "approved topics are neither active nor past")
	for _, past := range dash.PastTopics {
		if past.Status == domain.TopicRejected {
			assert.Equal(t, domain.FallbackRejectionReason, past.RejectionReason)
		} else {
			assert.Empty(t, past.RejectionReason)
		}
	}

	require.Len(t, dash.Buses, 1)
}

func TestDashboardWeightsRelativeToViewer(t *testing.T) {
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)
	f.votes.add(topic.ID, uuid.New(), "Dharwad")
	f.votes.add(topic.ID, uuid.New(), "Hubli")

	dash, err := f.svc.Dashboard(context.Background(), f.student("Hubli"))
	require.NoError(t, err)
	require.Len(t, dash.Topics, 1)
	assert.InDelta(t, 1.5, dash.Topics[0].Votes, 1e-9)
}

func TestDashboardViewerWithoutRegionSeesOtherWeight(t *testing.T) {
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)
	f.votes.add(topic.ID, uuid.New(), "")

	dash, err := f.svc.Dashboard(context.Background(), f.student(""))
	require.NoError(t, err)
	require.Len(t, dash.Topics, 1)
	assert.InDelta(t, 0.5, dash.Topics[0].Votes, 1e-9)
}

func TestDashboardEmptyListsAreNotNil(t *testing.T) {
	f := newVotingFixture(t, 1)
	f.buses.buses = nil

	dash, err := f.svc.Dashboard(context.Background(), f.student("Dharwad"))
	require.NoError(t, err)
	assert.NotNil(t, dash.Topics)
	assert.NotNil(t, dash.PastTopics)
	assert.NotNil(t, dash.Buses)
}

func TestDashboardRequiresUser(t *testing.T) {
	f := newVotingFixture(t, 1)

	_, err := f.svc.Dashboard(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestDashboardWrapsStoreErrors(t *testing.T) {
	f := newVotingFixture(t, 1, activeTopic("Dharwad"))
	storeErr := errors.New("connection reset")
	f.votes.err = storeErr

	_, err := f.svc.Dashboard(context.Background(), f.student("Dharwad"))
	assert.ErrorIs(t, err, storeErr)
}

func TestCastVoteBelowThresholdDoesNotNotify(t *testing.T) {
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 2, topic)
	voter := f.student("Dharwad")

	result, err := f.svc.CastVote(context.Background(), voter, topic.ID, topic.Options[0].ID)
	require.NoError(t, err)

	assert.Equal(t, []string{noticeVoteCast}, result.Notices)
	assert.Equal(t, 1, f.votes.count(topic.ID, voter.ID))
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestCastVoteNotifiesOncePerCrossing(t *testing.T) {
	ctx := context.Background()
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
		return e.Kind == domain.EventThreshold && e.Topic.ID == topic.ID && e.Topic.Votes == 1
	})).Return(nil).Once()

	result, err := f.svc.CastVote(ctx, f.student("Dharwad"), topic.ID, topic.Options[0].ID)
	require.NoError(t, err)
	assert.Contains(t, result.Notices, noticeThresholdReached)

	result, err = f.svc.CastVote(ctx, f.student("Dharwad"), topic.ID, topic.Options[0].ID)
	require.NoError(t, err)
	assert.NotContains(t, result.Notices, noticeThresholdReached)

	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
	f.notifier.AssertExpectations(t)
}

func TestCastVoteHalfWeightNeedsTwoOtherRegionVotes(t *testing.T) {
	ctx := context.Background()
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	first, second := f.student("Hubli"), f.student("Belgaum")

	_, err := f.svc.CastVote(ctx, first, topic.ID, topic.Options[0].ID)
	require.NoError(t, err)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)

	_, err = f.svc.CastVote(ctx, second, topic.ID, topic.Options[0].ID)
	require.NoError(t, err)
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestCastVoteAlreadyVoted(t *testing.T) {
	ctx := context.Background()
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 5, topic)
	voter := f.student("Dharwad")

	_, err := f.svc.CastVote(ctx, voter, topic.ID, topic.Options[0].ID)
	require.NoError(t, err)

	_, err = f.svc.CastVote(ctx, voter, topic.ID, topic.Options[0].ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
	assert.Equal(t, 1, f.votes.count(topic.ID, voter.ID))
}

func TestCastVoteUniqueViolationIsAlreadyVoted(t *testing.T) {
	ctx := context.Background()
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 5, topic)
	voter := f.student("Dharwad")
	f.votes.add(topic.ID, voter.ID, voter.Region)
	f.votes.hideVotes = true

	_, err := f.svc.CastVote(ctx, voter, topic.ID, topic.Options[0].ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
	assert.Equal(t, 1, f.votes.count(topic.ID, voter.ID))
}

func TestCastVoteAfterEndDate(t *testing.T) {
	topic := activeTopic("Dharwad")
	topic.EndDate = testNow.Add(-time.Minute)
	f := newVotingFixture(t, 1, topic)
	voter := f.student("Dharwad")

	_, err := f.svc.CastVote(context.Background(), voter, topic.ID, topic.Options[0].ID)
	assert.ErrorIs(t, err, domain.ErrVotingClosed)
	assert.Equal(t, 0, f.votes.count(topic.ID, voter.ID))
}

func TestCastVoteRejections(t *testing.T) {
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)

	_, err := f.svc.CastVote(context.Background(), nil, topic.ID, topic.Options[0].ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.svc.CastVote(context.Background(), f.student("Dharwad"), uuid.New(), topic.Options[0].ID)
	assert.ErrorIs(t, err, domain.ErrTopicNotFound)

	_, err = f.svc.CastVote(context.Background(), f.student("Dharwad"), topic.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrInvalidOption)
}

func TestCastVoteNotificationFailureIsAWarning(t *testing.T) {
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("telegram down"))

	result, err := f.svc.CastVote(context.Background(), f.student("Dharwad"), topic.ID, topic.Options[0].ID)
	require.NoError(t, err)
	assert.Equal(t, warningNotificationSend, result.Warning)
	assert.Equal(t, []string{noticeVoteCast}, result.Notices)
}

func TestCastVoteWithoutNotifiersWarns(t *testing.T) {
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)
	f.svc.notifier = notify.NewFanout()

	result, err := f.svc.CastVote(context.Background(), f.student("Dharwad"), topic.ID, topic.Options[0].ID)
	require.NoError(t, err)
	assert.Equal(t, warningNotificationSend, result.Warning)
	assert.NotContains(t, result.Notices, noticeThresholdReached)
}

func TestCastVoteSkipsNotificationAlreadyClaimed(t *testing.T) {
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)
	f.ledger.claimed[notificationKeyPrefix+topic.ID.String()] = true

	_, err := f.svc.CastVote(context.Background(), f.student("Dharwad"), topic.ID, topic.Options[0].ID)
	require.NoError(t, err)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestRequestNewBus(t *testing.T) {
	ctx := context.Background()
	f := newVotingFixture(t, 1)
	coordinator := &domain.User{ID: uuid.New(), Role: domain.RoleCoordinator, Region: "Dharwad"}

	input := ports.BusRequestInput{
		BusID:   f.bus.ID,
		Reason:  "Overcrowding on the 8:10",
		Date:    testNow,
		EndDate: testNow.Add(48 * time.Hour),
	}

	topic, result, err := f.svc.RequestNewBus(ctx, coordinator, input)
	require.NoError(t, err)
	assert.Equal(t, []string{noticeBusRequested}, result.Notices)

	stored := f.topics.get(topic.ID)
	assert.Equal(t, "Additional Bus Request - KA-25-F-1234", stored.Title)
	assert.Equal(t, "Overcrowding on the 8:10", stored.Description)
	assert.Equal(t, domain.TopicActive, stored.Status)
	assert.Equal(t, coordinator.ID, stored.CreatedBy)
	assert.Equal(t, f.bus.ID, stored.BusID.UUID)
	require.Len(t, stored.Options, 1)
	assert.Equal(t, domain.ApproveOptionText, stored.Options[0].Text)
}

func TestRequestNewBusRejections(t *testing.T) {
	ctx := context.Background()
	f := newVotingFixture(t, 1)
	coordinator := &domain.User{ID: uuid.New(), Role: domain.RoleCoordinator}
	valid := ports.BusRequestInput{BusID: f.bus.ID, Date: testNow, EndDate: testNow.Add(time.Hour)}

	_, _, err := f.svc.RequestNewBus(ctx, nil, valid)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	noBus := valid
	noBus.BusID = uuid.Nil
	_, _, err = f.svc.RequestNewBus(ctx, coordinator, noBus)
	assert.ErrorIs(t, err, domain.ErrBusNotSelected)

	unknownBus := valid
	unknownBus.BusID = uuid.New()
	_, _, err = f.svc.RequestNewBus(ctx, coordinator, unknownBus)
	assert.ErrorIs(t, err, domain.ErrBusNotFound)

	backwards := valid
	backwards.EndDate = testNow.Add(-time.Hour)
	_, _, err = f.svc.RequestNewBus(ctx, coordinator, backwards)
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)

	topics, _ := f.topics.ListByStatus(ctx, domain.TopicActive)
	assert.Empty(t, topics)
}

func TestApproveRequest(t *testing.T) {
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
		return e.Kind == domain.EventApproved && e.Topic.BusNumber == "KA-25-F-1234"
	})).Return(nil).Once()

	result, err := f.svc.ApproveRequest(context.Background(), topic.ID, f.bus.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Warning)

	stored := f.topics.get(topic.ID)
	assert.Equal(t, domain.TopicApproved, stored.Status)
	assert.Equal(t, f.bus.ID, stored.BusID.UUID)
	f.notifier.AssertExpectations(t)
}

func TestApproveRequestOnlyFromActive(t *testing.T) {
	topic := activeTopic("Dharwad")
	topic.Status = domain.TopicRejected
	f := newVotingFixture(t, 1, topic)

	_, err := f.svc.ApproveRequest(context.Background(), topic.ID, f.bus.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.TopicRejected, f.topics.get(topic.ID).Status)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestRejectRequest(t *testing.T) {
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)
	f.votes.add(topic.ID, uuid.New(), "Dharwad")
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
		return e.Kind == domain.EventRejected && e.Topic.Votes == 1
	})).Return(nil).Once()

	_, err := f.svc.RejectRequest(context.Background(), topic.ID)
	require.NoError(t, err)

	stored := f.topics.get(topic.ID)
	assert.Equal(t, domain.TopicRejected, stored.Status)
	assert.Equal(t, domain.CoordinatorRejectionReason, stored.RejectionReason)
	f.notifier.AssertExpectations(t)

	_, err = f.svc.RejectRequest(context.Background(), topic.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRejectRequestNotificationFailure(t *testing.T) {
	topic := activeTopic("Dharwad")
	f := newVotingFixture(t, 1, topic)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("boom"))

	result, err := f.svc.RejectRequest(context.Background(), topic.ID)
	require.NoError(t, err)
	assert.Equal(t, warningNotificationSend, result.Warning)
}
