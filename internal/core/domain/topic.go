package domain

import (
	"time"

	"github.com/google/uuid"
)

type TopicStatus string

const (
	TopicActive    TopicStatus = "active"
	TopicCompleted TopicStatus = "completed"
	TopicUpcoming  TopicStatus = "upcoming"
	TopicApproved  TopicStatus = "approved"
	TopicRejected  TopicStatus = "rejected"
)

const (
	// DefaultTopicRegion is shown for topics whose creator has no region.
	DefaultTopicRegion = "Dharwad Region"

	ApproveOptionText = "Approve"

	CoordinatorRejectionReason = "Request rejected by coordinator"
	FallbackRejectionReason    = "Insufficient driver availability"
)

// Terminal reports whether no further transition is allowed out of s.
func (s TopicStatus) Terminal() bool {
	return s == TopicApproved || s == TopicRejected || s == TopicCompleted
}

// CanTransition allows active -> {approved, rejected, completed} only.
func CanTransition(from, to TopicStatus) bool {
	if from != TopicActive {
		return false
	}
	return to.Terminal()
}

type Topic struct {
	ID              uuid.UUID      `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	RouteID         uuid.NullUUID  `json:"route_id"`
	ScheduleID      uuid.NullUUID  `json:"schedule_id"`
	BusID           uuid.NullUUID  `json:"bus_id"`
	BusNumber       string         `json:"bus_number,omitempty"`
	Votes           float64        `json:"votes"`
	RequiredVotes   float64        `json:"required_votes"`
	HasVoted        bool           `json:"has_voted"`
	Status          TopicStatus    `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	EndDate         time.Time      `json:"end_date"`
	Region          string         `json:"region"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	CreatedBy       uuid.UUID      `json:"created_by"`
	Options         []VotingOption `json:"options,omitempty"`
}

// Open reports whether votes are still accepted at now.
func (t *Topic) Open(now time.Time) bool {
	return t.Status == TopicActive && !now.After(t.EndDate)
}

// HasOption reports whether optionID belongs to the topic.
func (t *Topic) HasOption(optionID uuid.UUID) bool {
	for _, opt := range t.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// DisplayRegion falls back to DefaultTopicRegion when the creator has none.
func (t *Topic) DisplayRegion() string {
	if t.Region == "" {
		return DefaultTopicRegion
	}
	return t.Region
}

type VotingOption struct {
	ID        uuid.UUID `json:"id"`
	TopicID   uuid.UUID `json:"topic_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
