package domain

type EventKind string

const (
	EventThreshold EventKind = "threshold"
	EventRejected  EventKind = "rejected"
	EventApproved  EventKind = "approved"
)

// Event is an outbound driver notification about a topic.
type Event struct {
	Kind  EventKind `json:"kind"`
	Topic Topic     `json:"topic"`
}
