package domain

import (
	"time"

	"github.com/google/uuid"
)

type Vote struct {
	ID        uuid.UUID `json:"id"`
	TopicID   uuid.UUID `json:"topic_id"`
	OptionID  uuid.UUID `json:"option_id"`
	StudentID uuid.UUID `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CastBallot is a vote joined with the region of the student who cast it.
type CastBallot struct {
	TopicID   uuid.UUID
	StudentID uuid.UUID
	Region    string
}
