// Package notify renders and fans out driver notifications.
package notify

import (
	"fmt"
	"strconv"

	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

const unassignedBus = "Not assigned"

// Message renders the driver-facing text for an event.
func Message(event domain.Event) string {
	t := event.Topic
	region := t.DisplayRegion()
	votes := strconv.FormatFloat(t.Votes, 'f', -1, 64)

	switch event.Kind {
	case domain.EventThreshold:
		return fmt.Sprintf("🚨 URGENT: LEAVE THE BUS!\n\n"+
			"A new bus request has reached the voting threshold.\n\n"+
			"Details:\nTitle: %s\nDescription: %s\nRegion: %s\n\n"+
			"Please check your coordinator dashboard for more information.",
			t.Title, t.Description, region)
	case domain.EventRejected:
		return fmt.Sprintf("❌ REQUEST REJECTED\n\n"+
			"Title: %s\nDescription: %s\nFinal Votes: %s\nRegion: %s\n\n"+
			"Request has been rejected.",
			t.Title, t.Description, votes, region)
	case domain.EventApproved:
		bus := t.BusNumber
		if bus == "" {
			bus = unassignedBus
		}
		return fmt.Sprintf("✅ REQUEST APPROVED\n\n"+
			"Title: %s\nDescription: %s\nFinal Votes: %s\nRegion: %s\nBus: %s\n\n"+
			"Request has been approved and bus allocated.",
			t.Title, t.Description, votes, region, bus)
	default:
		return fmt.Sprintf("Voting topic update (%s): %s", event.Kind, t.Title)
	}
}
