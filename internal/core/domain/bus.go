package domain

import "github.com/google/uuid"

type Bus struct {
	ID       uuid.UUID `json:"id"`
	Number   string    `json:"bus_number"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
	Route    string    `json:"route"`
	Status   string    `json:"status"`
}

// FindBus returns the bus with the given id, or nil.
func FindBus(buses []*Bus, id uuid.UUID) *Bus {
	for _, b := range buses {
		if b.ID == id {
			return b
		}
	}
	return nil
}
