package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent     Role = "student"
	RoleDriver      Role = "driver"
	RoleCoordinator Role = "coordinator"
	RoleAdmin       Role = "admin"
)

// HomePath is the dashboard route a user of the given role lands on.
func HomePath(role Role) string {
	switch role {
	case RoleStudent, RoleDriver, RoleCoordinator, RoleAdmin:
		return "/" + string(role)
	default:
		return "/"
	}
}

// UnknownRegion is the region a voter without a profile region counts as.
const UnknownRegion = "Unknown"

// User is a profile row. Authentication itself is owned by the external
// provider; this service only reads the role and region it needs.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
