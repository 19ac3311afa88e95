package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

type UserService interface {
	// GetByID returns nil without error when the profile does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
