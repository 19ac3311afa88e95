package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

type BusRepository interface {
	// List returns every bus ordered by bus number.
	List(ctx context.Context) ([]*domain.Bus, error)
	// GetByID returns nil without error when the bus does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bus, error)
}
