package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// TokenClaims are the verified contents of an access token issued by the
// external auth provider.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

type TokenVerifier interface {
	// Verify returns domain.ErrSessionExpired for a well-formed but expired token.
	Verify(token string) (*TokenClaims, error)
}
