// Package jwtauth verifies the HS256 access tokens issued by the external
// auth provider.
package jwtauth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
)

type accessClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) ports.TokenVerifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *Verifier) Verify(token string) (*ports.TokenClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims := &accessClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject", domain.ErrUnauthenticated)
	}

	return &ports.TokenClaims{
		UserID: userID,
		Role:   domain.Role(claims.Role),
	}, nil
}
