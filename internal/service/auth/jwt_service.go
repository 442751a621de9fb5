// Package auth verifies the JWT access tokens clients present. Tokens are
// minted by an upstream identity service; this server only validates them
// and extracts the user identity.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Claims holds the validated content of an access token.
type Claims struct {
	// UserID is the authenticated user's unique identifier.
	UserID uuid.UUID

	// Subject is the standard JWT subject claim.
	Subject string

	// IssuedAt is when the token was issued.
	IssuedAt time.Time

	// ExpiresAt is when the token expires.
	ExpiresAt time.Time

	// ID is the unique token identifier (jti claim).
	ID string
}

// JWTService validates access tokens.
type JWTService interface {
	// ValidateToken checks the token signature and time claims and returns
	// the claims if valid. Returns ErrExpiredToken, ErrTokenNotYetValid or
	// ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}
