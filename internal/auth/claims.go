package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the subset of the remote-issued access token the client
// cares about. Only the remote store verifies tokens; the client parses
// without verification, so nothing security-relevant may hang off these
// values.
type TokenClaims struct {
	Username string
	IssuedAt time.Time
	Expiry   time.Time
}

func ParseTokenClaims(token string) (*TokenClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	parsed := &TokenClaims{Username: claims.Subject}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.Expiry = claims.ExpiresAt.Time
	}
	return parsed, nil
}
