package notesapi

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a JWT bearer token without verifying its
// signature; the client cannot verify it and only uses the value to warn early.
// ok is false when the token carries no exp claim.
func TokenExpiry(token string) (expiry time.Time, ok bool, err error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, false, nil
	}

	return claims.ExpiresAt.Time, true, nil
}
