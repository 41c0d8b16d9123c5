package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNotJWT = errors.New("token is not a jwt")

// Claims are read from the token payload without verifying the signature.
// The client never holds the signing key; the server stays the authority.
type Claims struct {
	jwt.RegisteredClaims
}

func ClaimsFromToken(tokenStr string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return nil, errors.Join(ErrNotJWT, err)
	}
	return &claims, nil
}

// Expired reports whether tokenStr is a JWT whose exp is not after now.
// Opaque tokens and JWTs without exp are never considered expired.
func Expired(tokenStr string, now time.Time) bool {
	claims, err := ClaimsFromToken(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now)
}
