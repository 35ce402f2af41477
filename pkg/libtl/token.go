package libtl

import (
	"time"

	jwt "github.com/dgrijalva/jwt-go"
)

// TokenExpiredAt returns true if the given bearer token is a JWT expired at the given time.
// The signature is not verified, tokens that are not JWT are never considered expired.
func TokenExpiredAt(token string, t time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}

	if _, ok := claims["exp"]; !ok {
		return false
	}
	return !claims.VerifyExpiresAt(t.Unix(), true)
}
