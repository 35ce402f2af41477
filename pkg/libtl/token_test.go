package libtl_test

import (
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/mdouchement/travellog/pkg/libtl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenExpiredAt(t *testing.T) {
	now := time.Now()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "user-1",
		"exp":    now.Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	assert.False(t, libtl.TokenExpiredAt(token, now))
	assert.True(t, libtl.TokenExpiredAt(token, now.Add(2*time.Hour)))
}

func TestTokenExpiredAt_NoExpiration(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "user-1",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	assert.False(t, libtl.TokenExpiredAt(token, time.Now().Add(24*365*time.Hour)))
	assert.False(t, libtl.TokenExpiredAt("not-a-jwt", time.Now()))
}
