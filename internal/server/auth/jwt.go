// Package auth mints and verifies the bearer tokens used by the HTTP API.
// Tokens are HS256-signed JWTs whose payload carries the username.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/messagely/messagely/internal/common"
)

// Claims carries the standard registered claims plus the authenticated
// username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// GenerateToken signs a token for username valid for validityDuration.
func GenerateToken(username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUsernameFromToken verifies the signature and returns the username the
// token was issued for. Any parse or signature failure, including expiry,
// surfaces as common.ErrorInvalidToken so callers cannot distinguish why a
// token was rejected.
func GetUsernameFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrorInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		return "", common.ErrorInvalidToken
	}

	if !token.Valid || claims.Username == "" {
		return "", common.ErrorInvalidToken
	}

	return claims.Username, nil
}
