// Package auth is the boundary with the external identity provider: it only
// parses and issues tokens carrying the user id and verified email.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity — то, что приложение знает о текущем пользователе.
type Identity struct {
	UserID string
	Email  string
}

func GenerateToken(secret string, identity Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": identity.UserID,
		"email":   identity.Email,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (Identity, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["user_id"] == nil {
		return Identity{}, errors.New("invalid claims")
	}

	identity := Identity{}
	if v, ok := claims["user_id"].(string); ok {
		identity.UserID = v
	}
	if v, ok := claims["email"].(string); ok {
		identity.Email = v
	}
	if identity.UserID == "" {
		return Identity{}, errors.New("invalid claims")
	}
	return identity, nil
}
