package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenAuth wraps the jwtauth keyset plus the token lifetime, so issuing and
// verifying share one constructed instance instead of a package global.
type TokenAuth struct {
	Auth *jwtauth.JWTAuth
	exp  time.Duration
}

func NewTokenAuth(key []byte, exp time.Duration) *TokenAuth {
	return &TokenAuth{
		Auth: jwtauth.New("HS256", key, nil),
		exp:  exp,
	}
}

func (t *TokenAuth) GenerateToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(t.exp).Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := t.Auth.Encode(claims)
	return tokenString, err
}

func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims map[string]interface{}) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
