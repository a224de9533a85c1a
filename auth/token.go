package auth

import (
	"fmt"
	"time"

	"community-live/errors"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
// Only the user id matters to the live subsystem; identity issuance happens
// in the main platform backend.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Validator checks bearer tokens presented at connection time.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// Validate parses and validates the signature and expiration of a JWT string
// and returns the authenticated user id. Any failure, including a token
// without a user id claim, maps to ErrAuthentication: the caller must refuse
// the connection before any room operation is possible.
func (v *Validator) Validate(tokenString string) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("%w: missing token", errors.ErrAuthentication)
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrAuthentication, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("%w: no subject claim", errors.ErrAuthentication)
	}
	return claims.UserID, nil
}

// GenerateToken creates a signed JWT for a specific user.
// Used by the seed and tester tools; production tokens come from the
// platform's auth service with the same secret.
func GenerateToken(secret, userID string, duration time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "community-live",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
