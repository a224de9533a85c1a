package auth

import (
	"testing"
	"time"

	"community-live/errors"

	"github.com/stretchr/testify/require"
)

const testSecret = "a_long_test_secret_for_hs256_signing"

func TestValidateToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	validator := NewValidator(testSecret)

	// Given a freshly issued token
	token, err := GenerateToken(testSecret, "user-42", time.Hour)
	req.NoError(err)

	// When it is validated
	userID, err := validator.Validate(token)

	// Then the user id claim is recovered
	req.NoError(err)
	req.Equal("user-42", userID)
}

func TestValidateToken_Failures(t *testing.T) {
	req := require.New(t)
	validator := NewValidator(testSecret)

	expired, err := GenerateToken(testSecret, "user-42", -time.Minute)
	req.NoError(err)
	foreign, err := GenerateToken("some_other_secret_entirely_here", "user-42", time.Hour)
	req.NoError(err)
	anonymous, err := GenerateToken(testSecret, "", time.Hour)
	req.NoError(err)

	tests := []struct {
		name  string
		token string
	}{
		{"Missing token", ""},
		{"Garbage token", "not.a.jwt"},
		{"Expired token", expired},
		{"Wrong signing key", foreign},
		{"No subject claim", anonymous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.Validate(tt.token)
			require.ErrorIs(t, err, errors.ErrAuthentication)
		})
	}
}
