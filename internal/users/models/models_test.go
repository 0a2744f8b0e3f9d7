package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "foodgram/pkg/domain-errors"
)

func TestNewUser(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	u, err := NewUser(" cook@example.com ", "cook", "Ann", "Cook", "hash", now)
	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", u.Email)
	assert.Equal(t, now, u.CreatedAt)
	assert.False(t, u.IsStaff)

	tests := []struct {
		name     string
		email    string
		username string
		hash     string
	}{
		{"missing email", "", "cook", "hash"},
		{"bad username", "a@b.c", "has space", "hash"},
		{"missing hash", "a@b.c", "cook", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, tt.username, "Ann", "Cook", tt.hash, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := RegisterRequest{
		Email:     "cook@example.com",
		Username:  "cook",
		FirstName: "Ann",
		LastName:  "Cook",
		Password:  "s3cret-pass",
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Email = "not-an-email"
	assert.True(t, dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))

	bad = valid
	bad.Password = "12345678901"
	err := bad.Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), "entirely numeric")

	bad = valid
	bad.Password = "COOKcook"
	bad.Username = "cookcook"
	assert.True(t, dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))
}

func TestSetPasswordRequestValidate(t *testing.T) {
	req := SetPasswordRequest{NewPassword: "short", CurrentPassword: "old"}
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))

	req.NewPassword = "long-enough-pass"
	assert.NoError(t, req.Validate())
}

func TestPasswordLengthCountsBytes(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"six cyrillic letters are 12 bytes", "пароль", true},
		{"three cyrillic letters are 6 bytes", "пар", false},
		{"36 cyrillic letters are 72 bytes", strings.Repeat("я", 36), true},
		{"37 cyrillic letters are 74 bytes", strings.Repeat("я", 37), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			register := RegisterRequest{
				Email:     "cook@example.com",
				Username:  "cook",
				FirstName: "Ann",
				LastName:  "Cook",
				Password:  tt.password,
			}
			change := SetPasswordRequest{NewPassword: tt.password, CurrentPassword: "old"}
			if tt.valid {
				assert.NoError(t, register.Validate())
				assert.NoError(t, change.Validate())
				return
			}
			assert.True(t, dErrors.HasCode(register.Validate(), dErrors.CodeValidation))
			assert.True(t, dErrors.HasCode(change.Validate(), dErrors.CodeValidation))
		})
	}
}
