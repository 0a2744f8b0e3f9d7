package models

import (
	"strings"

	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/email"
	"foodgram/pkg/platform/validation"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *RegisterRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	return ValidatePassword(r.Password, r.Username, r.Email)
}

// SetPasswordRequest changes the caller's password.
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

func (r *SetPasswordRequest) Normalize() {}

func (r *SetPasswordRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	return ValidatePassword(r.NewPassword, "", "")
}

// ValidatePassword rejects all-numeric passwords and passwords equal to the
// username or the local part of the email. Length is counted in bytes, the
// unit bcrypt limits.
func ValidatePassword(password, username, address string) error {
	if len(password) < validation.MinPasswordLength || len(password) > validation.MaxPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be between 8 and 72 bytes")
	}
	if isNumeric(password) {
		return dErrors.New(dErrors.CodeValidation, "password: this password is entirely numeric")
	}
	lower := strings.ToLower(password)
	if username != "" && lower == strings.ToLower(username) {
		return dErrors.New(dErrors.CodeValidation, "password: the password is too similar to the username")
	}
	if address != "" && lower == strings.ToLower(email.LocalPart(address)) {
		return dErrors.New(dErrors.CodeValidation, "password: the password is too similar to the email")
	}
	return nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
