package models

import (
	"foodgram/pkg/email"
	"foodgram/pkg/platform/validation"
)

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

func (r *LoginRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
}

func (r *LoginRequest) Validate() error {
	return validation.Struct(r)
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}
