// Package store persists users and their subscriptions.
package store

import (
	"fmt"

	"foodgram/pkg/platform/sentinel"
)

var (
	// ErrNotFound is returned when a user or subscription does not exist.
	ErrNotFound = sentinel.ErrNotFound
	// ErrEmailTaken is returned when another user owns the email, ignoring case.
	ErrEmailTaken = fmt.Errorf("email %w", sentinel.ErrAlreadyUsed)
	// ErrUsernameTaken is returned when another user owns the username.
	ErrUsernameTaken = fmt.Errorf("username %w", sentinel.ErrAlreadyUsed)
	// ErrAlreadySubscribed is returned for a duplicate subscription.
	ErrAlreadySubscribed = fmt.Errorf("subscription %w", sentinel.ErrAlreadyUsed)
)
