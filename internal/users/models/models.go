package models

import (
	"strings"
	"time"

	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/validation"
)

// User is a registered account. Email is unique ignoring case; username is unique
// as written.
type User struct {
	ID           domain.UserID
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
}

// NewUser builds a user and enforces the field invariants every store relies on.
func NewUser(email, username, firstName, lastName, passwordHash string, now time.Time) (*User, error) {
	u := &User{
		Email:        strings.TrimSpace(email),
		Username:     strings.TrimSpace(username),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	switch {
	case u.Email == "" || len(u.Email) > validation.MaxEmailLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email must be 1-254 characters")
	case u.Username == "" || len(u.Username) > validation.MaxUsernameLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username must be 1-150 characters")
	case !validation.IsUsername(u.Username):
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username may contain only letters, digits and @/./+/-/_")
	case u.FirstName == "" || len(u.FirstName) > validation.MaxPersonNameLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "first_name must be 1-150 characters")
	case u.LastName == "" || len(u.LastName) > validation.MaxPersonNameLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "last_name must be 1-150 characters")
	case passwordHash == "":
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	return u, nil
}

// Profile is a user as seen by a particular viewer.
type Profile struct {
	ID           domain.UserID
	Email        string
	Username     string
	FirstName    string
	LastName     string
	IsSubscribed bool
}

// ProfileOf projects u for a viewer; subscribed tells whether the viewer follows u.
func ProfileOf(u *User, subscribed bool) Profile {
	return Profile{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// RecipeSummary is the short recipe form listed under a followed author.
type RecipeSummary struct {
	ID          domain.RecipeID
	Name        string
	Image       string
	CookingTime int
}

// AuthorRecipes holds the newest recipes of an author and their total count.
type AuthorRecipes struct {
	Recipes []RecipeSummary
	Count   int
}

// Subscription is a followed author with a preview of their recipes.
type Subscription struct {
	Author  Profile
	Recipes []RecipeSummary
	Count   int
}
