// Package domain holds identifier types shared across modules.
//
// Every public resource is addressed by a positive integer. Distinct named types keep
// a RecipeID from being passed where a UserID is expected; construct them from
// external input with the Parse functions so the positivity invariant holds.
package domain

import (
	"strconv"
	"strings"

	dErrors "foodgram/pkg/domain-errors"
)

type (
	UserID       int64
	TagID        int64
	IngredientID int64
	RecipeID     int64
)

func (id UserID) String() string       { return strconv.FormatInt(int64(id), 10) }
func (id TagID) String() string        { return strconv.FormatInt(int64(id), 10) }
func (id IngredientID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id RecipeID) String() string     { return strconv.FormatInt(int64(id), 10) }

// IsZero reports whether the ID is unset. Anonymous callers carry a zero UserID.
func (id UserID) IsZero() bool { return id == 0 }

func parsePositive(raw, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, field+" must be positive")
	}
	return v, nil
}

func ParseUserID(raw string) (UserID, error) {
	v, err := parsePositive(raw, "user id")
	return UserID(v), err
}

func ParseTagID(raw string) (TagID, error) {
	v, err := parsePositive(raw, "tag id")
	return TagID(v), err
}

func ParseIngredientID(raw string) (IngredientID, error) {
	v, err := parsePositive(raw, "ingredient id")
	return IngredientID(v), err
}

func ParseRecipeID(raw string) (RecipeID, error) {
	v, err := parsePositive(raw, "recipe id")
	return RecipeID(v), err
}
