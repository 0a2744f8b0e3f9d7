// Package store persists tags and ingredients.
package store

import (
	"fmt"
	"strings"

	"foodgram/pkg/platform/sentinel"
)

var (
	// ErrNotFound is returned when a tag or ingredient does not exist.
	ErrNotFound = sentinel.ErrNotFound
	// ErrTagNameTaken, ErrTagColorTaken and ErrTagSlugTaken report a clash on one
	// of the unique tag columns.
	ErrTagNameTaken  = fmt.Errorf("tag name %w", sentinel.ErrAlreadyUsed)
	ErrTagColorTaken = fmt.Errorf("tag color %w", sentinel.ErrAlreadyUsed)
	ErrTagSlugTaken  = fmt.Errorf("tag slug %w", sentinel.ErrAlreadyUsed)
	// ErrIngredientTaken is returned for a duplicate name and unit pair.
	ErrIngredientTaken = fmt.Errorf("ingredient %w", sentinel.ErrAlreadyUsed)
	// ErrIngredientInUse is returned when a recipe still references the ingredient.
	ErrIngredientInUse = fmt.Errorf("ingredient in use: %w", sentinel.ErrConflict)
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// prefixPattern turns a user supplied prefix into a LIKE pattern.
func prefixPattern(prefix string) string {
	return likeEscaper.Replace(strings.ToLower(prefix)) + "%"
}
