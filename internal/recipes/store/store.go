// Package store persists recipes together with favorites and shopping carts.
package store

import (
	"fmt"
	"sort"

	"foodgram/internal/recipes/models"
	"foodgram/pkg/platform/sentinel"
)

var (
	// ErrNotFound is returned when a recipe, favorite or cart row does not exist.
	ErrNotFound = sentinel.ErrNotFound
	// ErrNameTaken is returned when the author already has a recipe with the name.
	ErrNameTaken = fmt.Errorf("recipe name %w", sentinel.ErrAlreadyUsed)
	// ErrAlreadyFavorited is returned for a duplicate favorite.
	ErrAlreadyFavorited = fmt.Errorf("favorite %w", sentinel.ErrAlreadyUsed)
	// ErrAlreadyInCart is returned for a duplicate shopping cart row.
	ErrAlreadyInCart = fmt.Errorf("shopping cart item %w", sentinel.ErrAlreadyUsed)
	// ErrUnknownReference is returned when a tag or ingredient vanished between
	// validation and the write.
	ErrUnknownReference = fmt.Errorf("recipe references a missing tag or ingredient: %w", sentinel.ErrInvalidState)
)

// sortNewestFirst orders recipes by publication date, newest first, then by id.
func sortNewestFirst(recipes []*models.Recipe) {
	sort.Slice(recipes, func(i, j int) bool {
		if !recipes[i].PubDate.Equal(recipes[j].PubDate) {
			return recipes[i].PubDate.After(recipes[j].PubDate)
		}
		return recipes[i].ID > recipes[j].ID
	})
}
