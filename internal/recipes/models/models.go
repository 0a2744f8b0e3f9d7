// Package models holds recipes, their per-user marks and the views built for
// API responses.
package models

import (
	"time"

	"foodgram/pkg/domain"
)

// IngredientAmount is one row of a recipe's ingredient list.
type IngredientAmount struct {
	IngredientID domain.IngredientID
	Amount       int
}

// Recipe is a stored recipe. Image holds the media key, not a URL.
type Recipe struct {
	ID          domain.RecipeID
	AuthorID    domain.UserID
	Name        string
	Image       string
	Text        string
	CookingTime int
	PubDate     time.Time
	TagIDs      []domain.TagID
	Ingredients []IngredientAmount
}

// Clone returns a deep copy so stores can hand out values safely.
func (r *Recipe) Clone() *Recipe {
	c := *r
	c.TagIDs = append([]domain.TagID(nil), r.TagIDs...)
	c.Ingredients = append([]IngredientAmount(nil), r.Ingredients...)
	return &c
}

// Filter narrows the recipe list. Zero values disable a criterion. When
// ByTags is set only recipes carrying at least one of TagIDs match, so an
// empty TagIDs matches nothing.
type Filter struct {
	AuthorID    domain.UserID
	ByTags      bool
	TagIDs      []domain.TagID
	FavoritedBy domain.UserID
	InCartOf    domain.UserID
}

// Marks are the caller-specific flags of one recipe.
type Marks struct {
	Favorited bool
	InCart    bool
}

// Author is the recipe author as seen by the viewer.
type Author struct {
	ID           domain.UserID
	Email        string
	Username     string
	FirstName    string
	LastName     string
	IsSubscribed bool
}

// TagView is a tag attached to a recipe.
type TagView struct {
	ID    domain.TagID
	Name  string
	Color string
	Slug  string
}

// IngredientLine is an ingredient with its amount in a recipe.
type IngredientLine struct {
	ID              domain.IngredientID
	Name            string
	MeasurementUnit string
	Amount          int
}

// View is a fully resolved recipe ready to render.
type View struct {
	ID               domain.RecipeID
	Author           Author
	Name             string
	ImageURL         string
	Text             string
	CookingTime      int
	PubDate          time.Time
	Tags             []TagView
	Ingredients      []IngredientLine
	IsFavorited      bool
	IsInShoppingCart bool
	FavoritesCount   int
}

// Brief is the short recipe form used by favorites, cart and subscriptions.
type Brief struct {
	ID          domain.RecipeID
	Name        string
	ImageURL    string
	CookingTime int
}

// AuthorPreview is the newest recipes of one author plus their total count.
type AuthorPreview struct {
	Recipes []Brief
	Count   int
}

// CartLine is the summed amount of one ingredient across a shopping cart.
type CartLine struct {
	IngredientID domain.IngredientID
	Amount       int64
}

// ListQuery is the recipe list filter as requested by the caller. Favorited and
// InCart are ignored for anonymous callers.
type ListQuery struct {
	AuthorID  domain.UserID
	TagSlugs  []string
	Favorited bool
	InCart    bool
}
