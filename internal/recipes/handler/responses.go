package handler

import (
	"foodgram/internal/recipes/models"
)

// AuthorResponse is the recipe author as seen by the caller.
type AuthorResponse struct {
	Email        string `json:"email"`
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type TagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full recipe.
type RecipeResponse struct {
	ID               int64                `json:"id"`
	Tags             []TagResponse        `json:"tags"`
	Author           AuthorResponse       `json:"author"`
	Ingredients      []IngredientResponse `json:"ingredients"`
	IsFavorited      bool                 `json:"is_favorited"`
	IsInShoppingCart bool                 `json:"is_in_shopping_cart"`
	Name             string               `json:"name"`
	Image            string               `json:"image"`
	Text             string               `json:"text"`
	CookingTime      int                  `json:"cooking_time"`
	FavoritesCount   int                  `json:"favorites_count"`
}

// BriefRecipeResponse is returned by the favorite and shopping cart endpoints.
type BriefRecipeResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func toRecipeResponse(v *models.View) RecipeResponse {
	tags := make([]TagResponse, len(v.Tags))
	for i, t := range v.Tags {
		tags[i] = TagResponse{ID: int64(t.ID), Name: t.Name, Color: t.Color, Slug: t.Slug}
	}
	ingredients := make([]IngredientResponse, len(v.Ingredients))
	for i, ing := range v.Ingredients {
		ingredients[i] = IngredientResponse{
			ID:              int64(ing.ID),
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          ing.Amount,
		}
	}
	return RecipeResponse{
		ID:   int64(v.ID),
		Tags: tags,
		Author: AuthorResponse{
			Email:        v.Author.Email,
			ID:           int64(v.Author.ID),
			Username:     v.Author.Username,
			FirstName:    v.Author.FirstName,
			LastName:     v.Author.LastName,
			IsSubscribed: v.Author.IsSubscribed,
		},
		Ingredients:      ingredients,
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
		Name:             v.Name,
		Image:            v.ImageURL,
		Text:             v.Text,
		CookingTime:      v.CookingTime,
		FavoritesCount:   v.FavoritesCount,
	}
}

func toBriefResponse(b *models.Brief) BriefRecipeResponse {
	return BriefRecipeResponse{ID: int64(b.ID), Name: b.Name, Image: b.ImageURL, CookingTime: b.CookingTime}
}
