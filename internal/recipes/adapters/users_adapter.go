package adapters

import (
	"context"

	recipeModels "foodgram/internal/recipes/models"
	userModels "foodgram/internal/users/models"
	"foodgram/pkg/domain"
)

// userProfiles is the slice of the users service that recipes need.
// Defined locally so the recipes service never imports the users package.
type userProfiles interface {
	Profiles(ctx context.Context, viewer domain.UserID, ids []domain.UserID) (map[domain.UserID]userModels.Profile, error)
}

// recipePreviews is the slice of the recipes service that users need.
type recipePreviews interface {
	AuthorPreviews(ctx context.Context, authors []domain.UserID, limit int) (map[domain.UserID]recipeModels.AuthorPreview, error)
}

// AuthorResolver adapts the users service to recipes' Authors dependency.
type AuthorResolver struct {
	users userProfiles
}

// NewAuthorResolver creates a new adapter wrapping the users service.
func NewAuthorResolver(users userProfiles) *AuthorResolver {
	return &AuthorResolver{users: users}
}

// Authors loads the given users as recipe authors seen by viewer.
func (a *AuthorResolver) Authors(ctx context.Context, viewer domain.UserID, ids []domain.UserID) (map[domain.UserID]recipeModels.Author, error) {
	profiles, err := a.users.Profiles(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.UserID]recipeModels.Author, len(profiles))
	for id, p := range profiles {
		out[id] = recipeModels.Author{
			ID:           p.ID,
			Email:        p.Email,
			Username:     p.Username,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			IsSubscribed: p.IsSubscribed,
		}
	}
	return out, nil
}

// RecipeSummaries adapts the recipes service to users' subscription previews.
// It is wired after both services exist, so Bind must be called before use.
type RecipeSummaries struct {
	recipes recipePreviews
}

// NewRecipeSummaries creates an unbound adapter.
func NewRecipeSummaries() *RecipeSummaries {
	return &RecipeSummaries{}
}

// Bind attaches the recipes service.
func (a *RecipeSummaries) Bind(recipes recipePreviews) {
	a.recipes = recipes
}

// SummariesByAuthors maps recipe previews to users' DTOs at the boundary.
func (a *RecipeSummaries) SummariesByAuthors(ctx context.Context, authors []domain.UserID, limit int) (map[domain.UserID]userModels.AuthorRecipes, error) {
	if a.recipes == nil {
		return map[domain.UserID]userModels.AuthorRecipes{}, nil
	}
	previews, err := a.recipes.AuthorPreviews(ctx, authors, limit)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.UserID]userModels.AuthorRecipes, len(previews))
	for id, p := range previews {
		summaries := make([]userModels.RecipeSummary, len(p.Recipes))
		for i, r := range p.Recipes {
			summaries[i] = userModels.RecipeSummary{
				ID:          r.ID,
				Name:        r.Name,
				Image:       r.ImageURL,
				CookingTime: r.CookingTime,
			}
		}
		out[id] = userModels.AuthorRecipes{Recipes: summaries, Count: p.Count}
	}
	return out, nil
}
