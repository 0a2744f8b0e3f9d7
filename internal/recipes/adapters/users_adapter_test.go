package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recipeModels "foodgram/internal/recipes/models"
	userModels "foodgram/internal/users/models"
	"foodgram/pkg/domain"
)

type stubProfiles struct {
	viewer domain.UserID
	err    error
}

func (s *stubProfiles) Profiles(_ context.Context, viewer domain.UserID, ids []domain.UserID) (map[domain.UserID]userModels.Profile, error) {
	s.viewer = viewer
	if s.err != nil {
		return nil, s.err
	}
	out := map[domain.UserID]userModels.Profile{}
	for _, id := range ids {
		out[id] = userModels.Profile{ID: id, Username: "chef", IsSubscribed: true}
	}
	return out, nil
}

type stubPreviews struct{}

func (stubPreviews) AuthorPreviews(_ context.Context, authors []domain.UserID, limit int) (map[domain.UserID]recipeModels.AuthorPreview, error) {
	out := map[domain.UserID]recipeModels.AuthorPreview{}
	for _, a := range authors {
		out[a] = recipeModels.AuthorPreview{
			Recipes: []recipeModels.Brief{{ID: 9, Name: "Soup", ImageURL: "http://testserver/media/soup.png", CookingTime: 15}},
			Count:   limit + 4,
		}
	}
	return out, nil
}

func TestAuthorResolver(t *testing.T) {
	t.Run("maps profiles to authors", func(t *testing.T) {
		profiles := &stubProfiles{}
		authors, err := NewAuthorResolver(profiles).Authors(context.Background(), 7, []domain.UserID{1})
		require.NoError(t, err)
		assert.Equal(t, domain.UserID(7), profiles.viewer)
		assert.Equal(t, recipeModels.Author{ID: 1, Username: "chef", IsSubscribed: true}, authors[1])
	})

	t.Run("propagates errors", func(t *testing.T) {
		_, err := NewAuthorResolver(&stubProfiles{err: errors.New("boom")}).Authors(context.Background(), 0, []domain.UserID{1})
		assert.Error(t, err)
	})
}

func TestRecipeSummaries(t *testing.T) {
	t.Run("unbound adapter returns no previews", func(t *testing.T) {
		out, err := NewRecipeSummaries().SummariesByAuthors(context.Background(), []domain.UserID{1}, 3)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("maps briefs to summaries", func(t *testing.T) {
		adapter := NewRecipeSummaries()
		adapter.Bind(stubPreviews{})
		out, err := adapter.SummariesByAuthors(context.Background(), []domain.UserID{1}, 3)
		require.NoError(t, err)
		assert.Equal(t, userModels.AuthorRecipes{
			Recipes: []userModels.RecipeSummary{{ID: 9, Name: "Soup", Image: "http://testserver/media/soup.png", CookingTime: 15}},
			Count:   7,
		}, out[1])
	})
}
