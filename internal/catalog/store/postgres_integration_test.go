//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"foodgram/internal/catalog/models"
	"foodgram/internal/catalog/store"
	"foodgram/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"recipe_ingredients", "recipe_tags", "recipes", "tags", "ingredients", "users"))
}

func (s *PostgresStoreSuite) TestTagConstraintsMapToSentinels() {
	ctx := context.Background()
	lunch, _ := models.NewTag("Lunch", "#00FF00", "lunch")
	s.Require().NoError(s.store.CreateTag(ctx, lunch))

	byName := &models.Tag{Name: "Lunch", Color: "#111111", Slug: "lunch2"}
	s.ErrorIs(s.store.CreateTag(ctx, byName), store.ErrTagNameTaken)

	byColor := &models.Tag{Name: "Brunch", Color: "#00FF00", Slug: "brunch"}
	s.ErrorIs(s.store.CreateTag(ctx, byColor), store.ErrTagColorTaken)

	bySlug := &models.Tag{Name: "Brunch", Color: "#222222", Slug: "lunch"}
	s.ErrorIs(s.store.CreateTag(ctx, bySlug), store.ErrTagSlugTaken)

	lunch.Name = "Late lunch"
	s.Require().NoError(s.store.UpdateTag(ctx, lunch))
	found, err := s.store.FindTag(ctx, lunch.ID)
	s.Require().NoError(err)
	s.Equal("Late lunch", found.Name)
}

func (s *PostgresStoreSuite) TestSearchIngredientsEscapesWildcards() {
	ctx := context.Background()
	for _, name := range []string{"50% cream", "500 g butter", "Salt"} {
		ing, err := models.NewIngredient(name, "g")
		s.Require().NoError(err)
		s.Require().NoError(s.store.CreateIngredient(ctx, ing))
	}

	found, err := s.store.SearchIngredients(ctx, "50%")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("50% cream", found[0].Name)

	found, err = s.store.SearchIngredients(ctx, "sA")
	s.Require().NoError(err)
	s.Require().Len(found, 1)

	dup := &models.Ingredient{Name: "SALT", MeasurementUnit: "g"}
	s.ErrorIs(s.store.CreateIngredient(ctx, dup), store.ErrIngredientTaken)
}

func (s *PostgresStoreSuite) TestDeleteIngredientInUse() {
	ctx := context.Background()
	ing, _ := models.NewIngredient("Egg", "pcs")
	s.Require().NoError(s.store.CreateIngredient(ctx, ing))

	db := s.postgres.DB
	var userID, recipeID int64
	s.Require().NoError(db.QueryRowContext(ctx, `
		INSERT INTO users (email, username, first_name, last_name, password_hash)
		VALUES ('a@example.com', 'a', 'A', 'B', 'x') RETURNING id`).Scan(&userID))
	s.Require().NoError(db.QueryRowContext(ctx, `
		INSERT INTO recipes (author_id, name, image, text, cooking_time)
		VALUES ($1, 'Omelette', 'img.png', 'Whisk', 5) RETURNING id`, userID).Scan(&recipeID))
	_, err := db.ExecContext(ctx,
		`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES ($1, $2, 2)`, recipeID, int64(ing.ID))
	s.Require().NoError(err)

	s.ErrorIs(s.store.DeleteIngredient(ctx, ing.ID), store.ErrIngredientInUse)
	s.ErrorIs(s.store.DeleteIngredient(ctx, ing.ID+100), store.ErrNotFound)
}
