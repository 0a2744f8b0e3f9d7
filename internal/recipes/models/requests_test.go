package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
)

func validCreate() *CreateRecipeRequest {
	return &CreateRecipeRequest{
		Ingredients: []IngredientAmountRequest{{ID: 1, Amount: 10}, {ID: 2, Amount: 3}},
		Tags:        []domain.TagID{1, 2},
		Image:       "data:image/png;base64,iVBORw0KGgo=",
		Name:        " Pancakes ",
		Text:        "Mix and fry.",
		CookingTime: 15,
	}
}

func TestCreateRecipeRequest(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		req := validCreate()
		req.Normalize()
		require.NoError(t, req.Validate())
		assert.Equal(t, "Pancakes", req.Name)
		assert.Equal(t, []IngredientAmount{{IngredientID: 1, Amount: 10}, {IngredientID: 2, Amount: 3}}, req.Amounts())
	})

	t.Run("lists offending ids", func(t *testing.T) {
		req := validCreate()
		req.Tags = []domain.TagID{4, 4, 5}
		req.Ingredients = []IngredientAmountRequest{{ID: 7, Amount: 0}, {ID: 8, Amount: 1}, {ID: 8, Amount: 2}, {ID: 9, Amount: 32001}}
		err := req.Validate()
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "duplicate tags 4")
		assert.Contains(t, err.Error(), "duplicate ingredients 8")
		assert.Contains(t, err.Error(), "for ingredients 7, 9")
	})

	t.Run("empty lists", func(t *testing.T) {
		req := validCreate()
		req.Tags = nil
		req.Ingredients = []IngredientAmountRequest{}
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one tag")
		assert.Contains(t, err.Error(), "at least one ingredient")
	})

	t.Run("scalar fields", func(t *testing.T) {
		cases := map[string]func(r *CreateRecipeRequest){
			"missing image":     func(r *CreateRecipeRequest) { r.Image = "" },
			"zero cooking time": func(r *CreateRecipeRequest) { r.CookingTime = 0 },
			"blank text":        func(r *CreateRecipeRequest) { r.Text = "   " },
			"long name":         func(r *CreateRecipeRequest) { r.Name = strings.Repeat("n", 201) },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				req := validCreate()
				mutate(req)
				req.Normalize()
				assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
			})
		}
	})
}

func TestUpdateRecipeRequest(t *testing.T) {
	t.Run("empty patch", func(t *testing.T) {
		assert.True(t, dErrors.HasCode((&UpdateRecipeRequest{}).Validate(), dErrors.CodeValidation))
	})

	t.Run("present empty tags are rejected", func(t *testing.T) {
		tags := []domain.TagID{}
		err := (&UpdateRecipeRequest{Tags: &tags}).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one tag")
	})

	t.Run("apply replaces only present fields", func(t *testing.T) {
		name := "Crepes"
		ingredients := []IngredientAmountRequest{{ID: 3, Amount: 1}}
		req := &UpdateRecipeRequest{Name: &name, Ingredients: &ingredients}
		req.Normalize()
		require.NoError(t, req.Validate())

		recipe := &Recipe{Name: "Pancakes", Text: "old", CookingTime: 5, TagIDs: []domain.TagID{1}}
		req.Apply(recipe)
		assert.Equal(t, "Crepes", recipe.Name)
		assert.Equal(t, "old", recipe.Text)
		assert.Equal(t, []domain.TagID{1}, recipe.TagIDs)
		assert.Equal(t, []IngredientAmount{{IngredientID: 3, Amount: 1}}, recipe.Ingredients)
	})

	t.Run("cooking time bounds", func(t *testing.T) {
		zero := 0
		assert.Error(t, (&UpdateRecipeRequest{CookingTime: &zero}).Validate())
	})
}

func TestCloneIsDeep(t *testing.T) {
	r := &Recipe{TagIDs: []domain.TagID{1}, Ingredients: []IngredientAmount{{IngredientID: 1, Amount: 2}}}
	c := r.Clone()
	c.TagIDs[0] = 9
	c.Ingredients[0].Amount = 9
	assert.Equal(t, domain.TagID(1), r.TagIDs[0])
	assert.Equal(t, 2, r.Ingredients[0].Amount)
}
