package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "foodgram/pkg/domain-errors"
)

func TestNewTag(t *testing.T) {
	t.Run("upper-cases color and trims fields", func(t *testing.T) {
		tag, err := NewTag(" Breakfast ", "#e26c2d", " breakfast ")
		require.NoError(t, err)
		assert.Equal(t, "Breakfast", tag.Name)
		assert.Equal(t, "#E26C2D", tag.Color)
		assert.Equal(t, "breakfast", tag.Slug)
	})

	t.Run("rejects bad fields", func(t *testing.T) {
		cases := map[string][3]string{
			"blank name":    {"", "#FFFFFF", "x"},
			"short color":   {"Lunch", "#FFF", "lunch"},
			"slug with dot": {"Lunch", "#FFFFFF", "lu.nch"},
			"long name":     {strings.Repeat("n", 201), "#FFFFFF", "n"},
		}
		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := NewTag(in[0], in[1], in[2])
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
			})
		}
	})
}

func TestNewIngredient(t *testing.T) {
	ing, err := NewIngredient(" flour ", " g ")
	require.NoError(t, err)
	assert.Equal(t, "flour", ing.Name)
	assert.Equal(t, "g", ing.MeasurementUnit)

	_, err = NewIngredient("salt", strings.Repeat("u", 21))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestUpdateTagRequest(t *testing.T) {
	t.Run("empty patch is rejected", func(t *testing.T) {
		req := &UpdateTagRequest{}
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})

	t.Run("applies present fields only", func(t *testing.T) {
		color := " #abcdef "
		req := &UpdateTagRequest{Color: &color}
		req.Normalize()
		require.NoError(t, req.Validate())

		tag := &Tag{ID: 1, Name: "Dinner", Color: "#000000", Slug: "dinner"}
		require.NoError(t, req.Apply(tag))
		assert.Equal(t, &Tag{ID: 1, Name: "Dinner", Color: "#ABCDEF", Slug: "dinner"}, tag)
	})

	t.Run("invalid slug fails validation", func(t *testing.T) {
		slug := "no spaces"
		req := &UpdateTagRequest{Slug: &slug}
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})
}
