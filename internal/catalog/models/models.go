// Package models holds the recipe catalog: tags and ingredients.
package models

import (
	"strings"
	"unicode/utf8"

	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/validation"
)

// Tag labels recipes. Name, color and slug are each unique; color is kept
// upper-case so "#e26c2d" and "#E26C2D" collide.
type Tag struct {
	ID    domain.TagID
	Name  string
	Color string
	Slug  string
}

// NewTag builds a tag and enforces the field invariants.
func NewTag(name, color, slug string) (*Tag, error) {
	t := &Tag{
		Name:  strings.TrimSpace(name),
		Color: strings.ToUpper(strings.TrimSpace(color)),
		Slug:  strings.TrimSpace(slug),
	}
	if err := t.check(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tag) check() error {
	switch {
	case t.Name == "" || utf8.RuneCountInString(t.Name) > validation.MaxNameLength:
		return dErrors.New(dErrors.CodeInvariantViolation, "name must be 1-200 characters")
	case !validation.IsHexColor(t.Color):
		return dErrors.New(dErrors.CodeInvariantViolation, "color must be a #RRGGBB color")
	case t.Slug == "" || len(t.Slug) > validation.MaxNameLength || !validation.IsSlug(t.Slug):
		return dErrors.New(dErrors.CodeInvariantViolation, "slug may contain only latin letters, digits, - and _")
	}
	return nil
}

// Ingredient is a named product with a measurement unit. The name is unique per
// unit ignoring case.
type Ingredient struct {
	ID              domain.IngredientID
	Name            string
	MeasurementUnit string
}

// NewIngredient builds an ingredient and enforces the field invariants.
func NewIngredient(name, unit string) (*Ingredient, error) {
	i := &Ingredient{
		Name:            strings.TrimSpace(name),
		MeasurementUnit: strings.TrimSpace(unit),
	}
	switch {
	case i.Name == "" || utf8.RuneCountInString(i.Name) > validation.MaxNameLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name must be 1-200 characters")
	case i.MeasurementUnit == "" || utf8.RuneCountInString(i.MeasurementUnit) > validation.MaxUnitLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "measurement_unit must be 1-20 characters")
	}
	return i, nil
}
