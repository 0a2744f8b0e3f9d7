package models

import (
	"strings"

	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/validation"
)

// CreateTagRequest is the payload for a new tag.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor6"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

func (r *CreateTagRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Color = strings.ToUpper(strings.TrimSpace(r.Color))
	r.Slug = strings.TrimSpace(r.Slug)
}

func (r *CreateTagRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateTagRequest patches a tag. Absent fields are left unchanged.
type UpdateTagRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=200"`
	Color *string `json:"color" validate:"omitempty,hexcolor6"`
	Slug  *string `json:"slug" validate:"omitempty,min=1,max=200,slug"`
}

func (r *UpdateTagRequest) Normalize() {
	trim := func(p *string, upper bool) {
		if p == nil {
			return
		}
		*p = strings.TrimSpace(*p)
		if upper {
			*p = strings.ToUpper(*p)
		}
	}
	trim(r.Name, false)
	trim(r.Color, true)
	trim(r.Slug, false)
}

func (r *UpdateTagRequest) Validate() error {
	if r.Name == nil && r.Color == nil && r.Slug == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one of name, color or slug is required")
	}
	if r.Name != nil && *r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name may not be blank")
	}
	return validation.Struct(r)
}

// Apply copies the present fields onto t.
func (r *UpdateTagRequest) Apply(t *Tag) error {
	if r.Name != nil {
		t.Name = *r.Name
	}
	if r.Color != nil {
		t.Color = *r.Color
	}
	if r.Slug != nil {
		t.Slug = *r.Slug
	}
	return t.check()
}

// CreateIngredientRequest is the payload for a new ingredient.
type CreateIngredientRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=20"`
}

func (r *CreateIngredientRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.MeasurementUnit = strings.TrimSpace(r.MeasurementUnit)
}

func (r *CreateIngredientRequest) Validate() error {
	return validation.Struct(r)
}
