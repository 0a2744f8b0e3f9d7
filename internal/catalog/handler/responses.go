package handler

import (
	"foodgram/internal/catalog/models"
	"foodgram/pkg/domain"
)

type TagResponse struct {
	ID    domain.TagID `json:"id"`
	Name  string       `json:"name"`
	Color string       `json:"color"`
	Slug  string       `json:"slug"`
}

type IngredientResponse struct {
	ID              domain.IngredientID `json:"id"`
	Name            string              `json:"name"`
	MeasurementUnit string              `json:"measurement_unit"`
}

func toTagResponse(t *models.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func toIngredientResponse(i *models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}
