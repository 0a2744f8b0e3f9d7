package models

import (
	"fmt"
	"strings"

	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	pstrings "foodgram/pkg/platform/strings"
	"foodgram/pkg/platform/validation"
)

// IngredientAmountRequest is one entry of the ingredients payload.
type IngredientAmountRequest struct {
	ID     domain.IngredientID `json:"id"`
	Amount int                 `json:"amount"`
}

// CreateRecipeRequest is the payload for a new recipe. Image is a base64 data URI.
type CreateRecipeRequest struct {
	Ingredients []IngredientAmountRequest `json:"ingredients"`
	Tags        []domain.TagID            `json:"tags"`
	Image       string                    `json:"image" validate:"required"`
	Name        string                    `json:"name" validate:"required,max=200"`
	Text        string                    `json:"text" validate:"required"`
	CookingTime int                       `json:"cooking_time" validate:"gte=1,lte=32000"`
}

func (r *CreateRecipeRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Image = strings.TrimSpace(r.Image)
	if strings.TrimSpace(r.Text) == "" {
		r.Text = ""
	}
}

func (r *CreateRecipeRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	return joinProblems(checkTags(r.Tags), checkIngredients(r.Ingredients))
}

// Amounts converts the payload into stored ingredient rows.
func (r *CreateRecipeRequest) Amounts() []IngredientAmount {
	return toAmounts(r.Ingredients)
}

// UpdateRecipeRequest patches a recipe. Present tags or ingredients replace the
// old set wholesale.
type UpdateRecipeRequest struct {
	Ingredients *[]IngredientAmountRequest `json:"ingredients"`
	Tags        *[]domain.TagID            `json:"tags"`
	Image       *string                    `json:"image" validate:"omitempty,min=1"`
	Name        *string                    `json:"name" validate:"omitempty,min=1,max=200"`
	Text        *string                    `json:"text" validate:"omitempty,min=1"`
	CookingTime *int                       `json:"cooking_time" validate:"omitempty,gte=1,lte=32000"`
}

func (r *UpdateRecipeRequest) Normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
	if r.Image != nil {
		image := strings.TrimSpace(*r.Image)
		r.Image = &image
	}
}

func (r *UpdateRecipeRequest) Validate() error {
	if r.Ingredients == nil && r.Tags == nil && r.Image == nil && r.Name == nil && r.Text == nil && r.CookingTime == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field is required")
	}
	var problems []string
	if r.Name != nil && *r.Name == "" {
		problems = append(problems, "name may not be blank")
	}
	if r.Image != nil && *r.Image == "" {
		problems = append(problems, "image may not be blank")
	}
	if r.Text != nil && strings.TrimSpace(*r.Text) == "" {
		problems = append(problems, "text may not be blank")
	}
	if r.CookingTime != nil && (*r.CookingTime < validation.MinCookingTime || *r.CookingTime > validation.MaxCookingTime) {
		problems = append(problems, "cooking_time must be between 1 and 32000")
	}
	if len(problems) > 0 {
		return dErrors.New(dErrors.CodeValidation, strings.Join(problems, "; "))
	}
	if err := validation.Struct(r); err != nil {
		return err
	}
	var tagsErr, ingredientsErr []string
	if r.Tags != nil {
		tagsErr = checkTags(*r.Tags)
	}
	if r.Ingredients != nil {
		ingredientsErr = checkIngredients(*r.Ingredients)
	}
	return joinProblems(tagsErr, ingredientsErr)
}

// Apply copies the requested fields onto recipe. The image is handled by the
// caller since it has to be stored first.
func (r *UpdateRecipeRequest) Apply(recipe *Recipe) {
	if r.Name != nil {
		recipe.Name = *r.Name
	}
	if r.Text != nil {
		recipe.Text = *r.Text
	}
	if r.CookingTime != nil {
		recipe.CookingTime = *r.CookingTime
	}
	if r.Tags != nil {
		recipe.TagIDs = append([]domain.TagID(nil), (*r.Tags)...)
	}
	if r.Ingredients != nil {
		recipe.Ingredients = toAmounts(*r.Ingredients)
	}
}

func checkTags(tags []domain.TagID) []string {
	if len(tags) == 0 {
		return []string{"tags: at least one tag is required"}
	}
	var problems []string
	if len(tags) > validation.MaxRecipeTags {
		problems = append(problems, fmt.Sprintf("tags: at most %d tags are allowed", validation.MaxRecipeTags))
	}
	if dups := pstrings.Duplicates(tags); len(dups) > 0 {
		problems = append(problems, "tags: duplicate tags "+pstrings.Join(dups))
	}
	return problems
}

func checkIngredients(items []IngredientAmountRequest) []string {
	if len(items) == 0 {
		return []string{"ingredients: at least one ingredient is required"}
	}
	var problems []string
	if len(items) > validation.MaxRecipeIngredients {
		problems = append(problems, fmt.Sprintf("ingredients: at most %d ingredients are allowed", validation.MaxRecipeIngredients))
	}
	ids := make([]domain.IngredientID, len(items))
	var badAmount []domain.IngredientID
	for i, item := range items {
		ids[i] = item.ID
		if item.Amount < validation.MinIngredientAmount || item.Amount > validation.MaxIngredientAmount {
			badAmount = append(badAmount, item.ID)
		}
	}
	if dups := pstrings.Duplicates(ids); len(dups) > 0 {
		problems = append(problems, "ingredients: duplicate ingredients "+pstrings.Join(dups))
	}
	if len(badAmount) > 0 {
		problems = append(problems, "ingredients: amount must be between 1 and 32000 for ingredients "+pstrings.Join(badAmount))
	}
	return problems
}

func joinProblems(groups ...[]string) error {
	var all []string
	for _, g := range groups {
		all = append(all, g...)
	}
	if len(all) == 0 {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(all, "; "))
}

func toAmounts(items []IngredientAmountRequest) []IngredientAmount {
	out := make([]IngredientAmount, len(items))
	for i, item := range items {
		out[i] = IngredientAmount{IngredientID: item.ID, Amount: item.Amount}
	}
	return out
}
