// Package validation wraps go-playground/validator with the field limits of the
// recipe domain and translates failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	dErrors "foodgram/pkg/domain-errors"
)

// Field limits shared by request DTOs and domain constructors.
const (
	MaxNameLength        = 200
	MaxUnitLength        = 20
	MaxEmailLength       = 254
	MaxUsernameLength    = 150
	MaxPersonNameLength  = 150
	MinPasswordLength    = 8
	MaxPasswordLength    = 72
	MinCookingTime       = 1
	MaxCookingTime       = 32000
	MinIngredientAmount  = 1
	MaxIngredientAmount  = 32000
	MaxRecipeIngredients = 100
	MaxRecipeTags        = 20
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	colorPattern    = regexp.MustCompile(`^#[A-Fa-f0-9]{6}$`)
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
			return colorPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates v against its `validate` tags.
// Returns a CodeValidation domain error listing every failing field.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "username":
		return field + " may contain only letters, digits and @/./+/-/_"
	case "slug":
		return field + " may contain only latin letters, digits, - and _"
	case "hexcolor6":
		return field + " must be a #RRGGBB color"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// IsSlug reports whether s is a valid tag slug.
func IsSlug(s string) bool { return slugPattern.MatchString(s) }

// IsHexColor reports whether s is a #RRGGBB color.
func IsHexColor(s string) bool { return colorPattern.MatchString(s) }

// IsUsername reports whether s is a valid username.
func IsUsername(s string) bool { return usernamePattern.MatchString(s) }
