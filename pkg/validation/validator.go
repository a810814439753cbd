// Package validation wraps go-playground/validator with the rules the fact
// form needs: length limits, http(s) source URLs and membership in the live
// category table.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
)

// Validator validates form structs against struct tags.
type Validator struct {
	validate   *validator.Validate
	categories *valueobjects.CategoryTable
}

// New creates a validator whose `category` tag checks membership in categories.
func New(categories *valueobjects.CategoryTable) *Validator {
	v := &Validator{
		validate:   validator.New(),
		categories: categories,
	}

	// Use JSON tag names in error messages
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return v.categories.Contains(fl.Field().String())
	})

	return v
}

// Struct validates s and returns a ValidationFailed error describing the
// first violated rule.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperrors.NewValidation(describe(fieldErrs[0]))
	}
	return apperrors.NewValidation(err.Error())
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "http_url":
		return fmt.Sprintf("%s must be a valid http or https URL", field)
	case "category":
		return fmt.Sprintf("%s must be one of the listed categories", field)
	default:
		return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
	}
}

var (
	urlValidator     *validator.Validate
	urlValidatorOnce sync.Once
)

// IsValidHTTPURL reports whether s parses as an http or https URL.
func IsValidHTTPURL(s string) bool {
	urlValidatorOnce.Do(func() {
		urlValidator = validator.New()
	})
	return urlValidator.Var(s, "required,http_url") == nil
}
