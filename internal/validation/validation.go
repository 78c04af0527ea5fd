// Package validation wraps go-playground/validator with JSON field naming
// and the project's custom tags. Every request body is validated before any
// side effect.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("ifsc", func(fl validator.FieldLevel) bool {
		return ifscPattern.MatchString(fl.Field().String())
	})

	validate.RegisterValidation("txkind", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "purchase", "sell":
			return true
		}
		return false
	})
}

// Validate checks a struct and returns a field -> message map, or nil when
// the value is valid.
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "ifsc":
			errors[field] = "Invalid bank code format"
		case "txkind":
			errors[field] = "Must be purchase or sell"
		default:
			errors[field] = "Invalid value"
		}
	}
	return errors
}
