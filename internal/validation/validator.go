// Package validation binds request payloads and turns validator failures
// into field-level API errors.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var emailFormat = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

// Validator returns the process-wide validator with the custom tags
// registered. Field names are reported by their json (or form) names.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)

		_ = validate.RegisterValidation("strong_password", strongPassword)
		_ = validate.RegisterValidation("email_format", func(fl validator.FieldLevel) bool {
			return emailFormat.MatchString(fl.Field().String())
		})

		english := en.New()
		translator, _ = ut.New(english, english).GetTranslator("en")
		_ = entranslations.RegisterDefaultTranslations(validate, translator)
	})
	return validate
}

// Struct validates s against its struct tags.
func Struct(s any) error {
	return Validator().Struct(s)
}

func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form", "param", "query"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

// strongPassword requires at least one lowercase letter, one uppercase
// letter and one digit.
func strongPassword(fl validator.FieldLevel) bool {
	var lower, upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
