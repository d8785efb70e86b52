package validation

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"

	"github.com/deppfellow/classroom/internal/errs"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by every request payload.
type Validatable interface {
	Validate() error
}

// MessageProvider lets a payload override the message of a failed rule.
// Keys are "<field>.<tag>", e.g. "email.required".
type MessageProvider interface {
	Messages() map[string]string
}

// FileBinder is implemented by payloads that accept multipart uploads.
type FileBinder interface {
	BindFiles(form *multipart.Form)
}

// CustomValidationError is a failure no struct tag can express.
type CustomValidationError struct {
	Field   string
	Message string
}

type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate binds the request into payload and validates it.
// Malformed bodies yield a 400, rule violations a 422.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError(bindErrorMessage(err), false, nil, nil, nil)
	}

	if binder, ok := payload.(FileBinder); ok && strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return errs.NewBadRequestError("Invalid multipart form", false, nil, nil, nil)
		}
		binder.BindFiles(form)
	}

	if err := payload.Validate(); err != nil {
		var messages map[string]string
		if provider, ok := payload.(MessageProvider); ok {
			messages = provider.Messages()
		}
		return ValidationError(err, messages)
	}

	return nil
}

func bindErrorMessage(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if message, ok := httpErr.Message.(string); ok && message != "" {
			if httpErr.Code == http.StatusUnsupportedMediaType {
				return "Unsupported content type"
			}
			return message
		}
	}
	return "Invalid request body"
}

// ValidationError converts the error returned by Validate into a 422.
// Errors of any other type are passed through untouched.
func ValidationError(err error, messages map[string]string) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return errs.ValidationError(fieldErrors(validationErrors, messages)...)
	}

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		result := make([]errs.FieldError, 0, len(custom))
		for _, e := range custom {
			result = append(result, errs.FieldError{Field: e.Field, Error: e.Message})
		}
		return errs.ValidationError(result...)
	}

	return err
}

func fieldErrors(validationErrors validator.ValidationErrors, messages map[string]string) []errs.FieldError {
	result := make([]errs.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fieldPath(fe.Namespace())
		result = append(result, errs.FieldError{
			Field: field,
			Error: message(fe, field, messages),
		})
	}
	return result
}

// fieldPath drops the struct name from a namespace such as
// "BatchGradeRequest.grades[0].score".
func fieldPath(namespace string) string {
	if _, rest, found := strings.Cut(namespace, "."); found {
		return rest
	}
	return namespace
}

func message(fe validator.FieldError, field string, messages map[string]string) string {
	if msg, ok := messages[field+"."+fe.Tag()]; ok {
		return msg
	}
	// Overrides for list items are keyed by the unindexed path.
	if msg, ok := messages[unindexed(field)+"."+fe.Tag()]; ok {
		return msg
	}

	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required", label(fe.Field()))
	case "min", "gte":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("The %s field must have at least %s items", label(fe.Field()), fe.Param())
		}
		if isString {
			return fmt.Sprintf("The %s field must be at least %s characters", label(fe.Field()), fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s", label(fe.Field()), fe.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf("The %s field must not exceed %s characters", label(fe.Field()), fe.Param())
		}
		return fmt.Sprintf("The %s field must not exceed %s", label(fe.Field()), fe.Param())
	case "oneof":
		return fmt.Sprintf("The %s field must be one of: %s", label(fe.Field()), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email", "email_format":
		return fmt.Sprintf("The %s field must be a valid email address", label(fe.Field()))
	case "eqfield":
		return fmt.Sprintf("The %s field must match %s", label(fe.Field()), strings.ToLower(fe.Param()))
	case "strong_password":
		return fmt.Sprintf("The %s must contain an uppercase letter, a lowercase letter and a number", label(fe.Field()))
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s", label(fe.Field()), fe.Param())
	}

	if translated := fe.Translate(translator); translated != "" {
		return translated
	}
	return fmt.Sprintf("The %s field is invalid", label(fe.Field()))
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func unindexed(field string) string {
	var b strings.Builder
	depth := 0
	for _, r := range field {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
