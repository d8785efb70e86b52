// Package errs defines the error envelope returned by the API.
//
// Every failure leaves the service as an *HTTPError so clients always
// receive the same JSON shape: success=false, a machine code, a message and,
// for validation failures, the offending fields.
package errs

import "strings"

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ActionType string

const (
	ActionTypeRedirect ActionType = "redirect"
)

// Action is an optional hint for the client, e.g. where to redirect.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is both a Go error and the JSON body of a failed request.
//
// Override marks messages that are safe to show to end users verbatim.
type HTTPError struct {
	Success  bool         `json:"success"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Status   int          `json:"status"`
	Override bool         `json:"override"`
	Errors   []FieldError `json:"errors,omitempty"`
	Action   *Action      `json:"action,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches an *HTTPError with the same status and code. Messages are
// ignored so a WithMessage copy still matches its base error.
func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	return ok && t.Status == e.Status && t.Code == e.Code
}

// WithMessage returns a copy carrying a different message.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	clone := *e
	clone.Message = message
	return &clone
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
