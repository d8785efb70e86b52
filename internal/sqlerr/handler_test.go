package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/classroom/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %T", err)
	return httpErr
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "unique email",
			err:     &pgconn.PgError{Code: "23505", TableName: "users", ConstraintName: "users_email_key"},
			status:  http.StatusBadRequest,
			code:    "USER_ALREADY_EXISTS",
			message: "A user with this Email already exists",
		},
		{
			name:    "duplicate grade",
			err:     fmt.Errorf("insert grade: %w", &pgconn.PgError{Code: "23505", TableName: "grades", ConstraintName: "grades_announcement_student_key"}),
			status:  http.StatusBadRequest,
			code:    "GRADE_ALREADY_EXISTS",
			message: "This grade already exists",
		},
		{
			name:    "missing class reference",
			err:     &pgconn.PgError{Code: "23503", TableName: "topics", ColumnName: "class_id"},
			status:  http.StatusBadRequest,
			code:    "TOPIC_NOT_FOUND",
			message: "The referenced class does not exist",
		},
		{
			name:    "score out of range",
			err:     &pgconn.PgError{Code: "23514", TableName: "grades", ColumnName: "score"},
			status:  http.StatusBadRequest,
			code:    "GRADE_INVALID",
			message: "The Score value does not meet required conditions",
		},
		{
			name:   "no rows",
			err:    fmt.Errorf("get class: %w", pgx.ErrNoRows),
			status: http.StatusNotFound,
		},
		{
			name:   "unknown",
			err:    errors.New("connection reset"),
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := asHTTPError(t, HandleError(tt.err))
			assert.Equal(t, tt.status, httpErr.Status)
			if tt.code != "" {
				assert.Equal(t, tt.code, httpErr.Code)
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, httpErr.Message)
			}
		})
	}
}

func TestHandleErrorKeepsHTTPErrors(t *testing.T) {
	original := errs.NewForbiddenError("Forbidden", true)
	assert.Same(t, original, HandleError(fmt.Errorf("wrapped: %w", original)))
}

func TestNotNullViolationReportsField(t *testing.T) {
	httpErr := asHTTPError(t, HandleError(&pgconn.PgError{Code: "23502", TableName: "classes", ColumnName: "name"}))
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "name", httpErr.Errors[0].Field)
	assert.Equal(t, "CLASS_REQUIRED", httpErr.Code)
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "submissions_announcement_student_key"})

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "submissions_announcement_student_key"))
	assert.False(t, IsUniqueViolation(err, "users_email_key"))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
	assert.Equal(t, UniqueViolation, ErrCode(err))
}
