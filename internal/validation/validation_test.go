package validation

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/classroom/internal/errs"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Name                 string `json:"name" validate:"required,min=3,max=255"`
	Email                string `json:"email" validate:"required,max=255,email_format"`
	Password             string `json:"password" validate:"required,min=8,strong_password"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 string `json:"role" validate:"required,oneof=teacher student"`
}

func (r *signupRequest) Validate() error {
	return Struct(r)
}

func (r *signupRequest) Messages() map[string]string {
	return map[string]string{"role.oneof": "Role must be teacher or student"}
}

type scoreItem struct {
	StudentID int64    `json:"student_id" validate:"required"`
	Score     *float64 `json:"score" validate:"required,gte=0,lte=100"`
}

type batchRequest struct {
	AnnouncementID int64       `param:"announcementId" json:"-"`
	Grades         []scoreItem `json:"grades" validate:"required,min=1,dive"`
}

func (r *batchRequest) Validate() error {
	return Struct(r)
}

func newContext(body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func httpError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	return httpErr
}

func fieldMessages(httpErr *errs.HTTPError) map[string]string {
	result := map[string]string{}
	for _, fe := range httpErr.Errors {
		result[fe.Field] = fe.Error
	}
	return result
}

func TestBindAndValidate(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		req := &signupRequest{}
		err := BindAndValidate(newContext(`{"name":"Budi","email":"budi@example.com","password":"Secret123","password_confirmation":"Secret123","role":"student"}`), req)
		require.NoError(t, err)
		assert.Equal(t, "budi@example.com", req.Email)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		err := BindAndValidate(newContext(`{"name":`), &signupRequest{})
		assert.Equal(t, http.StatusBadRequest, httpError(t, err).Status)
	})

	t.Run("rule violations are unprocessable", func(t *testing.T) {
		err := BindAndValidate(newContext(`{"name":"Bu","email":"not-an-email","password":"weakpassword","password_confirmation":"other","role":"admin"}`), &signupRequest{})

		httpErr := httpError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
		assert.Equal(t, "Validation failed", httpErr.Message)

		messages := fieldMessages(httpErr)
		assert.Equal(t, "The name field must be at least 3 characters", messages["name"])
		assert.Equal(t, "The email field must be a valid email address", messages["email"])
		assert.Equal(t, "The password must contain an uppercase letter, a lowercase letter and a number", messages["password"])
		assert.Contains(t, messages, "password_confirmation")
		assert.Equal(t, "Role must be teacher or student", messages["role"])
	})

	t.Run("nested fields keep their index", func(t *testing.T) {
		err := BindAndValidate(newContext(`{"grades":[{"student_id":3,"score":120}]}`), &batchRequest{})

		messages := fieldMessages(httpError(t, err))
		assert.Equal(t, "The score field must not exceed 100", messages["grades[0].score"])
	})

	t.Run("empty list", func(t *testing.T) {
		err := BindAndValidate(newContext(`{"grades":[]}`), &batchRequest{})

		messages := fieldMessages(httpError(t, err))
		assert.Equal(t, "The grades field must have at least 1 items", messages["grades"])
	})
}

func TestValidationErrorCustom(t *testing.T) {
	err := ValidationError(CustomValidationErrors{{Field: "topic_id", Message: "Topic not found"}}, nil)

	httpErr := httpError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
	assert.Equal(t, []errs.FieldError{{Field: "topic_id", Error: "Topic not found"}}, httpErr.Errors)
}

func TestValidationErrorPassesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	assert.Same(t, boom, ValidationError(boom, nil))
}

type uploadRequest struct {
	Title string                  `form:"title" validate:"required"`
	Files []*multipart.FileHeader `form:"-"`
}

func (r *uploadRequest) Validate() error {
	return Struct(r)
}

func (r *uploadRequest) BindFiles(form *multipart.Form) {
	r.Files = form.File["attachments"]
}

func TestBindAndValidateMultipart(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Tugas 1"))
	for _, name := range []string{"a.pdf", "b.pdf"} {
		part, err := w.CreateFormFile("attachments", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	c := echo.New().NewContext(req, httptest.NewRecorder())

	payload := &uploadRequest{}
	require.NoError(t, BindAndValidate(c, payload))
	assert.Equal(t, "Tugas 1", payload.Title)
	require.Len(t, payload.Files, 2)
	assert.Equal(t, "a.pdf", payload.Files[0].Filename)
}
