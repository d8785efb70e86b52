package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/classroom/internal/config"
	"github.com/deppfellow/classroom/internal/handler"
	"github.com/deppfellow/classroom/internal/lib/storage"
	"github.com/deppfellow/classroom/internal/middleware"
	"github.com/deppfellow/classroom/internal/repository/inmem"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Warnings []string        `json:"warnings"`
	Code     string          `json:"code"`
	Errors   []struct {
		Field string `json:"field"`
		Error string `json:"error"`
	} `json:"errors"`
}

type api struct {
	t    *testing.T
	echo *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()

	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost:8080/storage")
	require.NoError(t, err)

	logger := zerolog.Nop()
	srv := &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server:  config.ServerConfig{CORSAllowedOrigins: []string{"*"}},
			Auth:    config.AuthConfig{SecretKey: "0123456789abcdef0123456789abcdef", TokenTTL: time.Hour},
			Storage: config.StorageConfig{MaxUploadSize: 1 << 20},
			RateLimit: config.RateLimitConfig{
				Store: config.RateLimitStoreRedis,
			},
			App: config.AppConfig{BaseURL: "http://localhost:8080", Version: "1.0.0"},
		},
		Logger:  &logger,
		Storage: disk,
	}

	store := inmem.New()
	services := service.NewServicesWithStores(srv, service.Stores{
		Users:         store,
		Classes:       store,
		Topics:        store,
		Announcements: store,
		Comments:      store,
		Grades:        store,
		Submissions:   store,
		Sessions:      store,
	})

	middlewares := middleware.NewMiddlewares(srv, services.Auth, store)
	return &api{t: t, echo: NewRouter(srv, handler.NewHandlers(srv, services), middlewares)}
}

func (a *api) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func (a *api) json(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := a.do(req, token)
	return rec, decode(a.t, rec)
}

func (a *api) multipart(path, token string, fields map[string]string, field string, files map[string][]byte) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(a.t, w.WriteField(k, v))
	}
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(a.t, err)
		_, err = part.Write(content)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := a.do(req, token)
	return rec, decode(a.t, rec)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return env
}

func (a *api) register(name, email, role string) string {
	a.t.Helper()
	rec, env := a.json(http.MethodPost, "/api/v1/register", "", map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              "Secret123",
		"password_confirmation": "Secret123",
		"role":                  role,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func dataAs[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestSystemRoutes(t *testing.T) {
	a := newAPI(t)

	rec, _ := a.json(http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "classroom-api", health["service"])
	assert.Equal(t, "1.0.0", health["version"])

	rec, _ = a.json(http.MethodGet, "/status", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := a.json(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", env.Message)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)

	rec, env := a.json(http.MethodPost, "/api/v1/register", "", map[string]string{
		"name":     "Al",
		"email":    "not-an-email",
		"password": "weak",
		"role":     "admin",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Validation failed", env.Message)
	fields := map[string]bool{}
	for _, fe := range env.Errors {
		fields[fe.Field] = true
	}
	for _, f := range []string{"name", "email", "password", "password_confirmation", "role"} {
		assert.True(t, fields[f], "expected an error for %s", f)
	}

	token := a.register("Ibu Siti", "guru@example.com", "teacher")

	rec, _ = a.json(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = a.json(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := dataAs[map[string]any](t, env)
	assert.Equal(t, "guru@example.com", me["email"])
	assert.NotContains(t, me, "password")

	rec, env = a.json(http.MethodPost, "/api/v1/login", "", map[string]string{"email": "guru@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Wrong password", env.Message)

	rec, env = a.json(http.MethodPost, "/api/v1/login", "", map[string]string{"email": "nobody@example.com", "password": "Secret123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Email is not registered", env.Message)

	rec, env = a.json(http.MethodPost, "/api/v1/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", env.Message)

	rec, _ = a.json(http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	a := newAPI(t)
	body := map[string]string{"email": "guru@example.com", "password": "Secret123"}

	for i := 0; i < middleware.AuthPolicy.Limit; i++ {
		rec, _ := a.json(http.MethodPost, "/api/v1/login", "", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, env := a.json(http.MethodPost, "/api/v1/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Code)
}

func TestClassroomFlow(t *testing.T) {
	a := newAPI(t)
	teacher := a.register("Ibu Siti", "guru@example.com", "teacher")
	student := a.register("Andi", "murid@example.com", "student")
	outsider := a.register("Budi", "budi@example.com", "student")

	rec, _ := a.json(http.MethodPost, "/api/v1/classes", student, map[string]string{"name": "IPA", "subject": "Science"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := a.json(http.MethodPost, "/api/v1/classes", teacher, map[string]string{"name": "Matematika", "subject": "Math"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Class created successfully", env.Message)
	class := dataAs[struct {
		ID        int64  `json:"id"`
		ClassCode string `json:"class_code"`
	}](t, env)

	rec, _ = a.json(http.MethodPost, "/api/v1/classes/join", student, map[string]string{"class_code": class.ClassCode})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	classPath := fmt.Sprintf("/api/v1/classes/%d", class.ID)
	rec, _ = a.json(http.MethodGet, classPath, outsider, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = a.multipart(classPath+"/announcements", teacher, map[string]string{
		"type":  "assignment",
		"title": "Tugas 1",
	}, "attachments", map[string][]byte{"soal.pdf": pdfContent})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ann := dataAs[struct {
		ID          int64 `json:"id"`
		Attachments []struct {
			FilePath string `json:"file_path"`
			URL      string `json:"url"`
		} `json:"attachments"`
	}](t, env)
	require.Len(t, ann.Attachments, 1)

	publicURL, err := url.Parse(ann.Attachments[0].URL)
	require.NoError(t, err)
	rec = a.do(httptest.NewRequest(http.MethodGet, publicURL.Path, nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pdfContent, rec.Body.Bytes())

	filename := strings.TrimPrefix(ann.Attachments[0].FilePath, storage.AttachmentsDir+"/")
	rec = a.do(httptest.NewRequest(http.MethodGet, "/api/v1/attachments/"+filename, nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, pdfContent, rec.Body.Bytes())

	rec, env = a.json(http.MethodGet, "/api/v1/attachments/missing.pdf", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found", env.Message)

	annPath := fmt.Sprintf("%s/announcements/%d", classPath, ann.ID)

	rec, env = a.json(http.MethodGet, annPath+"/my-grade", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(env.Data))
	assert.NotEmpty(t, env.Message)

	rec, env = a.json(http.MethodGet, annPath+"/submissions/me", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(env.Data))

	rec, env = a.multipart(annPath+"/submissions", student, map[string]string{"text_content": "Jawaban"}, "attachments", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Assignment submitted", env.Message)

	rec, env = a.json(http.MethodGet, annPath+"/submissions", teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := dataAs[struct {
		TotalStudents     int `json:"total_students"`
		SubmittedCount    int `json:"submitted_count"`
		NotSubmittedCount int `json:"not_submitted_count"`
	}](t, env)
	assert.Equal(t, 1, list.TotalStudents)
	assert.Equal(t, 1, list.SubmittedCount)
	assert.Equal(t, 0, list.NotSubmittedCount)

	rec, env = a.json(http.MethodGet, "/api/v1/me", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	studentID := dataAs[struct {
		ID int64 `json:"id"`
	}](t, env).ID

	rec, env = a.json(http.MethodPost, annPath+"/grades/batch", teacher, map[string]any{
		"grades": []map[string]any{
			{"student_id": studentID, "score": 88.5},
			{"student_id": studentID + 1000, "score": 70},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1 grades saved", env.Message)
	assert.Len(t, env.Warnings, 1)

	rec, env = a.json(http.MethodGet, annPath+"/my-grade", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	grade := dataAs[struct {
		Score float64 `json:"score"`
	}](t, env)
	assert.Equal(t, 88.5, grade.Score)

	rec = a.do(httptest.NewRequest(http.MethodGet, annPath+"/grades/export", nil), teacher)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), fmt.Sprintf("grades_%d.xlsx", ann.ID))

	rec, env = a.json(http.MethodDelete, classPath, teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Class deleted successfully", env.Message)

	rec, env = a.json(http.MethodGet, classPath, teacher, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Class not found", env.Message)
}
