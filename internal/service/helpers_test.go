package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deppfellow/classroom/internal/config"
	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/lib/storage"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/repository/inmem"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var pdfContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type fixture struct {
	ctx      context.Context
	store    *inmem.Store
	disk     *storage.LocalDisk
	services *Services

	teacher  *model.User
	student  *model.User
	outsider *model.User
	class    *model.ClassRoom
}

func newTestServer(t *testing.T) (*server.Server, *storage.LocalDisk) {
	t.Helper()

	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost:8080/storage")
	require.NoError(t, err)

	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Auth:    config.AuthConfig{SecretKey: "0123456789abcdef0123456789abcdef", TokenTTL: time.Hour},
			Storage: config.StorageConfig{MaxUploadSize: 1 << 20},
			App:     config.AppConfig{BaseURL: "http://localhost:8080"},
		},
		Logger:  &logger,
		Storage: disk,
	}, disk
}

// newFixture builds the services over an in-memory store with a teacher, an
// enrolled student, a student outside the class and one class.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	srv, disk := newTestServer(t)
	store := inmem.New()
	services := NewServicesWithStores(srv, Stores{
		Users:         store,
		Classes:       store,
		Topics:        store,
		Announcements: store,
		Comments:      store,
		Grades:        store,
		Submissions:   store,
		Sessions:      store,
	})
	services.Auth.hashCost = bcrypt.MinCost

	f := &fixture{ctx: context.Background(), store: store, disk: disk, services: services}
	f.teacher = f.user(t, "Bu Guru", "guru@example.com", model.RoleTeacher)
	f.student = f.user(t, "Murid", "murid@example.com", model.RoleStudent)
	f.outsider = f.user(t, "Tamu", "tamu@example.com", model.RoleStudent)

	class, err := services.Class.Create(f.ctx, f.teacher, &model.CreateClassRequest{Name: "Matematika", Subject: "Math"})
	require.NoError(t, err)
	f.class = class

	_, err = services.Class.Join(f.ctx, f.student, &model.JoinClassRequest{ClassCode: class.ClassCode})
	require.NoError(t, err)

	return f
}

func (f *fixture) user(t *testing.T, name, email string, role model.Role) *model.User {
	t.Helper()

	user, err := f.store.CreateUser(f.ctx, &model.User{Name: name, Email: email, Password: "x", Role: role})
	require.NoError(t, err)
	return user
}

func (f *fixture) announcement(t *testing.T, kind model.AnnouncementType, due *time.Time) *model.Announcement {
	t.Helper()

	ann, err := f.services.Announcement.Create(f.ctx, f.teacher, &model.CreateAnnouncementRequest{
		ClassID: f.class.ID,
		Type:    kind,
		Title:   "Tugas 1",
		DueDate: due,
	})
	require.NoError(t, err)
	return ann
}

// stored lists the keys written under dir on the test disk.
func (f *fixture) stored(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(filepath.Join(f.disk.Root(), dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)

	var keys []string
	for _, e := range entries {
		keys = append(keys, dir+"/"+e.Name())
	}
	return keys
}

// uploads builds multipart file headers the way echo hands them to binders.
func uploads(t *testing.T, field string, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File[field]
}

func requireHTTPError(t *testing.T, err error, status int) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, status, httpErr.Status, httpErr.Message)
	return httpErr
}
