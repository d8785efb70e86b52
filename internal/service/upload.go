package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/lib/storage"
	"github.com/deppfellow/classroom/internal/lib/utils"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

var allowedExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true,
	"ppt": true, "pptx": true,
	"jpg": true, "jpeg": true, "png": true,
	"zip": true, "rar": true,
}

// uploader validates multipart files and writes them to the public disk.
type uploader struct {
	server *server.Server
	now    func() time.Time
}

func newUploader(s *server.Server) *uploader {
	return &uploader{server: s, now: time.Now}
}

// validate checks size and extension of every file. field names the form
// field, indexed as "field.N" when several files were sent.
func (u *uploader) validate(field string, files []*multipart.FileHeader, indexed bool) error {
	maxSize := u.server.Config.Storage.MaxUploadSize
	var fieldErrors []errs.FieldError

	for i, fh := range files {
		name := field
		if indexed {
			name = fmt.Sprintf("%s.%d", field, i)
		}
		if fh.Size > maxSize {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: name,
				Error: fmt.Sprintf("The file may not be greater than %d kilobytes", maxSize>>10),
			})
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), ".")
		if !allowedExtensions[ext] {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: name,
				Error: "The file must be a file of type: pdf, doc, docx, xls, xlsx, ppt, pptx, jpg, jpeg, png, zip, rar",
			})
		}
	}

	if len(fieldErrors) > 0 {
		return errs.ValidationError(fieldErrors...)
	}
	return nil
}

// store writes fh under dir and describes the stored object.
func (u *uploader) store(ctx context.Context, dir string, fh *multipart.FileHeader) (model.StoredFile, error) {
	src, err := fh.Open()
	if err != nil {
		return model.StoredFile{}, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	contentType := "application/octet-stream"
	if detected, err := mimetype.DetectReader(src); err == nil {
		contentType = detected.String()
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return model.StoredFile{}, fmt.Errorf("rewinding upload %s: %w", fh.Filename, err)
	}

	key, err := storage.Key(dir, utils.StoredFileName(fh.Filename, u.now()))
	if err != nil {
		return model.StoredFile{}, err
	}
	if err := u.server.Storage.Put(ctx, key, src, fh.Size, contentType); err != nil {
		return model.StoredFile{}, err
	}

	return model.StoredFile{
		FileName: path.Base(strings.ReplaceAll(fh.Filename, "\\", "/")),
		FilePath: key,
		FileType: contentType,
		FileSize: fh.Size,
	}, nil
}

// storeAll stores every file, logging and skipping the ones that fail.
func (u *uploader) storeAll(ctx context.Context, logger *zerolog.Logger, dir string, files []*multipart.FileHeader) []model.StoredFile {
	stored := make([]model.StoredFile, 0, len(files))
	for _, fh := range files {
		file, err := u.store(ctx, dir, fh)
		if err != nil {
			logger.Error().Err(err).Str("file_name", fh.Filename).Msg("file upload failed, skipping")
			continue
		}
		stored = append(stored, file)
	}
	return stored
}

// remove deletes stored objects, logging failures.
func (u *uploader) remove(ctx context.Context, logger *zerolog.Logger, keys ...string) {
	for _, key := range keys {
		if err := u.server.Storage.Delete(ctx, key); err != nil {
			logger.Error().Err(err).Str("file_path", key).Msg("failed to delete stored file")
		}
	}
}

func (u *uploader) url(key string) string {
	return u.server.Storage.URL(key)
}
