package service

import (
	"context"
	"errors"
	"io"

	"github.com/deppfellow/classroom/internal/lib/storage"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/gabriel-vasile/mimetype"
)

// Download is a file read from the public disk.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
}

type AttachmentService struct {
	server *server.Server
}

func NewAttachmentService(s *server.Server) *AttachmentService {
	return &AttachmentService{server: s}
}

// Download reads attachments/<filename>. Names that are not a single path
// element are reported as missing.
func (a *AttachmentService) Download(ctx context.Context, filename string) (*Download, error) {
	logger := loggerFrom(ctx, a.server.Logger)

	key, err := storage.Key(storage.AttachmentsDir, filename)
	if err != nil {
		logger.Warn().Str("file_name", filename).Msg("rejected attachment download")
		return nil, errFileNotFound
	}

	r, err := a.server.Storage.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrInvalidKey) {
			logger.Info().Str("file_path", key).Msg("attachment not found")
			return nil, errFileNotFound
		}
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return &Download{
		Name:        filename,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}
