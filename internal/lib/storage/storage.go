// Package storage implements the public disk uploaded files are written to.
//
// Two drivers exist: a local directory served by the API itself, and a
// Backblaze B2 bucket. Keys are slash separated paths such as
// "attachments/1700000000_ab12cd34_notes.pdf".
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/deppfellow/classroom/internal/config"
)

const (
	AttachmentsDir = "attachments"
	SubmissionsDir = "submissions"
)

var (
	ErrNotExist   = errors.New("storage: object does not exist")
	ErrInvalidKey = errors.New("storage: invalid object key")
)

// Disk stores and serves public files.
type Disk interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New returns the Disk selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Disk, error) {
	switch cfg.Driver {
	case config.StorageDriverB2:
		return NewB2Disk(ctx, cfg)
	case config.StorageDriverLocal, "":
		return NewLocalDisk(cfg.Root, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// CleanKey normalizes key and rejects anything escaping the disk root.
func CleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") || strings.ContainsRune(key, 0) {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// Key joins dir and a bare file name, rejecting names with separators.
func Key(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return "", ErrInvalidKey
	}
	return CleanKey(dir + "/" + name)
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
