package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/deppfellow/classroom/internal/config"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"
)

// B2Disk stores files in a public Backblaze B2 bucket.
type B2Disk struct {
	client  *b2.Client
	bucket  *b2.Bucket
	baseURL string
}

func NewB2Disk(ctx context.Context, cfg config.StorageConfig) (*B2Disk, error) {
	client, err := b2.NewClient(ctx, cfg.B2AccountID, cfg.B2ApplicationKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create b2 client")
	}

	bucket, err := client.Bucket(ctx, cfg.B2Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get bucket %s", cfg.B2Bucket)
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s/file/%s", bucket.BaseURL(), bucket.Name())
	}

	return &B2Disk{client: client, bucket: bucket, baseURL: baseURL}, nil
}

func (d *B2Disk) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}

	w := d.bucket.Object(key).NewWriter(ctx).WithAttrs(&b2.Attrs{ContentType: contentType})
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return errors.Wrapf(err, "failed to write object %s", key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "failed to close writer for %s", key)
	}
	return nil
}

func (d *B2Disk) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}

	obj := d.bucket.Object(key)
	if _, err := obj.Attrs(ctx); err != nil {
		if b2.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, errors.Wrapf(err, "failed to stat object %s", key)
	}
	return obj.NewReader(ctx), nil
}

func (d *B2Disk) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := d.bucket.Object(key).Delete(ctx); err != nil && !b2.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete object %s", key)
	}
	return nil
}

func (d *B2Disk) URL(key string) string {
	return publicURL(d.baseURL, key)
}
