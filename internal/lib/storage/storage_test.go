package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "attachments/notes.pdf", want: "attachments/notes.pdf"},
		{key: "/submissions/a.png", want: "submissions/a.png"},
		{key: "attachments/../../etc/passwd", wantErr: true},
		{key: "../secret", wantErr: true},
		{key: "attachments\\evil", wantErr: true},
		{key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := CleanKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyRejectsSeparators(t *testing.T) {
	key, err := Key(AttachmentsDir, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "attachments/report.pdf", key)

	for _, name := range []string{"../report.pdf", "a/b.pdf", "..", ""} {
		_, err := Key(AttachmentsDir, name)
		assert.ErrorIs(t, err, ErrInvalidKey, name)
	}
}

func TestLocalDisk(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	disk, err := NewLocalDisk(root, "http://localhost:8080/storage/")
	require.NoError(t, err)

	key := "attachments/1700000000_abc_notes.txt"
	require.NoError(t, disk.Put(ctx, key, strings.NewReader("hello"), 5, "text/plain"))

	_, err = os.Stat(filepath.Join(root, "attachments", "1700000000_abc_notes.txt"))
	require.NoError(t, err)

	rc, err := disk.Open(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(body))

	assert.Equal(t, "http://localhost:8080/storage/"+key, disk.URL(key))

	require.NoError(t, disk.Delete(ctx, key))
	require.NoError(t, disk.Delete(ctx, key))

	_, err = disk.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalDiskHonorsCancellation(t *testing.T) {
	disk, err := NewLocalDisk(t.TempDir(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = disk.Put(ctx, "attachments/late.txt", strings.NewReader("data"), 4, "text/plain")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = disk.Open(context.Background(), "attachments/late.txt")
	assert.ErrorIs(t, err, ErrNotExist)
}
