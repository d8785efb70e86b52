package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateClassCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{7}$`)
	seen := map[string]bool{}

	for range 100 {
		code, err := GenerateClassCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}

	assert.Greater(t, len(seen), 90)
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"Tugas 1.pdf":           "Tugas_1.pdf",
		"../../etc/passwd":      "passwd",
		`C:\Users\budi\a b.png`: "a_b.png",
		"...":                   "file",
		"laporan (final).docx":  "laporan_final_.docx",
	}
	for input, want := range tests {
		assert.Equal(t, want, SanitizeFileName(input), input)
	}

	long := strings.Repeat("a", 300) + ".pdf"
	got := SanitizeFileName(long)
	assert.Len(t, got, 120)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestStoredFileName(t *testing.T) {
	now := time.Unix(1700000000, 0)
	name := StoredFileName("My Notes.pdf", now)

	assert.Regexp(t, `^1700000000_[0-9a-f]{8}_My_Notes\.pdf$`, name)
	assert.NotEqual(t, name, StoredFileName("My Notes.pdf", now))
}
