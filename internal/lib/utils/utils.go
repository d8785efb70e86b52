// Package utils contains small helpers shared by the services.
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const classCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ClassCodeLength is the length of generated class codes.
const ClassCodeLength = 7

// GenerateClassCode returns a random uppercase alphanumeric code.
func GenerateClassCode() (string, error) {
	code := make([]byte, ClassCodeLength)
	max := big.NewInt(int64(len(classCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating class code: %w", err)
		}
		code[i] = classCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName keeps the base name of an uploaded file and replaces
// anything outside [A-Za-z0-9._-] with underscores.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	if len(name) > 120 {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:120-len(ext)] + ext
	}
	return name
}

// StoredFileName builds the unique name an upload is stored under:
// "<unix seconds>_<8 hex chars>_<sanitized original>".
func StoredFileName(original string, now time.Time) string {
	return fmt.Sprintf("%d_%s_%s", now.Unix(), uuid.NewString()[:8], SanitizeFileName(original))
}
