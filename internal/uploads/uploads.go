// Package uploads stores attachment files and returns the URL they are served from.
package uploads

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyName   = errors.New("upload name is empty")
	ErrInvalidName = errors.New("upload name must be a plain file name")
)

// Store persists one uploaded file under name and returns its public URL
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
}

// NewName returns a random stored name that keeps the extension of original
func NewName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if len(ext) > 16 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return uuid.NewString() + ext
}

func checkName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
