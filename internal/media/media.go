// Package media validates, normalizes and stores user images.
package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"accounts/internal/apperr"
)

const MaxImageSize = 5 << 20

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// File is an uploaded image as received from the client.
type File struct {
	Name string
	Size int64
	Body io.Reader
}

// Asset is a stored image.
type Asset struct {
	Key string
	URL string
}

// ObjectStore is the media host. Put returns the public URL of the stored
// object; Delete accepts a URL previously returned by Put.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

func Validate(f File) error {
	const op = "media.Validate"

	if f.Body == nil || strings.TrimSpace(f.Name) == "" {
		return apperr.NewValidation(op, "image file is required")
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	if ext == "" {
		return apperr.NewValidation(op, "image file extension is required")
	}
	if _, ok := allowedExtensions[ext]; !ok {
		return apperr.NewValidation(op, fmt.Sprintf("unsupported image type: %s", ext))
	}
	if f.Size > MaxImageSize {
		return apperr.NewValidation(op, "image file too large (max 5MB)")
	}
	return nil
}
