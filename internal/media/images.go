package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"accounts/internal/apperr"
)

// Images normalizes uploads and hands them to an ObjectStore.
type Images struct {
	store        ObjectStore
	maxDimension int
	log          *zap.Logger
	now          func() time.Time
}

func NewImages(store ObjectStore, maxDimension int, log *zap.Logger) *Images {
	if maxDimension <= 0 {
		maxDimension = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Images{store: store, maxDimension: maxDimension, log: log, now: time.Now}
}

// Put validates f, fits it within the configured bounds and stores it under
// folder.
func (i *Images) Put(ctx context.Context, folder string, f File) (Asset, error) {
	const op = "media.Put"

	if err := Validate(f); err != nil {
		return Asset{}, err
	}

	raw, err := io.ReadAll(io.LimitReader(f.Body, MaxImageSize+1))
	if err != nil {
		return Asset{}, apperr.Wrap(op, fmt.Errorf("read upload: %w", err))
	}
	if len(raw) > MaxImageSize {
		return Asset{}, apperr.NewValidation(op, "image file too large (max 5MB)")
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return Asset{}, apperr.NewValidation(op, "file is not a valid image").WithCause(err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > i.maxDimension || bounds.Dy() > i.maxDimension {
		img = imaging.Fit(img, i.maxDimension, i.maxDimension, imaging.Lanczos)
	}

	format, ext, contentType := imaging.PNG, ".png", "image/png"
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".jpg", ".jpeg":
		format, ext, contentType = imaging.JPEG, ".jpg", "image/jpeg"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return Asset{}, apperr.Wrap(op, fmt.Errorf("encode image: %w", err))
	}

	key := i.objectKey(folder, ext)
	url, err := i.store.Put(ctx, key, contentType, buf.Bytes())
	if err != nil {
		i.log.Error("media upload failed", zap.String("key", key), zap.Error(err))
		return Asset{}, apperr.Wrap(op, err)
	}

	i.log.Debug("media uploaded", zap.String("key", key), zap.Int("bytes", buf.Len()))
	return Asset{Key: key, URL: url}, nil
}

// Delete removes an asset. Failures are logged and returned; callers treat
// them as non-fatal.
func (i *Images) Delete(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if err := i.store.Delete(ctx, url); err != nil {
		i.log.Warn("media delete failed", zap.String("url", url), zap.Error(err))
		return err
	}
	return nil
}

func (i *Images) objectKey(folder, ext string) string {
	d := i.now().UTC()
	folder = strings.Trim(folder, "/")
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s%s", folder, d.Year(), int(d.Month()), d.Day(), uuid.NewString(), ext)
}
