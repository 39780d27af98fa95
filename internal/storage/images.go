// Package storage keeps guide step images in S3-compatible object storage
// and addresses them by public URL.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nietladen/internal/apperr"
)

const keyPrefix = "guides/"

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Images uploads and deletes step images.
type Images struct {
	store     ObjectStore
	publicURL string
	maxBytes  int64
	logger    *zap.Logger
}

// NewImages creates an image store serving objects under publicURL.
func NewImages(store ObjectStore, publicURL string, maxBytes int64, logger *zap.Logger) *Images {
	return &Images{
		store:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
		logger:    logger.Named("images"),
	}
}

// Upload stores an image under a fresh key and returns its public URL.
func (i *Images) Upload(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	ext, ok := allowedTypes[strings.ToLower(contentType)]
	if !ok {
		return "", apperr.Validation("only JPEG, PNG, WebP and GIF images are allowed")
	}
	if size <= 0 {
		return "", apperr.Validation("image is empty")
	}
	if i.maxBytes > 0 && size > i.maxBytes {
		return "", apperr.Validation("image is too large")
	}

	key := keyPrefix + uuid.NewString() + ext
	if err := i.store.Put(ctx, key, r, size, contentType); err != nil {
		return "", apperr.Dependency("failed to store image", err)
	}
	i.logger.Info("image uploaded", zap.String("key", key), zap.Int64("size", size))
	return i.publicURL + "/" + key, nil
}

// KeyForURL returns the object key behind a public URL, or false when the
// URL does not point into our bucket.
func (i *Images) KeyForURL(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, i.publicURL+"/")
	if !ok || !strings.HasPrefix(rest, keyPrefix) {
		return "", false
	}
	if rest != path.Clean(rest) {
		return "", false
	}
	return rest, true
}

// DeleteByURL removes the image behind url. URLs that are not ours are
// ignored.
func (i *Images) DeleteByURL(ctx context.Context, url string) error {
	key, ok := i.KeyForURL(url)
	if !ok {
		i.logger.Debug("skipping foreign image url", zap.String("url", url))
		return nil
	}
	return i.store.Delete(ctx, key)
}
