// Package media stores recipe images on local disk or in an S3-compatible
// bucket and turns stored keys into public URLs.
package media

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	dErrors "foodgram/pkg/domain-errors"
)

// Store is a blob store addressed by key.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Images saves uploaded data URIs and resolves their URLs.
type Images struct {
	store  Store
	prefix string
	logger *slog.Logger
}

type Option func(*Images)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Images) {
		i.logger = logger
	}
}

// NewImages wraps store. Keys are generated under "recipes/images/".
func NewImages(store Store, opts ...Option) *Images {
	i := &Images{store: store, prefix: "recipes/images/"}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Save decodes dataURI and stores it under a fresh key.
func (i *Images) Save(ctx context.Context, dataURI string) (string, error) {
	img, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}
	key := i.prefix + uuid.NewString() + img.Ext
	if err := i.store.Put(ctx, key, img.ContentType, img.Data); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store image")
	}
	return key, nil
}

// URL resolves a stored key. Keys that are already absolute URLs pass through.
func (i *Images) URL(key string) string {
	if key == "" || strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return i.store.URL(key)
}

// Delete removes a stored image. Failures are logged, not returned.
func (i *Images) Delete(ctx context.Context, key string) {
	if key == "" || strings.Contains(key, "://") {
		return
	}
	if err := i.store.Delete(ctx, key); err != nil && i.logger != nil {
		i.logger.WarnContext(ctx, "failed to delete image",
			"key", key,
			"error", err,
		)
	}
}
