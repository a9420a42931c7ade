package enrich

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ImageCache persists preview images on local disk, one JPEG per target
// identity. The check-then-fetch-then-write sequence is not atomic: two
// concurrent requests for the same never-before-seen target may both download
// and both write; the file is written in full before being referenced, so
// last-writer-wins causes no corruption. No expiry.
type ImageCache struct {
	dir     string
	fetcher *Fetcher
}

func NewImageCache(dir string, fetcher *Fetcher) (*ImageCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	return &ImageCache{dir: dir, fetcher: fetcher}, nil
}

// File returns the cached image file name for the key, or "" when no image
// has been stored yet.
func (c *ImageCache) File(key string) string {
	name := sanitizeKey(key) + ".jpg"
	if _, err := os.Stat(filepath.Join(c.dir, name)); err != nil {
		return ""
	}

	return name
}

// Fetch returns the cached image for the key, downloading it from srcURL
// first when absent.
func (c *ImageCache) Fetch(ctx context.Context, key, srcURL string) (string, error) {
	if name := c.File(key); name != "" {
		return name, nil
	}

	body, err := c.fetcher.FetchStream(ctx, srcURL)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer body.Close()

	return c.Store(key, body)
}

// Store writes image bytes for the key. The image lands under a temporary
// name and is renamed into place so readers never observe a partial file.
func (c *ImageCache) Store(key string, r io.Reader) (string, error) {
	name := sanitizeKey(key) + ".jpg"
	dest := filepath.Join(c.dir, name)

	tmp, err := os.CreateTemp(c.dir, name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return "", fmt.Errorf("write image: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return "", fmt.Errorf("close temp image: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())

		return "", fmt.Errorf("publish image: %w", err)
	}

	return name, nil
}
