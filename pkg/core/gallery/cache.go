// Package gallery holds the in-memory copy of the image catalog.
package gallery

import (
	"context"
	"sync"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

// Loader reads the full catalog from storage
type Loader interface {
	ListAllImages(ctx context.Context) ([]domain.Image, error)
}

// Cache keeps the catalog loaded once per process. It is created at startup
// and passed to whoever needs it.
type Cache struct {
	loader Loader

	mu     sync.Mutex
	images []domain.Image
	byID   map[int64]int
	loaded bool
}

func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// Images returns the catalog, loading it on first use. The returned slice is
// shared and must not be modified.
func (c *Cache) Images(ctx context.Context) ([]domain.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.images, nil
	}
	if err := c.loadLocked(ctx); err != nil {
		return nil, err
	}
	return c.images, nil
}

// Image looks up one catalog entry
func (c *Cache) Image(ctx context.Context, id int64) (*domain.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		if err := c.loadLocked(ctx); err != nil {
			return nil, err
		}
	}
	i, ok := c.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	img := c.images[i]
	return &img, nil
}

// Refresh reloads the catalog. On failure the previous copy is kept.
func (c *Cache) Refresh(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(ctx); err != nil {
		return 0, err
	}
	return len(c.images), nil
}

// Invalidate drops the cached copy; the next read reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.images, c.byID, c.loaded = nil, nil, false
	c.mu.Unlock()
}

func (c *Cache) loadLocked(ctx context.Context) error {
	images, err := c.loader.ListAllImages(ctx)
	if err != nil {
		return err
	}
	byID := make(map[int64]int, len(images))
	for i, img := range images {
		byID[img.ID] = i
	}
	c.images, c.byID, c.loaded = images, byID, true
	return nil
}
