package templates

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sort"
	"sync"

	"jordanella.com/battlefarm-go/internal/cv"
)

// ImageCache keeps decoded template images in memory. Templates are
// immutable, so an image is read from disk at most once.
type ImageCache struct {
	images  map[string]*image.RGBA
	preload map[string]bool
	mu      sync.Mutex
	stats   CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits   int64 // Served from memory
	Misses int64 // Had to load from disk
}

// NewImageCache creates a new image cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		images:  make(map[string]*image.RGBA),
		preload: make(map[string]bool),
	}
}

// Get returns the template image, loading it on first use
func (ic *ImageCache) Get(template cv.Template) (*image.RGBA, error) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	if img, ok := ic.images[template.Name]; ok {
		ic.stats.Hits++
		return img, nil
	}

	img, err := loadPNG(template.Path)
	if err != nil {
		return nil, err
	}

	ic.images[template.Name] = img
	ic.stats.Misses++
	return img, nil
}

// Forget drops a cached image so the next Get reloads it
func (ic *ImageCache) Forget(name string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	delete(ic.images, name)
}

// MarkPreload flags a template for PreloadAll
func (ic *ImageCache) MarkPreload(name string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.preload[name] = true
}

// Preloads returns the names flagged for preloading, sorted
func (ic *ImageCache) Preloads() []string {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	names := make([]string, 0, len(ic.preload))
	for name := range ic.preload {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.stats
}

func loadPNG(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}

	return cv.ToRGBA(img), nil
}
