package processor

import (
	"context"
	"strings"
	"sync"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/datacube"
	"github.com/vk/semcube/internal/extent"
)

// layerCache guarantees each referenced layer is fetched from the backend
// at most once per query, no matter how many plan nodes need it or how
// many workers reach them concurrently.
type layerCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	arr  *array.Array
	err  error
}

func newLayerCache() *layerCache {
	return &layerCache{entries: make(map[string]*cacheEntry)}
}

func (c *layerCache) retrieve(
	ctx context.Context,
	dc datacube.Datacube,
	reference []string,
	ext *extent.Extent,
) (*array.Array, error) {
	key := strings.Join(reference, "/")
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.arr, entry.err = dc.Retrieve(ctx, reference, ext)
	})
	return entry.arr, entry.err
}
