package datacube

import (
	"context"
	"sync"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/ctxlog"
	"github.com/vk/semcube/internal/extent"
)

// MemoryCube serves layers held in memory, registered programmatically or
// loaded from a YAML layout file.
type MemoryCube struct {
	mu     sync.RWMutex
	layers map[string]*array.Array
}

// NewMemoryCube returns an empty in-memory datacube.
func NewMemoryCube() *MemoryCube {
	return &MemoryCube{layers: make(map[string]*array.Array)}
}

// AddLayer registers a layer under the given reference, replacing any
// previous layer with the same reference.
func (c *MemoryCube) AddLayer(reference []string, layer *array.Array) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers[refKey(reference)] = layer
}

// Lookup implements Datacube.
func (c *MemoryCube) Lookup(reference []string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.layers[refKey(reference)]; !ok {
		return &LayerNotFoundError{Reference: reference}
	}
	return nil
}

// Retrieve implements Datacube.
func (c *MemoryCube) Retrieve(ctx context.Context, reference []string, ext *extent.Extent) (*array.Array, error) {
	logger := ctxlog.FromContext(ctx)
	c.mu.RLock()
	layer, ok := c.layers[refKey(reference)]
	c.mu.RUnlock()
	if !ok {
		return nil, &LayerNotFoundError{Reference: reference}
	}
	logger.Debug("Retrieving layer from memory cube.", "layer", refKey(reference))
	return clip(layer, ext)
}
