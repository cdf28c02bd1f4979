// Package datacube provides the backend contract for resolving named
// layers into labeled arrays clipped to a spatio-temporal extent, along
// with an in-memory reference implementation and a SQLite-backed one.
package datacube

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/extent"
)

// LayerNotFoundError reports a reference to a layer the backend does not
// serve.
type LayerNotFoundError struct {
	Reference []string
}

func (e *LayerNotFoundError) Error() string {
	return fmt.Sprintf("datacube does not contain layer %q", strings.Join(e.Reference, "/"))
}

// Datacube resolves layer references into arrays clipped to an extent.
type Datacube interface {
	// Lookup reports whether the backend serves the referenced layer,
	// without loading its data. A miss is a LayerNotFoundError.
	Lookup(reference []string) error

	// Retrieve returns the referenced layer on the extent's coordinate
	// grid. Cells of the grid not covered by the layer are no-data.
	Retrieve(ctx context.Context, reference []string, ext *extent.Extent) (*array.Array, error)
}

// refKey joins a layer reference into its canonical lookup key.
func refKey(reference []string) string {
	return strings.Join(reference, "/")
}

// clip projects a stored layer onto the extent axes matching the layer's
// axis names. Every output cell takes the layer value at the same
// coordinate labels; labels the layer does not carry become no-data.
func clip(layer *array.Array, ext *extent.Extent) (*array.Array, error) {
	layerAxes := layer.Axes()
	outAxes := make([]array.Axis, len(layerAxes))
	lookups := make([]map[string]int, len(layerAxes))
	for i, ax := range layerAxes {
		extAxis, err := ext.Axis(ax.Name)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", layer.Name(), err)
		}
		outAxes[i] = extAxis
		lookup := make(map[string]int, ax.Len())
		for j, label := range ax.Coords {
			lookup[label] = j
		}
		lookups[i] = lookup
	}

	size := 1
	for _, ax := range outAxes {
		size *= ax.Len()
	}
	layerStrides := make([]int, len(layerAxes))
	stride := 1
	for i := len(layerAxes) - 1; i >= 0; i-- {
		layerStrides[i] = stride
		stride *= layerAxes[i].Len()
	}

	data := make([]float64, size)
	layerData := layer.Data()
	for out := 0; out < size; out++ {
		rem := out
		offset := 0
		covered := true
		for i := len(outAxes) - 1; i >= 0; i-- {
			n := outAxes[i].Len()
			label := outAxes[i].Coords[rem%n]
			rem /= n
			j, ok := lookups[i][label]
			if !ok {
				covered = false
				break
			}
			offset += j * layerStrides[i]
		}
		if covered {
			data[out] = layerData[offset]
		} else {
			data[out] = array.NoData()
		}
	}
	return array.New(layer.Name(), layer.ValueType(), outAxes, data)
}
