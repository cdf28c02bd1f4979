package datacube

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/valuetype"
)

// layoutFile is the YAML document describing the layers of a cube.
type layoutFile struct {
	Layers []layoutLayer `yaml:"layers"`
}

type layoutLayer struct {
	Name string       `yaml:"name"`
	Type string       `yaml:"type"`
	Axes []layoutAxis `yaml:"axes"`
	Data []*float64   `yaml:"data"`
}

type layoutAxis struct {
	Name   string   `yaml:"name"`
	Coords []string `yaml:"coords"`
}

// LoadLayout reads a YAML layout file into a memory cube. Layer names are
// slash-separated reference paths; null data entries are no-data cells.
func LoadLayout(path string) (*MemoryCube, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout %s: %w", path, err)
	}
	var layout layoutFile
	if err := yaml.Unmarshal(raw, &layout); err != nil {
		return nil, fmt.Errorf("parsing layout %s: %w", path, err)
	}

	cube := NewMemoryCube()
	for _, l := range layout.Layers {
		vtype, err := valuetype.ParseType(l.Type)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}
		axes := make([]array.Axis, len(l.Axes))
		for i, ax := range l.Axes {
			axes[i] = array.Axis{Name: ax.Name, Coords: ax.Coords}
		}
		data := make([]float64, len(l.Data))
		for i, v := range l.Data {
			if v == nil {
				data[i] = array.NoData()
			} else {
				data[i] = *v
			}
		}
		reference := strings.Split(l.Name, "/")
		layer, err := array.New(l.Name, vtype, axes, data)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}
		cube.AddLayer(reference, layer)
	}
	return cube, nil
}
