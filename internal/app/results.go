package app

import (
	"encoding/json"
	"io"

	"github.com/vk/semcube/internal/array"
)

// resultDoc is the JSON shape of one result array. No-data cells render
// as null, which is why data is a slice of pointers.
type resultDoc struct {
	Name string     `json:"name"`
	Type string     `json:"type"`
	Axes []axisDoc  `json:"axes"`
	Data []*float64 `json:"data"`
}

type axisDoc struct {
	Name   string   `json:"name"`
	Coords []string `json:"coords"`
}

func encodeResult(arr *array.Array) resultDoc {
	axes := make([]axisDoc, len(arr.Axes()))
	for i, ax := range arr.Axes() {
		axes[i] = axisDoc{Name: ax.Name, Coords: ax.Coords}
	}
	data := make([]*float64, arr.Size())
	for i, v := range arr.Data() {
		if !array.IsNoData(v) {
			v := v
			data[i] = &v
		}
	}
	return resultDoc{
		Name: arr.Name(),
		Type: arr.ValueType().String(),
		Axes: axes,
		Data: data,
	}
}

// writeResults renders the result arrays as a JSON array in recipe order.
func writeResults(w io.Writer, order []string, results map[string]*array.Array) error {
	docs := make([]resultDoc, 0, len(order))
	for _, name := range order {
		if arr, ok := results[name]; ok {
			docs = append(docs, encodeResult(arr))
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}
