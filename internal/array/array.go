// Package array provides the labeled N-dimensional array the query engine
// computes on. Cells are float64 with math.NaN() as the canonical no-data
// marker; booleans are stored as 1/0 and categorical values as their codes.
// The declared value type travels with the array as metadata and is only
// ever changed through the promotion table.
package array

import (
	"fmt"
	"math"

	"github.com/vk/semcube/internal/valuetype"
)

// Axis is a named dimension with an ordered coordinate sequence.
type Axis struct {
	Name   string
	Coords []string
}

// Len returns the number of coordinates on the axis.
func (a Axis) Len() int { return len(a.Coords) }

// DimensionNotFoundError reports a reference to an axis the array does not
// have.
type DimensionNotFoundError struct {
	Dimension string
}

func (e *DimensionNotFoundError) Error() string {
	return fmt.Sprintf("dimension %q not found", e.Dimension)
}

// Array is a labeled N-dimensional array with row-major cell storage.
type Array struct {
	name  string
	vtype valuetype.Type
	axes  []Axis
	data  []float64
}

// New constructs an array over the given axes. The data slice must hold
// exactly the product of the axis lengths, laid out row-major in axis order.
func New(name string, vtype valuetype.Type, axes []Axis, data []float64) (*Array, error) {
	size := 1
	for _, ax := range axes {
		if ax.Len() == 0 {
			return nil, fmt.Errorf("axis %q has no coordinates", ax.Name)
		}
		size *= ax.Len()
	}
	if len(data) != size {
		return nil, fmt.Errorf("array %q: %d cells given, axes require %d", name, len(data), size)
	}
	return &Array{name: name, vtype: vtype, axes: axes, data: data}, nil
}

// Filled constructs an array with every cell set to the same value.
func Filled(name string, vtype valuetype.Type, axes []Axis, value float64) (*Array, error) {
	size := 1
	for _, ax := range axes {
		size *= ax.Len()
	}
	data := make([]float64, size)
	for i := range data {
		data[i] = value
	}
	return New(name, vtype, axes, data)
}

// Scalar constructs a one-cell array on a degenerate axis.
func Scalar(name string, vtype valuetype.Type, value float64) *Array {
	return &Array{
		name:  name,
		vtype: vtype,
		axes:  []Axis{{Name: "scalar", Coords: []string{"0"}}},
		data:  []float64{value},
	}
}

// NoData returns the canonical missing-value marker.
func NoData() float64 { return math.NaN() }

// IsNoData reports whether a cell value is the missing-value marker.
func IsNoData(v float64) bool { return math.IsNaN(v) }

// Name returns the array's name.
func (a *Array) Name() string { return a.name }

// Rename sets the array's name and returns the array for chaining.
func (a *Array) Rename(name string) *Array {
	a.name = name
	return a
}

// ValueType returns the declared value type.
func (a *Array) ValueType() valuetype.Type { return a.vtype }

// SetValueType updates the declared value type in place. Data and shape are
// unaffected; this is the promotion side effect.
func (a *Array) SetValueType(t valuetype.Type) { a.vtype = t }

// Axes returns the array's axes in storage order.
func (a *Array) Axes() []Axis { return a.axes }

// Data exposes the backing cells in row-major order.
func (a *Array) Data() []float64 { return a.data }

// Size returns the total cell count.
func (a *Array) Size() int { return len(a.data) }

// AxisIndex resolves an axis name to its position.
func (a *Array) AxisIndex(name string) (int, error) {
	for i, ax := range a.axes {
		if ax.Name == name {
			return i, nil
		}
	}
	return 0, &DimensionNotFoundError{Dimension: name}
}

// strides returns the row-major stride of each axis.
func (a *Array) strides() []int {
	strides := make([]int, len(a.axes))
	stride := 1
	for i := len(a.axes) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= a.axes[i].Len()
	}
	return strides
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	axes := make([]Axis, len(a.axes))
	for i, ax := range a.axes {
		coords := make([]string, len(ax.Coords))
		copy(coords, ax.Coords)
		axes[i] = Axis{Name: ax.Name, Coords: coords}
	}
	data := make([]float64, len(a.data))
	copy(data, a.data)
	return &Array{name: a.name, vtype: a.vtype, axes: axes, data: data}
}

// Equal ignores names and compares axes, value type and cells.
// No-data cells compare equal to each other.
func (a *Array) Equal(b *Array) bool {
	if a.vtype != b.vtype || len(a.axes) != len(b.axes) || len(a.data) != len(b.data) {
		return false
	}
	for i, ax := range a.axes {
		other := b.axes[i]
		if ax.Name != other.Name || len(ax.Coords) != len(other.Coords) {
			return false
		}
		for j, c := range ax.Coords {
			if c != other.Coords[j] {
				return false
			}
		}
	}
	for i, v := range a.data {
		w := b.data[i]
		if IsNoData(v) && IsNoData(w) {
			continue
		}
		if v != w {
			return false
		}
	}
	return true
}

func sameShape(a, b *Array) bool {
	if len(a.axes) != len(b.axes) {
		return false
	}
	for i, ax := range a.axes {
		other := b.axes[i]
		if ax.Name != other.Name || len(ax.Coords) != len(other.Coords) {
			return false
		}
		for j, c := range ax.Coords {
			if c != other.Coords[j] {
				return false
			}
		}
	}
	return true
}
