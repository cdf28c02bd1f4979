package array

import "fmt"

// Map applies f to every cell and returns a new array with the same axes
// and value type.
func (a *Array) Map(f func(v float64) float64) *Array {
	out := a.Clone()
	for i, v := range out.data {
		out.data[i] = f(v)
	}
	return out
}

// Zip combines two arrays cell by cell. Both operands must be defined on
// identical axes; there is no implicit broadcasting or alignment.
func (a *Array) Zip(b *Array, f func(x, y float64) float64) (*Array, error) {
	if !sameShape(a, b) {
		return nil, fmt.Errorf("arrays %q and %q are not defined on the same axes", a.name, b.name)
	}
	out := a.Clone()
	for i := range out.data {
		out.data[i] = f(a.data[i], b.data[i])
	}
	return out, nil
}

// ZipScalar combines every cell with a fixed scalar operand.
func (a *Array) ZipScalar(y float64, f func(x, y float64) float64) *Array {
	out := a.Clone()
	for i, v := range out.data {
		out.data[i] = f(v, y)
	}
	return out
}

// Stack concatenates arrays defined on identical axes along a new leading
// axis. The members keep their cell order; the new axis gets positional
// coordinates. The value type is taken from the first member.
func Stack(name, axisName string, members []*Array) (*Array, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("cannot stack zero arrays")
	}
	first := members[0]
	coords := make([]string, len(members))
	data := make([]float64, 0, len(members)*first.Size())
	for i, m := range members {
		if !sameShape(first, m) {
			return nil, fmt.Errorf("stack member %d is not defined on the same axes as member 0", i)
		}
		coords[i] = fmt.Sprintf("%d", i)
		data = append(data, m.data...)
	}
	axes := make([]Axis, 0, len(first.axes)+1)
	axes = append(axes, Axis{Name: axisName, Coords: coords})
	for _, ax := range first.axes {
		cs := make([]string, len(ax.Coords))
		copy(cs, ax.Coords)
		axes = append(axes, Axis{Name: ax.Name, Coords: cs})
	}
	return New(name, first.vtype, axes, data)
}
