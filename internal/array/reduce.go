package array

// Aggregator collapses the values along one axis position into a scalar.
// Values are delivered in coordinate order and include no-data cells; each
// aggregator decides how to treat them.
type Aggregator func(xs []float64) float64

// ReduceAlong collapses the named dimension by applying the aggregator to
// every slice along it. The returned array has the remaining axes in their
// original order; its value type is copied from the input and is expected
// to be promoted by the caller.
func (a *Array) ReduceAlong(dimension string, agg Aggregator) (*Array, error) {
	k, err := a.AxisIndex(dimension)
	if err != nil {
		return nil, err
	}

	strides := a.strides()
	step := strides[k]
	length := a.axes[k].Len()

	outAxes := make([]Axis, 0, len(a.axes)-1)
	for i, ax := range a.axes {
		if i != k {
			outAxes = append(outAxes, ax)
		}
	}

	outSize := len(a.data) / length
	outData := make([]float64, outSize)
	xs := make([]float64, length)

	for out := 0; out < outSize; out++ {
		// Decompose the output position into a base offset in the input,
		// skipping the reduced axis.
		rem := out
		base := 0
		for i := len(a.axes) - 1; i >= 0; i-- {
			if i == k {
				continue
			}
			n := a.axes[i].Len()
			base += (rem % n) * strides[i]
			rem /= n
		}
		for j := 0; j < length; j++ {
			xs[j] = a.data[base+j*step]
		}
		outData[out] = agg(xs)
	}

	if len(outAxes) == 0 {
		// Reducing the last axis leaves a scalar; keep it addressable as a
		// one-cell array on a degenerate axis.
		return Scalar(a.name, a.vtype, outData[0]), nil
	}
	return &Array{name: a.name, vtype: a.vtype, axes: outAxes, data: outData}, nil
}
