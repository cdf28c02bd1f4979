// Package valuetype implements the semantic value-type lattice and the
// type promotion table. Every array carries a declared value type, and every
// operation family declares which input types it accepts and which output
// type it produces. Promotion is table-driven: an operation applied to a
// type without a table entry is illegal, never inferred from cell contents.
package valuetype

import "fmt"

// Type is the declared value type of an array.
type Type int

const (
	// Numerical values support arithmetic and statistical aggregation.
	Numerical Type = iota
	// Boolean values are true/false, stored as 1/0 cells.
	Boolean
	// Nominal values are categorical without an ordering.
	Nominal
	// Ordinal values are categorical with an ordering.
	Ordinal
	// Coordinate values are positions on a discretized axis, such as
	// timestamps or grid cell centers.
	Coordinate
)

// AllTypes lists every valid value type, in declaration order. The
// promotion table verifier iterates it, so extending the lattice without
// extending the table fails loudly.
var AllTypes = []Type{Numerical, Boolean, Nominal, Ordinal, Coordinate}

var typeNames = map[Type]string{
	Numerical:  "numerical",
	Boolean:    "boolean",
	Nominal:    "nominal",
	Ordinal:    "ordinal",
	Coordinate: "coordinate",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("valuetype(%d)", int(t))
}

// ParseType converts a textual type name, as used in datacube layout files,
// into a Type.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown value type %q", name)
}

// UnsupportedTypeError reports an operation applied to a value type it has
// no promotion entry for.
type UnsupportedTypeError struct {
	Operation string
	Input     Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("operation %q does not support value type %q", e.Operation, e.Input)
}
