package valuetype

import "fmt"

// Family groups operations that share a promotion rule.
type Family int

const (
	NumericalReducers Family = iota
	BooleanReducers
	CountReducers
	OrderedReducers
	UniversalReducers
	ComparisonOperators
	ArithmeticOperators
	BooleanOperators
	FilterOperations
)

var familyNames = map[Family]string{
	NumericalReducers:   "numerical_reducers",
	BooleanReducers:     "boolean_reducers",
	CountReducers:       "count_reducers",
	OrderedReducers:     "ordered_reducers",
	UniversalReducers:   "universal_reducers",
	ComparisonOperators: "comparison_operators",
	ArithmeticOperators: "arithmetic_operators",
	BooleanOperators:    "boolean_operators",
	FilterOperations:    "filter_operations",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// promotionTable maps (operation family, input type) to the output type.
// A missing entry means the combination is illegal. The table is the single
// authority on operation legality; nothing is inferred at runtime.
var promotionTable = map[Family]map[Type]Type{
	// Statistical aggregation is only defined over numbers.
	NumericalReducers: {
		Numerical: Numerical,
	},
	// Truth aggregation collapses any input to a boolean verdict.
	BooleanReducers: {
		Numerical:  Boolean,
		Boolean:    Boolean,
		Nominal:    Boolean,
		Ordinal:    Boolean,
		Coordinate: Boolean,
	},
	// Counting is defined for every type and always yields a number.
	CountReducers: {
		Numerical:  Numerical,
		Boolean:    Numerical,
		Nominal:    Numerical,
		Ordinal:    Numerical,
		Coordinate: Numerical,
	},
	// Order statistics preserve the input type but require an ordering,
	// which nominal categories do not have.
	OrderedReducers: {
		Numerical:  Numerical,
		Boolean:    Boolean,
		Ordinal:    Ordinal,
		Coordinate: Coordinate,
	},
	// Positional selection and mode never change the type of what they pick.
	UniversalReducers: {
		Numerical:  Numerical,
		Boolean:    Boolean,
		Nominal:    Nominal,
		Ordinal:    Ordinal,
		Coordinate: Coordinate,
	},
	ComparisonOperators: {
		Numerical:  Boolean,
		Boolean:    Boolean,
		Nominal:    Boolean,
		Ordinal:    Boolean,
		Coordinate: Boolean,
	},
	ArithmeticOperators: {
		Numerical: Numerical,
	},
	BooleanOperators: {
		Boolean: Boolean,
	},
	// Filtering keeps values as they are; only presence changes.
	FilterOperations: {
		Numerical:  Numerical,
		Boolean:    Boolean,
		Nominal:    Nominal,
		Ordinal:    Ordinal,
		Coordinate: Coordinate,
	},
}

// Promote returns the output value type of applying an operation of the
// given family to an input of the given type. The operation name is only
// used for error reporting; legality is decided per family.
func Promote(operation string, family Family, input Type) (Type, error) {
	entries, ok := promotionTable[family]
	if !ok {
		return 0, &UnsupportedTypeError{Operation: operation, Input: input}
	}
	out, ok := entries[input]
	if !ok {
		return 0, &UnsupportedTypeError{Operation: operation, Input: input}
	}
	return out, nil
}

// VerifyTable checks the structural integrity of the promotion table: every
// declared family has entries, and every entry maps valid input to valid
// output. Combinations deliberately absent (illegal) are allowed; families
// absent entirely are not.
func VerifyTable() error {
	valid := make(map[Type]bool, len(AllTypes))
	for _, t := range AllTypes {
		valid[t] = true
	}
	for family := range familyNames {
		entries, ok := promotionTable[family]
		if !ok || len(entries) == 0 {
			return fmt.Errorf("promotion table has no entries for family %q", family)
		}
		for in, out := range entries {
			if !valid[in] {
				return fmt.Errorf("promotion table for %q keyed by invalid input type %d", family, int(in))
			}
			if !valid[out] {
				return fmt.Errorf("promotion table for %q maps %q to invalid output type %d", family, in, int(out))
			}
		}
	}
	return nil
}
