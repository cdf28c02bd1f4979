package processor

import (
	"fmt"
	"strings"
)

// UnresolvedReferenceError reports an entity or concept reference that no
// mapping rule defines. It wraps the backend's lookup error.
type UnresolvedReferenceError struct {
	Reference []string
	Err       error
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q: %v", strings.Join(e.Reference, "/"), e.Err)
}

func (e *UnresolvedReferenceError) Unwrap() error { return e.Err }

// ResultError tags any processing failure with the offending result name
// and the canonical path of the failing sub-expression.
type ResultError struct {
	Result string
	Path   string
	Err    error
}

func (e *ResultError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("result %q: %v", e.Result, e.Err)
	}
	return fmt.Sprintf("result %q: %s: %v", e.Result, e.Path, e.Err)
}

func (e *ResultError) Unwrap() error { return e.Err }
