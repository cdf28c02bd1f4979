package processor

import (
	"fmt"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/semcube/internal/array"
)

// Function is a user-defined transformation applied to an array through
// an apply expression. Extra arguments come from the expression verbatim.
type Function func(x *array.Array, args []cty.Value) (*array.Array, error)

var (
	funcMu    sync.RWMutex
	functions = make(map[string]Function)
)

// RegisterFunction makes a function available to apply expressions under
// the given name, replacing any previous registration.
func RegisterFunction(name string, fn Function) {
	funcMu.Lock()
	defer funcMu.Unlock()
	functions[name] = fn
}

func lookupFunction(name string) (Function, error) {
	funcMu.RLock()
	defer funcMu.RUnlock()
	fn, ok := functions[name]
	if !ok {
		return nil, fmt.Errorf("no function registered under %q", name)
	}
	return fn, nil
}
