package tracker

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"unicode"
)

// ErrInvalidFunction indicates a custom function could not be registered.
var ErrInvalidFunction = errors.New("tracker: invalid custom function")

// Function is a helper callable from filter expressions, by name or via
// call("name", args...).
type Function func(args ...any) (any, error)

// reservedNames are bound by every evaluator and cannot be shadowed.
var reservedNames = map[string]struct{}{
	"subject": {},
	"payload": {},
	"state":   {},
	"now":     {},
	"args":    {},
	"call":    {},
}

// FunctionRegistry holds the custom functions visible to filter expressions.
// Names are identifiers and match exactly, the same way expressions refer
// to them.
type FunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{funcs: map[string]Function{}}
}

// Register adds fn under name. The name must be an identifier that is not
// already taken and does not shadow an expression variable.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if err := checkFunctionName(name); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: %q is nil", ErrInvalidFunction, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs == nil {
		r.funcs = map[string]Function{}
	}
	if _, taken := r.funcs[name]; taken {
		return fmt.Errorf("%w: %q already registered", ErrInvalidFunction, name)
	}
	r.funcs[name] = fn
	return nil
}

func checkFunctionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidFunction)
	}
	if _, reserved := reservedNames[name]; reserved {
		return fmt.Errorf("%w: %q is a reserved name", ErrInvalidFunction, name)
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return fmt.Errorf("%w: %q is not an identifier", ErrInvalidFunction, name)
	}
	return nil
}

// Clone returns a registry holding the same functions. Later registrations
// on either side are not shared.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &FunctionRegistry{funcs: maps.Clone(r.funcs)}
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	fn, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("tracker: function %q not registered", name)
	}
	return fn(args...)
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

func (r *FunctionRegistry) lookup(name string) (Function, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names as they were registered, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.funcs))
}

// WithFunctionRegistry exposes a copy of registry to filter expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *trackerConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction exposes fn to filter expressions under name. A name
// the registry rejects makes New fail.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *trackerConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.errs = append(cfg.errs, err)
		}
	}
}
