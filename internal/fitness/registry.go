package fitness

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrFunctionExists   = errors.New("fitness function already registered")
	ErrFunctionNotFound = errors.New("fitness function not found")
)

var functionRegistry = struct {
	mu sync.RWMutex
	m  map[string]Function
}{
	m: make(map[string]Function),
}

func init() {
	for _, fn := range []Function{OneMax{}, LeadingOnes{}, Trap{}} {
		if err := Register(fn.Name(), fn); err != nil {
			panic(err)
		}
	}
}

// Register adds a named fitness function.
func Register(name string, fn Function) error {
	if name == "" {
		return errors.New("fitness function name is required")
	}
	if fn == nil {
		return errors.New("fitness function is required")
	}

	functionRegistry.mu.Lock()
	defer functionRegistry.mu.Unlock()

	if _, exists := functionRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrFunctionExists, name)
	}
	functionRegistry.m[name] = fn
	return nil
}

func Resolve(name string) (Function, error) {
	functionRegistry.mu.RLock()
	fn, ok := functionRegistry.m[name]
	functionRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}
	return fn, nil
}

func List() []string {
	functionRegistry.mu.RLock()
	defer functionRegistry.mu.RUnlock()

	names := make([]string, 0, len(functionRegistry.m))
	for name := range functionRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unregisterForTests(name string) {
	functionRegistry.mu.Lock()
	defer functionRegistry.mu.Unlock()
	delete(functionRegistry.m, name)
}
