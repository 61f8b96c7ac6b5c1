package harness

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds a suite. Factories run once per verify invocation, so
// suites may capture per-run state.
type Factory func() (*Suite, error)

// Registry maps suite names to factory functions.
// It is not safe for concurrent use; registration should happen at startup.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named suite factory. Overwrites if name already exists.
// Panics if name is empty or f is nil (programmer error).
func (r *Registry) Register(name string, f Factory) {
	if name == "" {
		panic("harness: Register called with empty name")
	}
	if f == nil {
		panic("harness: Register called with nil factory")
	}
	r.factories[name] = f
}

// NewSuite builds a suite by name.
// Returns an error if the name is not registered or the factory fails.
func (r *Registry) NewSuite(name string) (*Suite, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, &UnknownSuiteError{
			Name:      name,
			Available: r.AvailableSuites(),
		}
	}
	s, err := f()
	if err != nil {
		return nil, fmt.Errorf("suite factory %q: %w", name, err)
	}
	return s, nil
}

// NewSuites builds the named suites in order, or every registered suite
// in sorted order when names is empty.
func (r *Registry) NewSuites(names ...string) ([]*Suite, error) {
	if len(names) == 0 {
		names = r.AvailableSuites()
	}
	suites := make([]*Suite, 0, len(names))
	for _, name := range names {
		s, err := r.NewSuite(name)
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	return suites, nil
}

// AvailableSuites returns registered suite names in sorted order.
func (r *Registry) AvailableSuites() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownSuiteError indicates a suite name is not registered.
type UnknownSuiteError struct {
	Name      string
	Available []string
}

func (e *UnknownSuiteError) Error() string {
	return fmt.Sprintf("unknown suite %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}
