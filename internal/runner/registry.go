package runner

import (
	"fmt"
	"strings"

	"github.com/1broseidon/xconform/internal/backend"
)

// Test is one conformance case.
type Test struct {
	Name string
	// Flags the backend must declare for the test to run.
	Flags backend.Flags
	// Description is shown by list commands.
	Description string
	Run         func(t *T)
}

// Registry keeps tests in registration order.
type Registry struct {
	tests []Test
	index map[string]int
}

// NewRegistry registers tests in order.
func NewRegistry(tests ...Test) (*Registry, error) {
	r := &Registry{index: make(map[string]int)}
	for _, t := range tests {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends t. Names must be unique and non-empty.
func (r *Registry) Register(t Test) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("test name is empty")
	}
	if t.Run == nil {
		return fmt.Errorf("test %q has no body", t.Name)
	}
	if _, ok := r.index[t.Name]; ok {
		return fmt.Errorf("test %q registered twice", t.Name)
	}
	r.index[t.Name] = len(r.tests)
	r.tests = append(r.tests, t)
	return nil
}

// Tests returns all tests in registration order.
func (r *Registry) Tests() []Test {
	return append([]Test(nil), r.tests...)
}

func (r *Registry) Lookup(name string) (Test, bool) {
	i, ok := r.index[name]
	if !ok {
		return Test{}, false
	}
	return r.tests[i], true
}

// Select returns the named tests in registration order, or every test when
// names is empty.
func (r *Registry) Select(names []string) ([]Test, error) {
	if len(names) == 0 {
		return r.Tests(), nil
	}
	want := make(map[string]struct{}, len(names))
	var unknown []string
	for _, n := range names {
		if _, ok := r.index[n]; !ok {
			unknown = append(unknown, n)
			continue
		}
		want[n] = struct{}{}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown tests: %s", strings.Join(unknown, ", "))
	}
	out := make([]Test, 0, len(want))
	for _, t := range r.tests {
		if _, ok := want[t.Name]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
