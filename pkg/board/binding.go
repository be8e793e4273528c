package board

import (
	"fmt"
	"slices"
	"sort"

	"github.com/robotalks/dino.go/pkg/wire"
)

// Binding describes a component to be attached.
type Binding struct {
	Name   string         `toml:"name"`
	Role   Role           `toml:"role"`
	Pins   []int          `toml:"pins"`
	Params map[string]any `toml:"params"`
}

// Validate checks the binding is usable.
func (bd Binding) Validate() error {
	if bd.Role == "" {
		return bd.errorf("missing role")
	}
	if len(bd.Pins) == 0 {
		return bd.errorf("%v", ErrNoPins)
	}
	for _, pin := range bd.Pins {
		if pin < 0 || pin > wire.MaxPin {
			return bd.errorf("pin %d out of range", pin)
		}
	}
	return nil
}

// RequirePins checks the number of pins is one of counts.
func (bd Binding) RequirePins(counts ...int) error {
	if slices.Contains(counts, len(bd.Pins)) {
		return nil
	}
	return bd.errorf("%s requires %v pins, got %d", bd.Role, counts, len(bd.Pins))
}

// ParamInt returns an integer parameter or def if absent.
func (bd Binding) ParamInt(key string, def int) (int, error) {
	v, ok := bd.Params[key]
	if !ok {
		return def, nil
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val == float64(int(val)) {
			return int(val), nil
		}
	}
	return def, bd.errorf("param %s: expect integer, got %v", key, v)
}

// ParamBool returns a boolean parameter or def if absent.
func (bd Binding) ParamBool(key string, def bool) (bool, error) {
	v, ok := bd.Params[key]
	if !ok {
		return def, nil
	}
	if val, ok := v.(bool); ok {
		return val, nil
	}
	return def, bd.errorf("param %s: expect bool, got %v", key, v)
}

// ParamString returns a string parameter or def if absent.
func (bd Binding) ParamString(key string, def string) (string, error) {
	v, ok := bd.Params[key]
	if !ok {
		return def, nil
	}
	if val, ok := v.(string); ok {
		return val, nil
	}
	return def, bd.errorf("param %s: expect string, got %v", key, v)
}

func (bd Binding) errorf(format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrBadBinding, bd.Name, fmt.Sprintf(format, args...))
}

// Factory constructs a component from a binding.
type Factory func(b *Board, bd Binding) (Component, error)

// Factories maps roles to factories.
type Factories map[Role]Factory

// New constructs a component using the factory of the binding's role.
func (f Factories) New(b *Board, bd Binding) (Component, error) {
	factory, ok := f[bd.Role]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownRole, bd.Role)
	}
	return factory(b, bd)
}

// Roles returns the supported roles, sorted.
func (f Factories) Roles() []Role {
	roles := make([]Role, 0, len(f))
	for role := range f {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}
