package overlay

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/yzconfig/internal/settings"
)

// Instance is a materialized configuration. The engine sets every field once
// during New; afterwards callers own the values.
type Instance struct {
	schema *Schema
	prefix string
	source settings.Source
	values map[string]any
}

// Schema returns the schema the instance was built from.
func (i *Instance) Schema() *Schema {
	return i.schema
}

// Prefix returns the prefix used when reading the source.
func (i *Instance) Prefix() string {
	return i.prefix
}

// Source returns the settings source the instance was built from.
func (i *Instance) Source() settings.Source {
	return i.source
}

// Lookup returns the value of name.
func (i *Instance) Lookup(name string) (any, bool) {
	v, ok := i.values[name]
	return v, ok
}

// Get returns the value of name, or ErrUnknownField when name was never
// declared or set.
func (i *Instance) Get(name string) (any, error) {
	v, ok := i.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return v, nil
}

// Set assigns name. Hooks use it to derive hidden values.
func (i *Instance) Set(name string, v any) {
	i.values[name] = v
}

// Names returns the names of all values held by the instance, sorted.
func (i *Instance) Names() []string {
	names := make([]string, 0, len(i.values))
	for name := range i.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Public returns a copy of the non-hidden values.
func (i *Instance) Public() map[string]any {
	out := make(map[string]any, len(i.values))
	for name, v := range i.values {
		if !IsHidden(name) {
			out[name] = v
		}
	}
	return out
}

// Decode copies the public values into out, which is typically a pointer to a
// struct whose yaml tags match field names.
func (i *Instance) Decode(out any) error {
	data, err := yaml.Marshal(i.Public())
	if err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode values: %w", err)
	}
	return nil
}

// Value returns name from inst as T.
func Value[T any](inst *Instance, name string) (T, error) {
	var zero T
	v, err := inst.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, not %T", ErrFieldType, name, v, zero)
	}
	return typed, nil
}
