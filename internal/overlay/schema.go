package overlay

import (
	"sort"
	"strings"
)

const (
	// HiddenPrefix marks fields that are never read from a settings source.
	HiddenPrefix = "_"
	// CheckSettingsField is declared on every root schema. A falsy value,
	// whether declared or read from the source under prefix+CheckSettingsField,
	// skips validation.
	CheckSettingsField = "CHECK_SETTINGS"
	// CheckSettingsAttr disables validation for every schema reading a source
	// that holds a falsy value under this name. Strings are read with
	// settings.Truthy, so "false", "False", "0" and "" are all falsy.
	CheckSettingsAttr = "YZCONFIG_CHECK_SETTINGS"
)

// HookFunc runs after values are assigned and before validation.
type HookFunc func(*Instance) error

// CheckFunc validates a populated instance. Failures built with Assert are
// reported as configuration errors.
type CheckFunc func(*Instance) error

// Schema declares configuration fields and their defaults. A schema created
// with Extend inherits every field, hook and check of its parent and may
// override any of them.
type Schema struct {
	name     string
	parent   *Schema
	fields   map[string]any
	onLoaded HookFunc
	check    CheckFunc
}

// NewSchema creates a root schema. It declares CheckSettingsField as true.
func NewSchema(name string) *Schema {
	return &Schema{
		name:   name,
		fields: map[string]any{CheckSettingsField: true},
	}
}

// Extend derives a child schema from s.
func (s *Schema) Extend(name string) *Schema {
	return &Schema{
		name:   name,
		parent: s,
		fields: make(map[string]any),
	}
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Parent returns the schema s was derived from, or nil for a root schema.
func (s *Schema) Parent() *Schema {
	return s.parent
}

// Field declares name with its default value. Redeclaring a field inherited
// from an ancestor overrides the ancestor's default.
func (s *Schema) Field(name string, def any) *Schema {
	s.fields[name] = def
	return s
}

// CheckSettings sets the default of CheckSettingsField.
func (s *Schema) CheckSettings(enabled bool) *Schema {
	return s.Field(CheckSettingsField, enabled)
}

// OnLoaded sets the post-load hook. It replaces any inherited hook; call the
// parent's hook explicitly through Parent().Hook() when both should run.
func (s *Schema) OnLoaded(fn HookFunc) *Schema {
	s.onLoaded = fn
	return s
}

// Check sets the validation function, replacing any inherited one.
func (s *Schema) Check(fn CheckFunc) *Schema {
	s.check = fn
	return s
}

// Hook returns the nearest post-load hook in the chain.
func (s *Schema) Hook() HookFunc {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.onLoaded != nil {
			return cur.onLoaded
		}
	}
	return func(*Instance) error { return nil }
}

// Checker returns the nearest validation function in the chain.
func (s *Schema) Checker() CheckFunc {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.check != nil {
			return cur.check
		}
	}
	return func(*Instance) error { return nil }
}

// Defaults returns every declared field with its effective default, the most
// derived declaration winning.
func (s *Schema) Defaults() map[string]any {
	chain := s.lineage()
	out := make(map[string]any)
	for i := len(chain) - 1; i >= 0; i-- {
		for name, v := range chain[i].fields {
			out[name] = v
		}
	}
	return out
}

// Names returns every declared field name, sorted.
func (s *Schema) Names() []string {
	defaults := s.Defaults()
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ancestors returns the parents of s, nearest first.
func (s *Schema) Ancestors() []*Schema {
	return s.lineage()[1:]
}

func (s *Schema) lineage() []*Schema {
	var chain []*Schema
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	return chain
}

// IsHidden reports whether name is excluded from overlay.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, HiddenPrefix)
}
