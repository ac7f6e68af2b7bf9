package settings

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Source provides override values by name.
type Source interface {
	Lookup(name string) (any, bool)
}

// Func adapts an ordinary function to Source.
type Func func(name string) (any, bool)

// Lookup calls f(name).
func (f Func) Lookup(name string) (any, bool) {
	return f(name)
}

// Map is a Source backed by an in-memory map.
type Map map[string]any

// Lookup returns the value stored under name.
func (m Map) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Empty holds no settings at all.
var Empty Source = Map{}

// Chain consults sources in order and returns the first hit.
type Chain []Source

// Lookup returns the value from the first source that has name.
func (c Chain) Lookup(name string) (any, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if v, ok := src.Lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

// From adapts an arbitrary value to a Source. Sources are returned as is,
// string-keyed maps become Map and structs (or pointers to structs) are read
// through their exported fields.
func From(v any) (Source, error) {
	switch t := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedSource)
	case Source:
		return t, nil
	case map[string]any:
		return Map(t), nil
	case map[string]string:
		m := make(Map, len(t))
		for k, val := range t {
			m[k] = val
		}
		return m, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct {
		return newStruct(rv), nil
	}
	if rv.Kind() == reflect.Struct {
		return newStruct(rv), nil
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupportedSource, v)
}

// Truthy reports whether v counts as "on". Strings are parsed with
// strconv.ParseBool when possible, so "false" and "0" read as off; any other
// non-empty string is on.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.TrimSpace(t)
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return s != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
