package settings

import (
	"reflect"
)

// TagName overrides the lookup name of a struct field. "-" hides the field.
const TagName = "setting"

// Struct reads settings from the exported fields of a struct value. Fields of
// embedded structs are promoted the same way Go promotes them.
type Struct struct {
	value  reflect.Value
	fields map[string][]int
}

// FromStruct wraps a struct or a pointer to a struct. When a pointer is given
// lookups observe later changes to the pointee.
func FromStruct(v any) (*Struct, error) {
	src, err := From(v)
	if err != nil {
		return nil, err
	}
	s, ok := src.(*Struct)
	if !ok {
		return nil, ErrUnsupportedSource
	}
	return s, nil
}

func newStruct(rv reflect.Value) *Struct {
	t := rv.Type()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	fields := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup(TagName); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fields[name] = f.Index
	}

	return &Struct{value: rv, fields: fields}
}

// Lookup returns the current value of the field registered under name.
func (s *Struct) Lookup(name string) (any, bool) {
	idx, ok := s.fields[name]
	if !ok {
		return nil, false
	}

	rv := s.value
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	field, err := rv.FieldByIndexErr(idx)
	if err != nil {
		// nil embedded pointer on the path
		return nil, false
	}
	return field.Interface(), true
}
