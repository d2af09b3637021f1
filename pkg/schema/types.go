package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Type validates one field value.
type Type interface {
	Name() string
	Validate(value any) error
}

// scalar is a named type checked by a single predicate.
type scalar struct {
	name string
	ok   func(any) bool
}

func (s scalar) Name() string { return s.name }

func (s scalar) Validate(value any) error {
	if !s.ok(value) {
		return fmt.Errorf("expected %s, got %T", s.name, value)
	}
	return nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func isNumber(v any) bool {
	switch v.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return true
	}
	return false
}

type integer struct{}

func (integer) Name() string { return "int" }

// Validate accepts whole float64 values, which is how JSON decodes integers.
func (integer) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		if v != float64(int64(v)) {
			return fmt.Errorf("expected int, got fractional %v", v)
		}
		return nil
	}
	return fmt.Errorf("expected int, got %T", value)
}

type list struct{ elem Type }

func (l list) Name() string { return "[" + l.elem.Name() + "]" }

func (l list) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return fmt.Errorf("expected %s, got %T", l.Name(), value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := l.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type optional struct{ elem Type }

func (o optional) Name() string { return o.elem.Name() + "?" }

func (o optional) Validate(value any) error {
	if value == nil {
		return nil
	}
	return o.elem.Validate(value)
}

func isOptional(t Type) bool {
	_, ok := t.(optional)
	return ok
}

type custom struct {
	name     string
	validate func(any) error
}

func (c custom) Name() string { return c.name }

func (c custom) Validate(value any) error { return c.validate(value) }

var scalars = map[string]Type{
	"string": scalar{"string", isString},
	"int":    integer{},
	"float":  scalar{"float", isNumber},
	"bool":   scalar{"bool", isBool},
	"object": scalar{"object", isObject},
	"any":    scalar{"any", func(any) bool { return true }},
}

// Scalar constructors. Float accepts any Go number and Any accepts nil.

func String() Type { return scalars["string"] }

func Int() Type { return scalars["int"] }

func Float() Type { return scalars["float"] }

func Bool() Type { return scalars["bool"] }

func Object() Type { return scalars["object"] }

func Any() Type { return scalars["any"] }

// Slice matches slices and arrays whose every element matches elem.
func Slice(elem Type) Type { return list{elem} }

// Optional also accepts nil and, inside a Schema, a missing field.
func Optional(elem Type) Type { return optional{elem} }

// Custom wraps validate under name.
func Custom(name string, validate func(any) error) Type {
	return custom{name: name, validate: validate}
}

// ParseType reads a type name such as "int", "[string]" or "[int]?".
func ParseType(name string) (Type, error) {
	if inner, ok := strings.CutSuffix(name, "?"); ok && inner != "" {
		t, err := ParseType(inner)
		if err != nil {
			return nil, err
		}
		return Optional(t), nil
	}
	if len(name) > 2 && name[0] == '[' && name[len(name)-1] == ']' {
		t, err := ParseType(name[1 : len(name)-1])
		if err != nil {
			return nil, err
		}
		return Slice(t), nil
	}
	if t, ok := scalars[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unsupported type: %q", name)
}

// ParseTypeMap parses every entry of fields, e.g. {"api_key": "string", "retries": "int"}.
func ParseTypeMap(fields map[string]string) (Schema, error) {
	s := make(Schema, len(fields))
	for field, name := range fields {
		t, err := ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		s[field] = t
	}
	return s, nil
}
