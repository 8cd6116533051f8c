package schema

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/san-kum/spiritgen/internal/numfmt"
)

// Rule validates one value and renders its config-file text.
type Rule interface {
	Format(key string, val any) (string, error)
	Describe() string
}

// Range bounds a numeric value. A nil bound is open.
type Range struct {
	Min *float64
	Max *float64
}

func Between(lo, hi float64) Range { return Range{Min: &lo, Max: &hi} }

func AtLeast(lo float64) Range { return Range{Min: &lo} }

func (r Range) check(key string, val any, v float64) error {
	if math.IsNaN(v) {
		return fail(key, val, ErrOutOfRange, "NaN is not a valid value")
	}
	if r.Min != nil && v < *r.Min {
		return fail(key, val, ErrOutOfRange, "%v < %v", v, *r.Min)
	}
	if r.Max != nil && v > *r.Max {
		return fail(key, val, ErrOutOfRange, "%v > %v", v, *r.Max)
	}
	return nil
}

func (r Range) String() string {
	if r.Min == nil && r.Max == nil {
		return ""
	}
	lo, hi := "-inf", "inf"
	if r.Min != nil {
		lo = numfmt.Float(*r.Min)
	}
	if r.Max != nil {
		hi = numfmt.Float(*r.Max)
	}
	return fmt.Sprintf(" [%s, %s]", lo, hi)
}

type Bool struct{}

func (Bool) Format(key string, val any) (string, error) {
	b, ok := val.(bool)
	if !ok {
		return "", fail(key, val, ErrWrongType, "expected a boolean, got %T", val)
	}
	return boolText(b), nil
}

func (Bool) Describe() string { return "bool" }

type BoolVector struct {
	Len int
}

func (r BoolVector) Format(key string, val any) (string, error) {
	items, err := vector(key, val, r.Len)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(items))
	for i, item := range items {
		b, ok := item.(bool)
		if !ok {
			return "", fail(key, val, ErrWrongType, "component %d: expected a boolean, got %T", i, item)
		}
		parts[i] = boolText(b)
	}
	return strings.Join(parts, " "), nil
}

func (r BoolVector) Describe() string { return fmt.Sprintf("bool[%d]", r.Len) }

type Int struct {
	Range
}

func (r Int) Format(key string, val any) (string, error) {
	v, ok := asInt(val)
	if !ok {
		return "", fail(key, val, ErrWrongType, "expected an integer, got %T", val)
	}
	if err := r.check(key, val, float64(v)); err != nil {
		return "", err
	}
	return numfmt.Int(v), nil
}

func (r Int) Describe() string { return "int" + r.Range.String() }

type IntVector struct {
	Len int
	Range
}

func (r IntVector) Format(key string, val any) (string, error) {
	items, err := vector(key, val, r.Len)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(items))
	for i, item := range items {
		v, ok := asInt(item)
		if !ok {
			return "", fail(key, val, ErrWrongType, "component %d: expected an integer, got %T", i, item)
		}
		if err := r.check(key, val, float64(v)); err != nil {
			return "", err
		}
		parts[i] = numfmt.Int(v)
	}
	return strings.Join(parts, " "), nil
}

func (r IntVector) Describe() string { return fmt.Sprintf("int[%d]%s", r.Len, r.Range) }

type Float struct {
	Range
}

func (r Float) Format(key string, val any) (string, error) {
	text, v, ok := asFloat(val)
	if !ok {
		return "", fail(key, val, ErrWrongType, "expected a number, got %T", val)
	}
	if err := r.check(key, val, v); err != nil {
		return "", err
	}
	return text, nil
}

func (r Float) Describe() string { return "float" + r.Range.String() }

// FloatVector with Len 0 accepts any non-empty length.
type FloatVector struct {
	Len int
	Range
}

func (r FloatVector) Format(key string, val any) (string, error) {
	items, err := vector(key, val, r.Len)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(items))
	for i, item := range items {
		text, v, ok := asFloat(item)
		if !ok {
			return "", fail(key, val, ErrWrongType, "component %d: expected a number, got %T", i, item)
		}
		if err := r.check(key, val, v); err != nil {
			return "", err
		}
		parts[i] = text
	}
	return strings.Join(parts, " "), nil
}

func (r FloatVector) Describe() string {
	if r.Len == 0 {
		return "float[]" + r.Range.String()
	}
	return fmt.Sprintf("float[%d]%s", r.Len, r.Range)
}

type Enum struct {
	Allowed []string
}

func (r Enum) Format(key string, val any) (string, error) {
	s, ok := val.(string)
	if !ok {
		return "", fail(key, val, ErrWrongType, "expected a string, got %T", val)
	}
	for _, a := range r.Allowed {
		if s == a {
			return s, nil
		}
	}
	return "", fail(key, val, ErrDisallowedValue, "%q not in %v", s, r.Allowed)
}

func (r Enum) Describe() string { return "one of " + strings.Join(r.Allowed, "|") }

func boolText(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// vector unpacks any slice or array value. The length is checked before
// any component so a short vector reports a length error, not a type error.
func vector(key string, val any, want int) ([]any, error) {
	if val == nil {
		return nil, fail(key, val, ErrWrongType, "expected a list, got nil")
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fail(key, val, ErrWrongType, "expected a list, got %T", val)
	}
	n := rv.Len()
	if n == 0 {
		return nil, fail(key, val, ErrWrongLength, "list is empty")
	}
	if want > 0 && n != want {
		return nil, fail(key, val, ErrWrongLength, "expected %d components, got %d", want, n)
	}
	items := make([]any, n)
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

func asInt(val any) (int64, bool) {
	switch v := val.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), v <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	}
	return 0, false
}

// asFloat accepts floats and integers. Integers keep their integer text.
func asFloat(val any) (string, float64, bool) {
	switch v := val.(type) {
	case float64:
		return numfmt.Float(v), v, true
	case float32:
		f := float64(v)
		return numfmt.Float(f), f, true
	}
	if i, ok := asInt(val); ok {
		return numfmt.Int(i), float64(i), true
	}
	return "", 0, false
}
