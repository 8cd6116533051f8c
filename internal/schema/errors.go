package schema

import (
	"errors"
	"fmt"
)

// Validation failure categories. Every error returned by Validate wraps
// exactly one of these.
var (
	// ErrUnknownKey indicates a key that is not part of the schema.
	ErrUnknownKey = errors.New("schema: unknown key")

	// ErrForbiddenKey indicates a key that only the generator may set.
	ErrForbiddenKey = errors.New("schema: key may not be set by the caller")

	// ErrWrongType indicates a value of the wrong kind (e.g. 1 for a bool).
	ErrWrongType = errors.New("schema: wrong value type")

	// ErrOutOfRange indicates a scalar or vector component outside its bounds.
	ErrOutOfRange = errors.New("schema: value out of range")

	// ErrWrongLength indicates a vector with the wrong number of components.
	ErrWrongLength = errors.New("schema: wrong vector length")

	// ErrDisallowedValue indicates a string outside the allowed set.
	ErrDisallowedValue = errors.New("schema: value not allowed")
)

// ValidationError carries the offending key and value.
type ValidationError struct {
	Key    string
	Value  any
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v (%v)", e.Err, e.Key, e.Value)
	}
	return fmt.Sprintf("%s: %s: %s", e.Err, e.Key, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func fail(key string, val any, err error, format string, args ...any) error {
	return &ValidationError{Key: key, Value: val, Err: err, Detail: fmt.Sprintf(format, args...)}
}
