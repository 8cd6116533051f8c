package tables

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRow indicates a row with an unusable width or a
	// non-integral index column.
	ErrMalformedRow = errors.New("tables: malformed row")

	// ErrZeroDirection indicates a direction vector of zero length that
	// cannot be normalized.
	ErrZeroDirection = errors.New("tables: zero-length direction vector")

	// ErrPositionsMismatch indicates a positions array that is not
	// index-aligned with the coupling rows.
	ErrPositionsMismatch = errors.New("tables: positions do not match coupling rows")
)

// RowError locates a failure in the input array.
type RowError struct {
	Table string
	Row   int
	Err   error
	Msg   string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v: %s", e.Table, e.Row, e.Err, e.Msg)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func rowErr(table string, row int, err error, format string, args ...any) error {
	return &RowError{Table: table, Row: row, Err: err, Msg: fmt.Sprintf(format, args...)}
}
