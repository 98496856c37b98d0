package rxscan

import (
	"errors"
	"fmt"
	"strconv"
)

// The generator functions do not return an error themselves to make them
// less cumbersome, so we return a mapper that only returns an error instead
func errorMapper[T any](err error, meta ...string) RowMapper[T] {
	err = createError(err, meta...)

	return func(Rows, int) (T, error) {
		var t T
		return t, err
	}
}

// Returns a [MappingError] with some optional metadata
func createError(err error, meta ...string) error {
	if me, ok := err.(*MappingError); ok && len(meta) == 0 {
		return me
	}

	return &MappingError{cause: err, meta: meta}
}

// MappingError wraps another error and holds some additional metadata
type MappingError struct {
	meta  []string // easy compare
	cause error
}

// Unwrap returns the wrapped error
func (m *MappingError) Unwrap() error {
	return m.cause
}

// Error implements the error interface
func (m *MappingError) Error() string {
	return m.cause.Error()
}

// Equal makes it easy to compare mapping errors
func (m *MappingError) Equal(err error) bool {
	var m2 *MappingError
	if !errors.As(err, &m2) {
		return errors.Is(m, err) || errors.Is(err, m)
	}

	if len(m.meta) != len(m2.meta) {
		return false
	}

	// if no meta, the error strings should match exactly
	if len(m.meta) == 0 {
		return m.Error() == m2.Error()
	}

	for k := range m.meta {
		if m.meta[k] != m2.meta[k] {
			return false
		}
	}

	return true
}

// For queries that return only one column
// returns an error if there is more than one column
func SingleColumnMapper[T any](r Rows, _ int) (T, error) {
	var t T

	cols, err := r.Columns()
	if err != nil {
		return t, err
	}

	if len(cols) != 1 {
		err := fmt.Errorf("Expected 1 column but got %d columns", len(cols))
		return t, createError(err, "wrong column count", "1", strconv.Itoa(len(cols)))
	}

	err = r.Scan(&t)
	return t, err
}

// Map a column by its 1-based index.
func ColumnMapper[T any](index int) RowMapper[T] {
	return func(r Rows, _ int) (T, error) {
		return ColumnValue[T](r, index)
	}
}

// Map a column by its label.
func LabelMapper[T any](label string) RowMapper[T] {
	return func(r Rows, _ int) (T, error) {
		index, err := columnIndex(r, label)
		if err != nil {
			var t T
			return t, err
		}

		return ColumnValue[T](r, index)
	}
}

// Maps each row into []T in the order of the columns
func SliceMapper[T any](r Rows, _ int) ([]T, error) {
	cols, err := r.Columns()
	if err != nil {
		return nil, err
	}

	row := make([]T, len(cols))
	targets := make([]any, len(cols))
	for i := range row {
		targets[i] = &row[i]
	}

	if err := r.Scan(targets...); err != nil {
		return nil, err
	}

	return row, nil
}

// Maps all rows into map[string]T
// Most likely used with interface{} to get a map[string]interface{}
func MapMapper[T any](r Rows, i int) (map[string]T, error) {
	cols, err := r.Columns()
	if err != nil {
		return nil, err
	}

	vals, err := SliceMapper[T](r, i)
	if err != nil {
		return nil, err
	}

	row := make(map[string]T, len(cols))
	for k, name := range cols {
		row[name] = vals[k]
	}

	return row, nil
}
