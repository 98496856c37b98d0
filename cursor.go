package rxscan

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/aarondl/opt"
)

var errNoRow = errors.New("Scan called without calling Next")

// snapshot is an in-memory copy of a result set.
// It implements [Rows] so it can be drained like a live cursor.
type snapshot struct {
	columns []string
	rows    [][]any
	current int
	err     error // replayed once every buffered row has been read
}

// takeSnapshot reads every row of r.
// A failure to read the columns is returned directly. Iteration errors are
// kept and reported by Err once the rows read before them are consumed.
func takeSnapshot(r Rows) (*snapshot, error) {
	cols, err := r.Columns()
	if err != nil {
		return nil, err
	}

	s := &snapshot{columns: cols, current: -1}

	for r.Next() {
		row, err := readRow(r, len(cols))
		if err != nil {
			s.err = err
			return s, nil
		}

		s.rows = append(s.rows, row)
	}

	s.err = r.Err()
	return s, nil
}

func readRow(r Row, n int) ([]any, error) {
	targets := make([]any, n)
	for i := range targets {
		targets[i] = new(any)
	}

	if err := r.Scan(targets...); err != nil {
		return nil, err
	}

	row := make([]any, n)
	for i, t := range targets {
		row[i] = *(t.(*any))
	}

	return row, nil
}

func (s *snapshot) Columns() ([]string, error) {
	cols := make([]string, len(s.columns))
	copy(cols, s.columns)
	return cols, nil
}

func (s *snapshot) Next() bool {
	if s.current+1 < len(s.rows) {
		s.current++
		return true
	}

	s.current = len(s.rows)
	return false
}

func (s *snapshot) Err() error {
	if s.current < len(s.rows) {
		return nil
	}

	return s.err
}

func (s *snapshot) Close() error {
	return nil
}

func (s *snapshot) Scan(dest ...any) error {
	if s.current < 0 || s.current >= len(s.rows) {
		return errNoRow
	}

	if len(dest) != len(s.columns) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(s.columns), len(dest))
	}

	row := s.rows[s.current]
	for i, d := range dest {
		if err := assign(d, row[i]); err != nil {
			return fmt.Errorf("Scan error on column index %d, name %q: %w", i, s.columns[i], err)
		}
	}

	return nil
}

// assign stores a driver value in dest the way database/sql would
func assign(dest, src any) error {
	if p, ok := dest.(*any); ok {
		*p = src
		return nil
	}

	if v, ok := src.(driver.Valuer); ok {
		var err error
		if src, err = v.Value(); err != nil {
			return err
		}
	}

	return opt.ConvertAssign(dest, src)
}
