package rxscan

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrNoCurrentRow is the cause of an [InvalidAccessError] when a value is
// read while the row set is not positioned on a row
var ErrNoCurrentRow = stderrors.New("row set is not positioned on a row")

// RowSet is a result whose accessors never return errors.
// Every failure to advance or to read a column panics with an
// [*InvalidAccessError] instead.
// Column indexes start at 1.
type RowSet interface {
	// Next moves to the next row and reports whether there is one
	Next() bool
	// Row is the 1-based number of the current row, 0 if there is none
	Row() int
	Columns() []string
	// FindColumn returns the index of the column with the given label
	FindColumn(label string) int
	Value(index int) any
	String(index int) string
	Int64(index int) int64
	Float64(index int) float64
	Bool(index int) bool
	Time(index int) time.Time
	// WasNull reports whether the last column read was NULL
	WasNull() bool
}

// InvalidAccessError is the panic value of a failed [RowSet] access
type InvalidAccessError struct {
	Op    string
	Index int
	Label string
	cause error
}

// Unwrap returns the wrapped error
func (e *InvalidAccessError) Unwrap() error {
	return e.cause
}

// Error implements the error interface
func (e *InvalidAccessError) Error() string {
	switch {
	case e.Label != "":
		return fmt.Sprintf("invalid row set access: %s(%q): %v", e.Op, e.Label, e.cause)
	case e.Index != 0:
		return fmt.Sprintf("invalid row set access: %s(%d): %v", e.Op, e.Index, e.cause)
	default:
		return fmt.Sprintf("invalid row set access: %s: %v", e.Op, e.cause)
	}
}

// RowSetMapper maps the current row of the row set to T.
// It is called once per row, with the row index starting at 0.
type RowSetMapper[T any] func(RowSet, int) T

// DrainRowSet is [Drain] for a [RowSet].
//
// Only panics carrying an [*InvalidAccessError] are turned into an OnError
// signal followed by OnCompleted. Any other panic from the row set or the
// mapper is not recovered: it propagates out of DrainRowSet and o is not
// completed.
func DrainRowSet[T any](o Observer[T], rs RowSet, m RowSetMapper[T]) {
	if err := feedRowSet(o, rs, m); err != nil {
		o.OnError(err)
	}

	o.OnCompleted()
}

// FromRowSet returns a lazy [Sequence] that drains rs on every subscription.
// The row set is not rewound between subscriptions.
func FromRowSet[T any](rs RowSet, m RowSetMapper[T]) Sequence[T] {
	return Create(func(o Observer[T]) {
		DrainRowSet(o, rs, m)
	})
}

func feedRowSet[T any](o Observer[T], rs RowSet, m RowSetMapper[T]) (err error) {
	// a panic(nil) recovers as nil, so completion is tracked separately
	done := false
	defer func() {
		if !done {
			err = invalidAccess(recover())
		}
	}()

	err = feed(o, rowSetCursor{rs}, func(i int) (T, error) {
		return m(rs, i), nil
	})
	done = true

	return err
}

// invalidAccess narrows a recovered panic value to an InvalidAccessError.
// Anything else is re-panicked.
func invalidAccess(r any) error {
	if err, ok := r.(error); ok {
		var iae *InvalidAccessError
		if stderrors.As(err, &iae) {
			return errors.WithStack(err)
		}
	}

	panic(r)
}

type rowSetCursor struct {
	RowSet
}

func (rowSetCursor) Err() error {
	return nil
}

var _ RowSet = (*CachedRowSet)(nil)

// CachedRowSet is a disconnected [RowSet] holding a full result in memory
type CachedRowSet struct {
	snap    *snapshot
	wasNull bool
}

// NewRowSet reads every row of r into a [CachedRowSet].
// r is not closed.
func NewRowSet(r Rows) (*CachedRowSet, error) {
	snap, err := takeSnapshot(r)
	if err != nil {
		return nil, err
	}

	if snap.err != nil {
		return nil, snap.err
	}

	return &CachedRowSet{snap: snap}, nil
}

// QueryRowSet runs the query and reads the whole result into a [CachedRowSet].
// The underlying rows are closed before it returns.
func QueryRowSet(ctx context.Context, exec Queryer, query string, args ...any) (*CachedRowSet, error) {
	snap, err := querySnapshot(ctx, exec, query, args...)
	if err != nil {
		return nil, err
	}

	if snap.err != nil {
		return nil, &QueryError{Query: query, cause: errors.WithStack(snap.err)}
	}

	return &CachedRowSet{snap: snap}, nil
}

func (c *CachedRowSet) Next() bool {
	return c.snap.Next()
}

// BeforeFirst moves the row set back to before its first row
func (c *CachedRowSet) BeforeFirst() {
	c.snap.current = -1
}

func (c *CachedRowSet) Row() int {
	if c.snap.current < 0 || c.snap.current >= len(c.snap.rows) {
		return 0
	}

	return c.snap.current + 1
}

// Len returns the number of rows held
func (c *CachedRowSet) Len() int {
	return len(c.snap.rows)
}

func (c *CachedRowSet) Columns() []string {
	cols, _ := c.snap.Columns()
	return cols
}

func (c *CachedRowSet) FindColumn(label string) int {
	for i, name := range c.snap.columns {
		if name == label {
			return i + 1
		}
	}

	panic(&InvalidAccessError{
		Op:    "FindColumn",
		Label: label,
		cause: stderrors.New("no such column"),
	})
}

func (c *CachedRowSet) Value(index int) any {
	var v any
	c.read("Value", index, &v)
	return v
}

func (c *CachedRowSet) String(index int) string {
	var s string
	c.read("String", index, &s)
	return s
}

func (c *CachedRowSet) Int64(index int) int64 {
	var i int64
	c.read("Int64", index, &i)
	return i
}

func (c *CachedRowSet) Float64(index int) float64 {
	var f float64
	c.read("Float64", index, &f)
	return f
}

func (c *CachedRowSet) Bool(index int) bool {
	var b bool
	c.read("Bool", index, &b)
	return b
}

func (c *CachedRowSet) Time(index int) time.Time {
	var t time.Time
	c.read("Time", index, &t)
	return t
}

func (c *CachedRowSet) WasNull() bool {
	return c.wasNull
}

// read leaves dest untouched when the value is NULL
func (c *CachedRowSet) read(op string, index int, dest any) {
	if c.Row() == 0 {
		panic(&InvalidAccessError{Op: op, Index: index, cause: ErrNoCurrentRow})
	}

	if index < 1 || index > len(c.snap.columns) {
		panic(&InvalidAccessError{
			Op:    op,
			Index: index,
			cause: fmt.Errorf("column index out of range [1, %d]", len(c.snap.columns)),
		})
	}

	v := c.snap.rows[c.snap.current][index-1]
	c.wasNull = v == nil
	if v == nil {
		return
	}

	if err := assign(dest, v); err != nil {
		panic(&InvalidAccessError{Op: op, Index: index, cause: err})
	}
}
