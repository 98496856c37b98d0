package rxscan

import (
	"context"
)

// Queryer is the main interface used in this package
// it is expected to acquire a statement, run the query and args
// and return a set of Rows
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
}

// Row represents a single row in the Rows results
// can be scanned into a number of given values
type Row interface {
	Scan(...any) error
}

// Rows is the forward-only cursor drained by this package.
// A failure while advancing is reported by Next returning false
// and Err returning a non-nil error.
// The package never closes Rows it did not open itself.
type Rows interface {
	Row
	Columns() ([]string, error)
	Next() bool
	Close() error
	Err() error
}
