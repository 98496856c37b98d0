package pgxscan

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stephenafamo/rxscan"
)

// Query runs the query and returns a [rxscan.Sequence] of the mapped rows.
// The rows are released before Query returns.
func Query[T any](ctx context.Context, exec Queryer, m rxscan.RowMapper[T], sql string, args ...any) rxscan.Sequence[T] {
	return rxscan.Query(ctx, convert(exec), m, sql, args...)
}

// QueryRowSet runs the query and reads the result into a [rxscan.CachedRowSet]
func QueryRowSet(ctx context.Context, exec Queryer, sql string, args ...any) (*rxscan.CachedRowSet, error) {
	return rxscan.QueryRowSet(ctx, convert(exec), sql, args...)
}

// FromRows returns a lazy [rxscan.Sequence] that drains r on subscription.
// r is not closed.
func FromRows[T any](r pgx.Rows, m rxscan.RowMapper[T]) rxscan.Sequence[T] {
	return rxscan.FromRows[T](rows{r}, m)
}

// A Queryer that returns the concrete type [pgx.Rows]
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// convert wraps an Queryer and makes it a Queryer
func convert(wrapped Queryer) rxscan.Queryer {
	return queryer{wrapped: wrapped}
}

type queryer struct {
	wrapped Queryer
}

type rows struct {
	pgx.Rows
}

func (r rows) Close() error {
	r.Rows.Close()
	return nil
}

func (r rows) Columns() ([]string, error) {
	fields := r.FieldDescriptions()
	cols := make([]string, len(fields))

	for i, field := range fields {
		cols[i] = field.Name
	}

	return cols, nil
}

// QueryContext executes a query that returns rows, typically a SELECT. The args are for any placeholder parameters in the query.
func (q queryer) QueryContext(ctx context.Context, query string, args ...any) (rxscan.Rows, error) {
	r, err := q.wrapped.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return rows{r}, nil
}
