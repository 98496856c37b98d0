package stdscan

import (
	"context"
	"database/sql"

	"github.com/stephenafamo/rxscan"
)

// Query prepares the statement, runs it and returns a [rxscan.Sequence] of
// the mapped rows. The statement and its rows are both released before Query
// returns. This is for use with *sql.DB, *sql.Tx or *sql.Conn or any similar
// implementations.
func Query[T any](ctx context.Context, exec Preparer, m rxscan.RowMapper[T], query string, args ...any) rxscan.Sequence[T] {
	return rxscan.Query(ctx, convert(exec), m, query, args...)
}

// QueryRowSet prepares the statement, runs it and reads the result into a
// [rxscan.CachedRowSet]
func QueryRowSet(ctx context.Context, exec Preparer, query string, args ...any) (*rxscan.CachedRowSet, error) {
	return rxscan.QueryRowSet(ctx, convert(exec), query, args...)
}

// A Preparer that returns the concrete type *sql.Stmt
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// convert wraps a Preparer and makes it a Queryer
func convert[T Preparer](wrapped T) rxscan.Queryer {
	return queryer[T]{wrapped: wrapped}
}

type queryer[T Preparer] struct {
	wrapped T
}

// QueryContext prepares the query and executes it with the args.
// Closing the returned rows also closes the statement.
func (q queryer[T]) QueryContext(ctx context.Context, query string, args ...any) (rxscan.Rows, error) {
	stmt, err := q.wrapped.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}

	r, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		stmt.Close()
		return nil, err
	}

	return rows{Rows: r, stmt: stmt}, nil
}

type rows struct {
	*sql.Rows
	stmt *sql.Stmt
}

func (r rows) Close() error {
	err := r.Rows.Close()
	if serr := r.stmt.Close(); err == nil {
		err = serr
	}

	return err
}
