package rxscan

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/stephenafamo/rxscan/logger"
)

// RowMapper maps the current row of the cursor to T.
// It is called once per row, with the row index starting at 0.
// Any error it returns is delivered to the observer like a cursor error.
type RowMapper[T any] func(Rows, int) (T, error)

// Drain advances rows until it is exhausted, sending each mapped row to o.
// If advancing, scanning or mapping fails, the error is sent to o.OnError
// and no more rows are read.
// o.OnCompleted is always called exactly once, as the final action.
// rows is not closed.
func Drain[T any](o Observer[T], rows Rows, m RowMapper[T]) {
	drain(o, rows, func(i int) (T, error) {
		return m(rows, i)
	})
}

// Extractor binds o and m into a callback that drains the rows it is given,
// for APIs that hand out a cursor instead of returning one.
// The callback returns the error sent to o, if any.
func Extractor[T any](o Observer[T], m RowMapper[T]) func(Rows) error {
	return func(rows Rows) error {
		return drain(o, rows, func(i int) (T, error) {
			return m(rows, i)
		})
	}
}

// FromRows returns a lazy [Sequence] that drains rows on every subscription.
// rows is a single-pass cursor: subscribing again after it has been drained
// yields no values, only completion.
func FromRows[T any](rows Rows, m RowMapper[T]) Sequence[T] {
	return Create(func(o Observer[T]) {
		Drain(o, rows, m)
	})
}

// Query runs the query and returns a [Sequence] of the mapped rows.
//
// The result is read into memory and the underlying rows (and any statement
// held by the queryer) are closed before Query returns, so subscribing later
// does not hold a connection.
// An error that happens while iterating is replayed after the rows that were
// read before it.
//
// Query never returns an error directly. If the query cannot be executed, the
// returned sequence delivers a [*QueryError] and then completes.
func Query[T any](ctx context.Context, exec Queryer, m RowMapper[T], query string, args ...any) Sequence[T] {
	snap, err := querySnapshot(ctx, exec, query, args...)
	if err != nil {
		return Error[T](err)
	}

	return FromRows[T](snap, m)
}

func querySnapshot(ctx context.Context, exec Queryer, query string, args ...any) (*snapshot, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		qerr := &QueryError{Query: query, cause: errors.WithStack(err)}
		logger.Log.Error().Stack().Err(qerr.cause).Str("query", query).Msg("query failed")
		return nil, qerr
	}
	defer rows.Close()

	snap, err := takeSnapshot(rows)
	if err != nil {
		qerr := &QueryError{Query: query, cause: errors.WithStack(err)}
		logger.Log.Error().Stack().Err(qerr.cause).Str("query", query).Msg("reading columns failed")
		return nil, qerr
	}

	return snap, nil
}

// QueryError is delivered when a query could not be executed
type QueryError struct {
	Query string
	cause error
}

// Unwrap returns the wrapped error
func (q *QueryError) Unwrap() error {
	return q.cause
}

// Error implements the error interface
func (q *QueryError) Error() string {
	return fmt.Sprintf("executing query %q: %v", q.Query, q.cause)
}
