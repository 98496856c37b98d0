package rxscan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "github.com/stephenafamo/fakedb"
)

type (
	strstr = [][2]string
	rows   = [][]any
)

type stdQ struct {
	*sql.DB
}

func (s stdQ) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	return s.DB.QueryContext(ctx, query, args...)
}

func createDB(tb testing.TB, cols [][2]string) (*sql.DB, func()) {
	tb.Helper()
	db, err := sql.Open("test", "foo")
	if err != nil {
		tb.Fatalf("Error opening testdb %v", err)
	}

	first := true
	b := &strings.Builder{}
	fmt.Fprintf(b, "CREATE|%s|", tableName(tb))

	for _, def := range cols {
		if !first {
			b.WriteString(",")
		} else {
			first = false
		}

		fmt.Fprintf(b, "%s=%s", def[0], def[1])
	}

	exec(tb, db, b.String())
	return db, func() {
		exec(tb, db, fmt.Sprintf("DROP|%s", tableName(tb)))
	}
}

// fakedb uses "|" as a separator, subtests use "/"
func tableName(tb testing.TB) string {
	return strings.ReplaceAll(tb.Name(), "/", "_")
}

func exec(tb testing.TB, exec *sql.DB, query string, args ...interface{}) sql.Result {
	tb.Helper()
	result, err := exec.ExecContext(context.Background(), query, args...)
	if err != nil {
		tb.Fatalf("Exec of %q: %v", query, err)
	}

	return result
}

func insert(tb testing.TB, ex *sql.DB, cols []string, vals ...[]any) {
	tb.Helper()
	query := fmt.Sprintf("INSERT|%s|%s=?", tableName(tb), strings.Join(cols, "=?,"))
	for _, val := range vals {
		exec(tb, ex, query, val...)
	}
}

func createQuery(tb testing.TB, cols []string) string {
	tb.Helper()
	return fmt.Sprintf("SELECT|%s|%s|", tableName(tb), strings.Join(cols, ","))
}

// queryRows creates a table with the given columns and rows and runs a
// select over all of them. The rows are closed when the test ends.
func queryRows(tb testing.TB, columns strstr, data rows) *sql.Rows {
	tb.Helper()

	ex, clean := createDB(tb, columns)
	insert(tb, ex, colSliceFromMap(columns), data...)

	r, err := ex.Query(createQuery(tb, colSliceFromMap(columns)))
	if err != nil {
		tb.Fatalf("query: %v", err)
	}

	tb.Cleanup(func() {
		r.Close()
		clean()
		ex.Close()
	})

	return r
}

func colSliceFromMap(c [][2]string) []string {
	s := make([]string, 0, len(c))
	for _, def := range c {
		s = append(s, def[0])
	}
	return s
}

func singleRows[T any](vals ...T) rows {
	r := make(rows, len(vals))
	for k, v := range vals {
		r[k] = []any{v}
	}

	return r
}

func randate() time.Time {
	min := time.Date(1970, 1, 0, 0, 0, 0, 0, time.UTC).Unix()
	max := time.Date(2070, 1, 0, 0, 0, 0, 0, time.UTC).Unix()
	delta := max - min

	sec := rand.Int63n(delta) + min
	return time.Unix(sec, 0)
}

// event is a single signal received by a recorder
type event struct {
	Kind  string
	Value any
	Err   error
}

func next(v any) event       { return event{Kind: "next", Value: v} }
func failed(err error) event { return event{Kind: "error", Err: err} }
func completed() event       { return event{Kind: "completed"} }

// recorder is an Observer that keeps every signal in order
type recorder[T any] struct {
	events []event
}

func (r *recorder[T]) OnNext(v T) {
	r.events = append(r.events, next(v))
}

func (r *recorder[T]) OnError(err error) {
	r.events = append(r.events, failed(err))
}

func (r *recorder[T]) OnCompleted() {
	r.events = append(r.events, completed())
}

func diffEvents(expected, got []event) string {
	return cmp.Diff(expected, got, equateErrors())
}

// fakeRows is a cursor over in-memory values that can fail on demand
type fakeRows struct {
	columns []string
	values  [][]any
	current int

	nextCalls int
	closed    bool

	failNextAt int // 1-based row that fails to advance, 0 for never
	failScanAt int // 1-based row that fails to scan, 0 for never
	failErr    error
	err        error
}

func newFakeRows(columns []string, values ...[]any) *fakeRows {
	return &fakeRows{columns: columns, values: values, current: -1}
}

func (f *fakeRows) Columns() ([]string, error) {
	return f.columns, nil
}

func (f *fakeRows) Next() bool {
	f.nextCalls++
	if f.err != nil {
		return false
	}

	if f.failNextAt != 0 && f.current+2 == f.failNextAt {
		f.err = f.failErr
		return false
	}

	if f.current+1 >= len(f.values) {
		f.current = len(f.values)
		return false
	}

	f.current++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	if f.failScanAt != 0 && f.current+1 == f.failScanAt {
		return f.failErr
	}

	if len(dest) != len(f.columns) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(f.columns), len(dest))
	}

	for i, d := range dest {
		if err := assign(d, f.values[f.current][i]); err != nil {
			return err
		}
	}

	return nil
}

func (f *fakeRows) Close() error {
	f.closed = true
	return nil
}

func (f *fakeRows) Err() error {
	return f.err
}

// errors without metadata are compared by their message
func convertMappingError(m *MappingError) string {
	if len(m.meta) == 0 {
		return m.Error()
	}

	return strings.Join(m.meta, " ")
}

func diffErr(expected, got error) string {
	return cmp.Diff(expected, got, cmp.Transformer("convertMappingErr", convertMappingError), equateErrors())
}

// equateErrors returns a Comparer option that determines errors to be equal
// if errors.Is reports them to match.
func equateErrors() cmp.Option {
	return cmp.FilterValues(nonMappingErrors, cmp.Comparer(compareErrors))
}

// nonMappingErrors reports whether x and y are types that implement error.
// The input types are deliberately of the interface{} type rather than the
// error type so that we can handle situations where the current type is an
// interface{}, but the underlying concrete types both happen to implement
// the error interface.
func nonMappingErrors(x, y error) bool {
	var me *MappingError
	ok1 := errors.As(x, &me)
	ok2 := errors.As(y, &me)
	return !(ok1 && ok2)
}

func compareErrors(xe, ye error) bool {
	if xe == nil || ye == nil {
		return xe == ye
	}

	if errors.Is(xe, ye) || errors.Is(ye, xe) {
		return true
	}

	return xe.Error() == ye.Error()
}
