package rxscan

import (
	"fmt"
	"strconv"
)

// ColumnValue scans the column at the 1-based index of the current row into T.
// The other columns of the row are read and discarded.
func ColumnValue[T any](r Rows, index int) (T, error) {
	var t T
	err := scanColumn(r, index, &t)
	return t, err
}

func scanColumn(r Rows, index int, dest any) error {
	cols, err := r.Columns()
	if err != nil {
		return err
	}

	targets, err := createTargets(len(cols), index, dest)
	if err != nil {
		return err
	}

	return r.Scan(targets...)
}

// columnIndex returns the 1-based index of the column with the given label
func columnIndex(r Rows, label string) (int, error) {
	cols, err := r.Columns()
	if err != nil {
		return 0, err
	}

	for i, name := range cols {
		if name == label {
			return i + 1, nil
		}
	}

	return 0, createError(fmt.Errorf("unknown column %q", label), "unknown column", label)
}

func createTargets(n, index int, dest any) ([]any, error) {
	if index < 1 || index > n {
		err := fmt.Errorf("column index %d out of range [1, %d]", index, n)
		return nil, createError(err, "column index", strconv.Itoa(index))
	}

	targets := make([]any, n)
	for i := range targets {
		if i == index-1 {
			targets[i] = dest
			continue
		}

		// See https://github.com/golang/go/issues/41607:
		// Some drivers cannot work with nil values, so valid pointers should be
		// used for all column targets, even if they are discarded afterwards.
		targets[i] = new(interface{})
	}

	return targets, nil
}
