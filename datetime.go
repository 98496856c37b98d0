package rxscan

import (
	"database/sql"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/aarondl/opt/omit"
)

// LocalDateTime reads the timestamp at the 1-based column index as a UTC time.
// A NULL column gives an unset value.
func LocalDateTime(r Rows, index int) (omit.Val[time.Time], error) {
	var ts sql.NullTime
	if err := scanColumn(r, index, &ts); err != nil {
		return omit.Val[time.Time]{}, err
	}

	if !ts.Valid {
		return omit.Val[time.Time]{}, nil
	}

	return omit.From(ts.Time.UTC()), nil
}

// DateTime reads the timestamp at the 1-based column index.
// A NULL column gives a null value.
func DateTime(r Rows, index int) (null.Val[time.Time], error) {
	var ts sql.NullTime
	if err := scanColumn(r, index, &ts); err != nil {
		return null.Val[time.Time]{}, err
	}

	if !ts.Valid {
		return null.Val[time.Time]{}, nil
	}

	return null.From(ts.Time), nil
}
