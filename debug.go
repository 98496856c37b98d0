package rxscan

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/stephenafamo/rxscan/logger"
)

// Debug wraps q so that every query and its args are logged before running.
// When w is nil the entries go to the package logger.
func Debug(q Queryer, w io.Writer) Queryer {
	return debugQueryer{w: w, q: q}
}

type debugQueryer struct {
	w io.Writer
	q Queryer
}

func (d debugQueryer) zlog() zerolog.Logger {
	if d.w == nil {
		return logger.Log
	}

	return zerolog.New(d.w)
}

func (d debugQueryer) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	log := d.zlog()
	log.Log().Str("query", query).Interface("args", args).Msg("query")
	return d.q.QueryContext(ctx, query, args...)
}
