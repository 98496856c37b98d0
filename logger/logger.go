// Package logger holds the zerolog logger used by rxscan.
//
// Importing it sets the process-wide zerolog.ErrorStackMarshaler to
// pkgerrors.MarshalStack, and zerolog.TimeFieldFormat to unix time when
// stderr is not a terminal. Both are package variables of zerolog and
// cannot be set per logger.
package logger

import (
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Log is the logger for query failures and debug output. Warn level by default.
var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// enable pretty printing for interactive terminals and json for production.
func init() {
	// for tty terminal enable pretty logs
	if isatty.IsTerminal(os.Stderr.Fd()) && runtime.GOOS != "windows" {
		Log = Log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		// UNIX Time is faster and smaller than most timestamps
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}

	// stack traces of errors wrapped with github.com/pkg/errors
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	// by default only log warnings and errors
	SetLogLevel(zerolog.WarnLevel)
}

func SetLogLevel(l zerolog.Level) {
	Log = Log.Level(l)
}

func SetLogOutput(w io.Writer) {
	Log = Log.Output(w)
}
