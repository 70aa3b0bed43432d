package logger

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// StdLogger writes log entries to os.Stderr using zerolog.
type StdLogger struct {
	log      zerolog.Logger
	logInfo  bool
	logErr   bool
	logTrace bool
}

// NewStdLogger returns a new logger that writes to os.Stderr using zerolog's
// console writer. By default, it logs info and error entries, but not trace
// entries.
func NewStdLogger() *StdLogger {
	return &StdLogger{
		log:     zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger(),
		logErr:  true,
		logInfo: true,
	}
}

// SetFlags is retained for drop-in compatibility with the standard-library
// logger it replaces; zerolog's console writer always includes a
// timestamp, so this is a no-op.
func (l *StdLogger) SetFlags(flag int) *StdLogger {
	return l
}

// SetInfo sets whether info entries should be logged.
func (l *StdLogger) SetInfo(logInfo bool) *StdLogger {
	l.logInfo = logInfo
	return l
}

// SetErr sets whether error entries should be logged.
func (l *StdLogger) SetErr(logErr bool) *StdLogger {
	l.logErr = logErr
	return l
}

// SetTrace sets whether trace entries should be logged.
func (l *StdLogger) SetTrace(logTrace bool) *StdLogger {
	l.logTrace = logTrace
	return l
}

// Infof writes an info log entry.
func (l *StdLogger) Infof(format string, v ...interface{}) {
	if l.logInfo {
		l.log.Info().Msg(fmt.Sprintf(format, v...))
	}
}

// Errorf writes an error log entry.
func (l *StdLogger) Errorf(format string, v ...interface{}) {
	if l.logErr {
		l.log.Error().Msg(fmt.Sprintf(format, v...))
	}
}

// Tracef writes a trace log entry.
func (l *StdLogger) Tracef(format string, v ...interface{}) {
	if l.logTrace {
		l.log.Trace().Msg(fmt.Sprintf(format, v...))
	}
}
