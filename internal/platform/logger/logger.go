// Package logger is a thin wrapper around the standard log package with
// leveled prefixes. One instance is built in main and injected everywhere.
package logger

import (
	"log"
	"os"
)

type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	event *log.Logger
}

func NewLogger() *Logger {
	flags := log.Ldate | log.Ltime | log.Lmicroseconds
	return &Logger{
		info:  log.New(os.Stdout, "[ARENA-INFO] ", flags),
		warn:  log.New(os.Stdout, "[ARENA-WARN] ", flags),
		err:   log.New(os.Stderr, "[ARENA-ERROR] ", flags),
		event: log.New(os.Stdout, "[ARENA-EVENT] ", flags),
	}
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.info.Printf(format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.warn.Printf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.err.Printf(format, v...)
}

// Event logs a game-visible happening, kept apart from operational noise
// so transcripts can be grepped out of server logs.
func (l *Logger) Event(format string, v ...interface{}) {
	l.event.Printf(format, v...)
}
