// Package logger provides leveled logging for the tycoon server.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger writes info/warn to one stream and errors to another.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a logger writing to stdout/stderr.
func NewLogger() *Logger {
	return New(os.Stdout, os.Stderr)
}

// New creates a logger on the given writers.
func New(out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		infoLogger:  log.New(out, "[TYCOON-INFO] ", flags),
		warnLogger:  log.New(out, "[TYCOON-WARN] ", flags),
		errorLogger: log.New(errOut, "[TYCOON-ERROR] ", flags),
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return New(io.Discard, io.Discard)
}

func (l *Logger) Info(msg string) {
	l.infoLogger.Output(2, msg)
}

func (l *Logger) Warn(msg string) {
	l.warnLogger.Output(2, msg)
}

func (l *Logger) Error(msg string) {
	l.errorLogger.Output(2, msg)
}

// Event logs a gameplay event in a grep-friendly shape.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.infoLogger.Output(2, fmt.Sprintf("[EVENT:%s] Actor:%s | %s", eventType, actorID, details))
}
