package logger

import (
	"sync"
)

// Log levels accepted by log.level.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process-wide logger. The first call fixes the level;
// later calls return the same instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = New(level)
	})
	return globalLogger
}

// New builds a standalone console logger, mostly for tools and tests.
func New(level string) *Logger {
	return newZapLogger(level)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: newNopSugar()}
}
