package programmer

import (
	"time"

	"github.com/moffa90/go-avrisp/avr"
)

// Progress phases reported during engine operations.
const (
	PhaseReading  = "reading"
	PhaseWriting  = "writing"
	PhaseErasing  = "erasing"
	PhaseComplete = "complete"
)

// Progress describes the state of a running read, write or erase
// operation. Passed to ProgressCallback from inside the engine's transfer
// loops.
type Progress struct {
	// Phase is the current operation phase.
	Phase string

	// Memory is the region being transferred.
	Memory string

	// Completed and Total count work units (bytes or pages).
	Completed int
	Total     int

	// Percentage is the completion percentage (0.0 to 100.0).
	Percentage float64

	// Elapsed is the time since the operation started.
	Elapsed time.Duration
}

// ProgressCallback is invoked synchronously from transfer loops, at most
// once per whole-percent step. Implementations must return quickly, must
// not block and must not panic; a slow callback slows the transfer itself.
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the
// programmer, allowing integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a warning message with optional key-value pairs
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// FuseRecorder receives a copy of every fuse value the engine writes, so an
// independent safety-check subsystem can compare the device's fuse state
// against what was intended before the session ends.
type FuseRecorder interface {
	RecordFuseWrite(kind avr.MemKind, value byte)
}
