// Package trace provides the memory-access trace formatter and a
// leveled slog logger for per-cycle device diagnostics, grounded on the
// teacher's core/util.go (custom slog.Level constants above LevelInfo).
package trace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Custom levels above slog.LevelInfo for per-cycle simulator chatter,
// mirroring the teacher's LevelTrace/LevelWaveform. Being above Info,
// both are emitted by a handler at the default Info level.
const (
	LevelTrace    slog.Level = slog.LevelInfo + 1
	LevelWaveform slog.Level = slog.LevelInfo + 2
)

// Logger writes the memory access trace (spec.md §6's line format) and
// exposes leveled Trace/Waveform logging for device diagnostics.
type Logger struct {
	w      io.Writer
	logger *slog.Logger
}

// New creates a Logger that writes memory-trace lines to w (nil
// disables trace-line output) using the given slog handler for leveled
// diagnostics (nil uses slog.Default()).
func New(w io.Writer, handler slog.Handler) *Logger {
	l := &Logger{w: w}
	if handler != nil {
		l.logger = slog.New(handler)
	} else {
		l.logger = slog.Default()
	}
	return l
}

// MemoryAccess emits one trace line in the spec's
// "0x%08X (read|write) <cycle_count>" format. It is a no-op if tracing
// to a file was not configured.
func (l *Logger) MemoryAccess(addr uint32, kind string, cycle uint64) {
	if l == nil || l.w == nil {
		return
	}
	fmt.Fprintf(l.w, "0x%08X (%s) %d\n", addr, kind, cycle)
}

// Trace logs a diagnostic message at LevelTrace.
func (l *Logger) Trace(msg string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Waveform logs a diagnostic message at LevelWaveform (one level above
// LevelTrace), for per-cycle device state.
func (l *Logger) Waveform(msg string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Log(context.Background(), LevelWaveform, msg, args...)
}
