// Package logging defines the graduated verbosity levels shared by the CLI
// and the subprocess plumbing.
package logging

import "log/slog"

// slog.LevelDebug is -4; lower values are more verbose.
const (
	// LevelTrace is used for -vv: raw wire lines from agent subprocesses.
	LevelTrace slog.Level = slog.LevelDebug - 4 // -8
)

// LevelFor maps a -v count to a log level.
func LevelFor(verbosity int) slog.Level {
	switch {
	case verbosity >= 2:
		return LevelTrace
	case verbosity == 1:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
