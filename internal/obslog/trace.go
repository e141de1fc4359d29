// Package obslog adds a trace level on top of log/slog, mirroring the
// teacher's core.Trace global convenience function. It logs through the
// default slog logger, which the CLI installs; no *slog.Logger is
// threaded through the engine.
package obslog

import (
	"context"
	"log/slog"
)

// LevelTrace sits above slog.LevelInfo and carries search-tree
// exploration telemetry; the CLI's handler admits it only under -v.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Trace logs msg at LevelTrace on the default slog logger.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
