// Package diag is the player's structured logging and assertion surface,
// wrapping github.com/charmbracelet/log the way the original engine's
// utils/diag.h wraps its own logger: ordinary key/value logging for
// recoverable events (decoder and sink failures per the engine's error
// taxonomy), plus a BUG_ON-style fatal path for conditions that indicate a
// programmer error rather than a runtime one.
package diag

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
})

// SetLevel adjusts the minimum level logged, e.g. from configuration.
func SetLevel(level log.Level) {
	logger.SetLevel(level)
}

func Debug(msg string, kv ...any) { logger.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { logger.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { logger.Warn(msg, kv...) }
func Error(msg string, kv ...any) { logger.Error(msg, kv...) }

// BugOn logs a fatal message and terminates the process when cond is true.
// Reserved for invariant violations the original engine treats as a
// programmer bug (BUG_ON), never for I/O or decode failures, which are
// always recoverable and must go through Warn/Error plus the relevant
// SinkOps.Failed or host.Ops callback instead.
func BugOn(cond bool, msg string, kv ...any) {
	if !cond {
		return
	}
	logger.Fatal(msg, kv...)
}

// With returns a derived logger carrying the given key/value pairs on
// every subsequent call, for a component that wants to tag its own log
// lines (e.g. with a track cookie or device index) without repeating them.
func With(kv ...any) *log.Logger {
	return logger.With(kv...)
}
