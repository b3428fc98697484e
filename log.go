package glass

import (
	"log/slog"
	"os"
	"sync/atomic"
)

// logLevel controls the log level for all glass loggers.
// Default is LevelInfo, which suppresses Debug messages.
// SetVerbose(true) sets it to LevelDebug.
var logLevel = new(slog.LevelVar)

// SetVerbose enables or disables verbose/debug logging.
// Call this from main() after parsing flags.
func SetVerbose(v bool) {
	if v {
		logLevel.Set(slog.LevelDebug)
	} else {
		logLevel.Set(slog.LevelInfo)
	}
}

// Verbose returns true if debug logging is enabled. Backends use it to gate
// expensive diagnostics such as per-pass uniform dumps.
func Verbose() bool {
	return logLevel.Level() <= slog.LevelDebug
}

// baseLogger holds the active logger. It is read on every log call so
// SetLogger may run while frames are rendering.
var baseLogger atomic.Pointer[slog.Logger]

func init() {
	SetLogger(nil)
}

// SetLogger replaces the logger used by every glass component. Pass nil to
// restore the default stderr text handler. Safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	}
	baseLogger.Store(l)
}

// Logger returns the base logger so backends share the same configuration.
func Logger() *slog.Logger {
	return baseLogger.Load()
}

func storeLogger() *slog.Logger { return Logger().With("component", "store") }
func graphLogger() *slog.Logger { return Logger().With("component", "graph") }
func compositorLogger() *slog.Logger { return Logger().With("component", "compositor") }
func backgroundLogger() *slog.Logger { return Logger().With("component", "background") }
func interactionLogger() *slog.Logger { return Logger().With("component", "interaction") }
