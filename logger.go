package shaderbind

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/shaderbind/bindtable"
	"github.com/gogpu/shaderbind/layout"
	"github.com/gogpu/shaderbind/reflection"
	"github.com/gogpu/shaderbind/varbuf"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for shaderbind and all its sub-packages.
// By default, shaderbind produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by shaderbind:
//   - [slog.LevelDebug]: reflection and layout details, bind group creation
//   - [slog.LevelWarn]: rejected writes, failed lookups, unbound slots
//   - [slog.LevelError]: cross-stage mismatches, layouts over budget
//
// Example:
//
//	shaderbind.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	reflection.SetLogger(l)
	layout.SetLogger(l)
	varbuf.SetLogger(l)
	bindtable.SetLogger(l)
}

// Logger returns the current logger used by shaderbind.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

func slogger() *slog.Logger { return loggerPtr.Load() }
