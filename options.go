package shaderbind

import (
	"log/slog"

	"github.com/gogpu/shaderbind/layout"
)

// Option configures a Context during creation.
//
// Example:
//
//	ctx := shaderbind.NewContext(dev,
//	    shaderbind.WithFrameLatency(3),
//	    shaderbind.WithValidation(true),
//	)
type Option func(*options)

// options holds optional configuration for Context creation.
type options struct {
	costBudget   int
	frameLatency uint64
	logger       *slog.Logger
	label        string
	validate     bool
}

// defaultOptions returns the default context options.
func defaultOptions() options {
	return options{
		costBudget:   layout.DefaultCostBudget,
		frameLatency: 2,
		label:        "shaderbind",
	}
}

// WithCostBudget sets the root layout cost budget in DWORDs. Programs
// whose layout costs more fail to build. Values <= 0 keep the default.
func WithCostBudget(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.costBudget = n
		}
	}
}

// WithFrameLatency sets how many frames a released object waits before
// it is destroyed: BeginFrame(f) destroys objects released in frames up
// to f-n.
func WithFrameLatency(n uint64) Option {
	return func(o *options) {
		o.frameLatency = n
	}
}

// WithLogger installs l as the package logger when the Context is
// created. Equivalent to calling SetLogger(l).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLabel sets the prefix of debug labels given to device objects.
func WithLabel(s string) Option {
	return func(o *options) {
		o.label = s
	}
}

// WithValidation runs naga's validator on every shader module before it
// is compiled.
func WithValidation(v bool) Option {
	return func(o *options) {
		o.validate = v
	}
}
