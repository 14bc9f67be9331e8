package shaderbind

import (
	"sync"

	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/internal/release"
	"github.com/gogpu/shaderbind/layout"
)

// Context owns the device-side state shared by programs: the device, the
// cache of native layouts and the queue of deferred releases.
//
// Objects replaced or destroyed while the GPU may still use them are
// queued with the current frame number and destroyed by BeginFrame once
// the configured frame latency has passed.
//
// Context is safe for concurrent use.
type Context struct {
	dev     gpucore.Device
	opts    options
	layouts *layout.NativeCache

	releases release.Queue

	mu     sync.Mutex
	frame  uint64
	closed bool
}

// NewContext creates a context on dev.
func NewContext(dev gpucore.Device, opts ...Option) *Context {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}
	return &Context{
		dev:     dev,
		opts:    o,
		layouts: layout.NewNativeCache(dev, o.label),
	}
}

// Device returns the device the context creates objects on.
func (c *Context) Device() gpucore.Device { return c.dev }

// Layouts returns the native layout cache.
func (c *Context) Layouts() *layout.NativeCache { return c.layouts }

// CostBudget returns the layout cost budget in DWORDs.
func (c *Context) CostBudget() int { return c.opts.costBudget }

// Frame returns the current frame number. Frames start at 0.
func (c *Context) Frame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// BeginFrame advances the frame counter and destroys the objects released
// at least frame-latency frames ago. Returns how many releases ran.
func (c *Context) BeginFrame() int {
	c.mu.Lock()
	c.frame++
	frame := c.frame
	c.mu.Unlock()

	if frame < c.opts.frameLatency {
		return 0
	}
	n := c.releases.Drain(frame - c.opts.frameLatency)
	if n > 0 {
		slogger().Debug("shaderbind: deferred releases ran", "frame", frame, "count", n)
	}
	return n
}

// Release queues fn to run once the current frame has retired. After
// Close, fn runs immediately.
func (c *Context) Release(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	closed, frame := c.closed, c.frame
	c.mu.Unlock()

	if closed {
		fn()
		return
	}
	c.releases.Push(frame, fn)
}

// PendingReleases returns the number of queued releases.
func (c *Context) PendingReleases() int { return c.releases.Len() }

// Closed reports whether Close was called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close runs every pending release and destroys the cached layouts. The
// caller must make sure the GPU is idle. Close is idempotent.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	n := c.releases.DrainAll()
	c.layouts.Close()
	slogger().Debug("shaderbind: context closed", "releases", n)
}
