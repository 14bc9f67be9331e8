package layout

import (
	"fmt"

	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/internal/cache"
)

// Native is the device form of a Layout: one bind group layout per
// register space and the pipeline layout that lists them.
type Native struct {
	key              string
	BindGroupLayouts []gpucore.BindGroupLayoutID
	PipelineLayout   gpucore.PipelineLayoutID
}

// BindGroupLayout returns the bind group layout of space, or
// gpucore.InvalidID when the space is out of range.
func (n *Native) BindGroupLayout(space uint32) gpucore.BindGroupLayoutID {
	if int(space) >= len(n.BindGroupLayouts) {
		return gpucore.InvalidID
	}
	return n.BindGroupLayouts[space]
}

// NativeCache shares native layouts between programs with equal
// signatures. All layouts with no bindings share one pipeline layout.
//
// NativeCache is safe for concurrent use.
type NativeCache struct {
	dev     gpucore.Device
	label   string
	layouts *cache.RefCache[string, *Native]
}

// NewNativeCache creates a cache that builds layouts on dev. label
// prefixes the labels of created objects.
func NewNativeCache(dev gpucore.Device, label string) *NativeCache {
	return &NativeCache{
		dev:     dev,
		label:   label,
		layouts: cache.New[string, *Native](),
	}
}

// Acquire returns the native form of l, creating it on first use.
// Every successful Acquire must be paired with a Release.
func (c *NativeCache) Acquire(l *Layout) (*Native, error) {
	key := l.Signature()
	return c.layouts.Acquire(key, func() (*Native, error) {
		return c.create(key, l)
	})
}

// Release drops a reference to n and destroys its device objects when it
// was the last. Reports whether the objects were destroyed.
func (c *NativeCache) Release(n *Native) bool {
	if n == nil {
		return false
	}
	return c.layouts.Release(n.key, c.destroy)
}

// Refs returns how many holders share the native form of l.
func (c *NativeCache) Refs(l *Layout) int {
	return c.layouts.Refs(l.Signature())
}

// Len returns the number of distinct native layouts alive.
func (c *NativeCache) Len() int { return c.layouts.Len() }

// Close destroys every native layout regardless of holders.
func (c *NativeCache) Close() {
	c.layouts.Drain(c.destroy)
}

func (c *NativeCache) create(key string, l *Layout) (*Native, error) {
	n := &Native{key: key}
	for space := uint32(0); space < l.Spaces(); space++ {
		id, err := c.dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
			Label:   fmt.Sprintf("%s group %d", c.label, space),
			Entries: l.GroupEntries(space),
		})
		if err != nil {
			c.destroy(n)
			return nil, fmt.Errorf("create bind group layout %d: %w", space, err)
		}
		n.BindGroupLayouts = append(n.BindGroupLayouts, id)
	}
	id, err := c.dev.CreatePipelineLayout(n.BindGroupLayouts, c.label+" pipeline layout")
	if err != nil {
		c.destroy(n)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	n.PipelineLayout = id
	slogger().Debug("layout: native layout created",
		"groups", len(n.BindGroupLayouts),
		"empty", l.IsEmpty())
	return n, nil
}

func (c *NativeCache) destroy(n *Native) {
	if n.PipelineLayout != gpucore.InvalidID {
		c.dev.DestroyPipelineLayout(n.PipelineLayout)
	}
	for _, id := range n.BindGroupLayouts {
		c.dev.DestroyBindGroupLayout(id)
	}
	n.BindGroupLayouts = nil
	n.PipelineLayout = gpucore.InvalidID
}
