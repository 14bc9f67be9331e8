package layout

import (
	"errors"
	"testing"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderbind/internal/gputest"
	"github.com/gogpu/shaderbind/internal/irtest"
)

func textureLayout(t *testing.T) *Layout {
	t.Helper()
	b := irtest.New()
	b.Global("tex", ir.SpaceHandle, 0, b.Texture2D())
	b.Global("samp", ir.SpaceHandle, 1, b.Sampler(false))
	b.Stage(ir.StageFragment)
	l, err := Build(program(t, b), 0)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return l
}

func TestNativeCacheShares(t *testing.T) {
	dev := gputest.NewDevice()
	c := NewNativeCache(dev, "test")

	a, err := c.Acquire(textureLayout(t))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	b, err := c.Acquire(textureLayout(t))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if a != b {
		t.Error("equal layouts were not shared")
	}
	if dev.Created["bindGroupLayout"] != 1 || dev.Created["pipelineLayout"] != 1 {
		t.Errorf("created %v, want one bind group layout and one pipeline layout", dev.Created)
	}
	if got := len(dev.BindGroupLayouts[a.BindGroupLayout(0)].Entries); got != 2 {
		t.Errorf("group 0 entries = %d, want 2", got)
	}
	if a.BindGroupLayout(1) != 0 {
		t.Error("BindGroupLayout(1) is valid for a single-space layout")
	}

	if c.Release(a) {
		t.Error("first Release() destroyed a shared layout")
	}
	if !c.Release(b) {
		t.Error("last Release() did not destroy the layout")
	}
	if dev.Live() != 0 {
		t.Errorf("Live() = %d after release, want 0", dev.Live())
	}
}

func TestNativeCacheEmptyLayout(t *testing.T) {
	dev := gputest.NewDevice()
	c := NewNativeCache(dev, "test")

	var natives []*Native
	for i := 0; i < 3; i++ {
		n, err := c.Acquire(Empty())
		if err != nil {
			t.Fatalf("Acquire(Empty()) error = %v", err)
		}
		natives = append(natives, n)
	}
	if got := c.Refs(Empty()); got != 3 {
		t.Errorf("Refs(Empty()) = %d, want 3", got)
	}
	if dev.Created["pipelineLayout"] != 1 || dev.Created["bindGroupLayout"] != 0 {
		t.Errorf("created %v, want one pipeline layout only", dev.Created)
	}
	if len(natives[0].BindGroupLayouts) != 0 {
		t.Errorf("empty layout has %d groups", len(natives[0].BindGroupLayouts))
	}

	for _, n := range natives {
		c.Release(n)
	}
	if dev.Destroyed["pipelineLayout"] != 1 {
		t.Errorf("pipeline layouts destroyed = %d, want 1", dev.Destroyed["pipelineLayout"])
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestNativeCacheCreateFailure(t *testing.T) {
	dev := gputest.NewDevice()
	dev.Fail = true
	c := NewNativeCache(dev, "test")

	if _, err := c.Acquire(textureLayout(t)); !errors.Is(err, gputest.ErrInjected) {
		t.Errorf("Acquire() error = %v, want ErrInjected", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failure, want 0", c.Len())
	}
}

func TestNativeCacheClose(t *testing.T) {
	dev := gputest.NewDevice()
	c := NewNativeCache(dev, "test")
	if _, err := c.Acquire(textureLayout(t)); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := c.Acquire(Empty()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	c.Close()
	if dev.Live() != 0 {
		t.Errorf("Live() = %d after Close, want 0", dev.Live())
	}
}
