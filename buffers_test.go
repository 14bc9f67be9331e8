package shaderbind

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/shaderbind/reflection"
)

func TestConstantBufferUpload(t *testing.T) {
	ctx, dev := newTestContext(t)
	p := newTestProgram(t, ctx, fragmentSource)
	cb, err := NewConstantBuffer(ctx, p.Reflection().BufferDescByName(reflection.BufferConstant, "material").Type())
	if err != nil {
		t.Fatalf("NewConstantBuffer() error = %v", err)
	}

	n, err := cb.Upload()
	if err != nil || n != 32 {
		t.Fatalf("first Upload() = %d, %v, want 32, nil", n, err)
	}
	if n, _ := cb.Upload(); n != 0 {
		t.Errorf("Upload() without changes = %d, want 0", n)
	}

	if err := cb.SetVariable("scale", float32(3)); err != nil {
		t.Fatalf("SetVariable() error = %v", err)
	}
	if n, _ := cb.Upload(); n != 4 {
		t.Errorf("Upload() after one scalar = %d, want 4", n)
	}
	last := dev.Writes[len(dev.Writes)-1]
	if last.Offset != 16 {
		t.Errorf("last write offset = %d, want 16", last.Offset)
	}
	if got := floatAt(dev.Contents(cb.Buffer()), 16); got != 3 {
		t.Errorf("scale on device = %v, want 3", got)
	}

	cb.Destroy()
	cb.Destroy()
	if got := ctx.PendingReleases(); got != 1 {
		t.Errorf("PendingReleases() = %d, want 1", got)
	}
}

func TestStructuredBufferNotFound(t *testing.T) {
	ctx, _ := newTestContext(t)
	p := newTestProgram(t, ctx, computeSource)
	tests := []string{"missing", "weights", "counters"}
	for _, name := range tests {
		if _, err := NewStructuredBuffer(ctx, p, name, 1); !errors.Is(err, ErrVariableNotFound) {
			t.Errorf("NewStructuredBuffer(%q) error = %v, want ErrVariableNotFound", name, err)
		}
	}
}

func TestStructuredBufferLayout(t *testing.T) {
	ctx, _ := newTestContext(t)
	p := newTestProgram(t, ctx, computeSource)
	sb, err := NewStructuredBuffer(ctx, p, "particles", 8)
	if err != nil {
		t.Fatalf("NewStructuredBuffer() error = %v", err)
	}
	if got := sb.Size(); got != 8*32 {
		t.Errorf("Size() = %d, want %d", got, 8*32)
	}
	if got := sb.Len(); got != 8 {
		t.Errorf("Len() = %d, want 8", got)
	}
	if sb.Access() != reflection.AccessReadWrite {
		t.Errorf("Access() = %v, want ReadWrite", sb.Access())
	}
	if err := sb.Element(7).SetVariable("pos", mgl32.Vec4{1, 1, 1, 1}); err != nil {
		t.Errorf("Element(7).SetVariable() error = %v", err)
	}
	lo, hi, ok := sb.DirtyRange()
	if !ok || lo != 0 || hi != 8*32 {
		t.Errorf("DirtyRange() = %d, %d, %v, want whole buffer", lo, hi, ok)
	}
}

func TestTypedBuffer(t *testing.T) {
	ctx, dev := newTestContext(t)
	tb, err := NewTypedBuffer[mgl32.Vec4](ctx, 4)
	if err != nil {
		t.Fatalf("NewTypedBuffer() error = %v", err)
	}
	if got := tb.Stride(); got != 16 {
		t.Errorf("Stride() = %d, want 16", got)
	}
	if n, _ := tb.Upload(); n != 64 {
		t.Errorf("first Upload() = %d, want 64", n)
	}
	if tb.Dirty() {
		t.Error("Dirty() = true after Upload")
	}

	if err := tb.Set(1, mgl32.Vec4{1, 2, 3, 4}); err != nil {
		t.Fatalf("Set(1) error = %v", err)
	}
	if err := tb.Set(2, mgl32.Vec4{5, 6, 7, 8}); err != nil {
		t.Fatalf("Set(2) error = %v", err)
	}
	if n, _ := tb.Upload(); n != 32 {
		t.Errorf("Upload() after two elements = %d, want 32", n)
	}
	if got := floatAt(dev.Contents(tb.Buffer()), 2*16+8); got != 7 {
		t.Errorf("element 2.z on device = %v, want 7", got)
	}
	if v, err := tb.Get(1); err != nil || v != (mgl32.Vec4{1, 2, 3, 4}) {
		t.Errorf("Get(1) = %v, %v", v, err)
	}

	for _, i := range []int{-1, 4} {
		if err := tb.Set(i, mgl32.Vec4{}); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Set(%d) error = %v, want ErrOutOfBounds", i, err)
		}
		if _, err := tb.Get(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Get(%d) error = %v, want ErrOutOfBounds", i, err)
		}
	}

	tb.Destroy()
	if _, err := tb.Upload(); err == nil {
		t.Error("Upload() after Destroy error = nil")
	}
}

func TestTypedBufferEmpty(t *testing.T) {
	ctx, _ := newTestContext(t)
	if _, err := NewTypedBuffer[float32](ctx, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("NewTypedBuffer(0) error = %v, want ErrOutOfBounds", err)
	}
}
