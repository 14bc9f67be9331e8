package shaderbind

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/internal/gputest"
)

func floatAt(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func newDrawVars(t *testing.T) (*ProgramVars, *Context, *gputest.Device) {
	t.Helper()
	ctx, dev := newTestContext(t, WithFrameLatency(1))
	p := newTestProgram(t, ctx, vertexSource, fragmentSource)
	vars, err := NewProgramVars(p)
	if err != nil {
		t.Fatalf("NewProgramVars() error = %v", err)
	}
	return vars, ctx, dev
}

func TestProgramVarsConstantBuffers(t *testing.T) {
	vars, _, dev := newDrawVars(t)

	if got := len(vars.ConstantBuffers()); got != 2 {
		t.Fatalf("ConstantBuffers() len = %d, want 2", got)
	}
	if got := dev.Created["buffer"]; got != 2 {
		t.Errorf("buffers created = %d, want 2", got)
	}
	material := vars.ConstantBuffer("material")
	if material == nil {
		t.Fatal(`ConstantBuffer("material") = nil`)
	}
	if vars.ConstantBufferAt(1) != material {
		t.Error("ConstantBufferAt(1) is not the material buffer")
	}
	if vars.ConstantBuffer("missing") != nil {
		t.Error(`ConstantBuffer("missing") != nil`)
	}
	if got := material.Size(); got != 32 {
		t.Errorf("material Size() = %d, want 32", got)
	}

	bound, ok := vars.Table(0).Bound(1, 0)
	if !ok || bound.Buffer != material.Buffer() {
		t.Errorf("register 1 bound to %+v, want buffer %d", bound, material.Buffer())
	}
}

func TestProgramVarsBindGroup(t *testing.T) {
	vars, ctx, dev := newDrawVars(t)
	material := vars.ConstantBuffer("material")
	if err := material.SetVariable("tint", mgl32.Vec4{0.5, 0.25, 1, 1}); err != nil {
		t.Fatalf("SetVariable(tint) error = %v", err)
	}

	if _, err := vars.BindGroup(); !errors.Is(err, ErrUnboundSlot) {
		t.Fatalf("BindGroup() with unbound texture error = %v, want ErrUnboundSlot", err)
	}
	if err := vars.SetTexture("albedo", 100); err != nil {
		t.Fatalf("SetTexture() error = %v", err)
	}
	if err := vars.SetSampler("samp", 200); err != nil {
		t.Fatalf("SetSampler() error = %v", err)
	}

	first, err := vars.BindGroup()
	if err != nil {
		t.Fatalf("BindGroup() error = %v", err)
	}
	if got := len(dev.BindGroups[first].Entries); got != 4 {
		t.Errorf("bind group entries = %d, want 4", got)
	}
	if got := floatAt(dev.Contents(material.Buffer()), 4); got != 0.25 {
		t.Errorf("uploaded tint.y = %v, want 0.25", got)
	}

	writes := dev.WriteCount()
	again, err := vars.BindGroup()
	if err != nil {
		t.Fatalf("BindGroup() error = %v", err)
	}
	if again != first {
		t.Errorf("BindGroup() = %d without changes, want %d", again, first)
	}
	if got := dev.WriteCount(); got != writes {
		t.Errorf("WriteCount() = %d without changes, want %d", got, writes)
	}

	// new constant data does not need a new group
	if err := material.SetVariable("scale", float32(2)); err != nil {
		t.Fatalf("SetVariable(scale) error = %v", err)
	}
	if id, _ := vars.BindGroup(); id != first {
		t.Errorf("BindGroup() = %d after a constant change, want %d", id, first)
	}
	if got := dev.WriteCount(); got != writes+1 {
		t.Errorf("WriteCount() = %d, want %d", got, writes+1)
	}

	if err := vars.SetTexture("albedo", 101); err != nil {
		t.Fatalf("SetTexture() error = %v", err)
	}
	second, err := vars.BindGroup()
	if err != nil {
		t.Fatalf("BindGroup() error = %v", err)
	}
	if second == first {
		t.Error("BindGroup() returned the old group after a texture change")
	}
	if _, ok := dev.BindGroups[first]; !ok {
		t.Error("replaced bind group destroyed before its frame retired")
	}
	ctx.BeginFrame()
	if _, ok := dev.BindGroups[first]; ok {
		t.Error("replaced bind group still alive after its frame retired")
	}
}

func TestProgramVarsRejects(t *testing.T) {
	vars, _, _ := newDrawVars(t)
	tests := []struct {
		name    string
		set     func() error
		wantErr error
	}{
		{"sampler as texture", func() error { return vars.SetTexture("samp", 1) }, ErrKindMismatch},
		{"texture as sampler", func() error { return vars.SetSampler("albedo", 1) }, ErrKindMismatch},
		{"texture as raw buffer", func() error { return vars.SetRawBuffer("albedo", 1) }, ErrKindMismatch},
		{"missing texture", func() error { return vars.SetTexture("missing", 1) }, ErrVariableNotFound},
		{"index on non-array", func() error { return vars.SetTexture("albedo[0]", 1) }, ErrVariableNotFound},
		{"missing structured buffer", func() error { return vars.SetStructuredBuffer("missing", nil) }, ErrVariableNotFound},
		{"texture as structured buffer", func() error { return vars.SetStructuredBuffer("albedo", nil) }, ErrKindMismatch},
	}
	for _, tt := range tests {
		if err := tt.set(); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestProgramVarsStorage(t *testing.T) {
	ctx, dev := newTestContext(t)
	p := newTestProgram(t, ctx, computeSource)
	vars, err := NewProgramVars(p)
	if err != nil {
		t.Fatalf("NewProgramVars() error = %v", err)
	}
	if got := len(vars.ConstantBuffers()); got != 0 {
		t.Errorf("ConstantBuffers() len = %d, want 0", got)
	}

	particles, err := NewStructuredBuffer(ctx, p, "particles", 4)
	if err != nil {
		t.Fatalf("NewStructuredBuffer() error = %v", err)
	}
	weights, err := NewTypedBuffer[float32](ctx, 4)
	if err != nil {
		t.Fatalf("NewTypedBuffer() error = %v", err)
	}
	counters, err := NewTypedBuffer[uint32](ctx, 4)
	if err != nil {
		t.Fatalf("NewTypedBuffer() error = %v", err)
	}

	if err := vars.SetStructuredBuffer("weights", particles); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("SetStructuredBuffer(weights) error = %v, want ErrKindMismatch", err)
	}
	if err := vars.SetRawBuffer("weights", weights.Buffer()); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("SetRawBuffer(weights) error = %v, want ErrKindMismatch", err)
	}
	if err := vars.SetStructuredBuffer("particles", particles); err != nil {
		t.Fatalf("SetStructuredBuffer() error = %v", err)
	}
	if err := vars.SetTypedBuffer("weights", weights.Buffer()); err != nil {
		t.Fatalf("SetTypedBuffer() error = %v", err)
	}
	if err := vars.SetRawBuffer("counters", counters.Buffer()); err != nil {
		t.Fatalf("SetRawBuffer() error = %v", err)
	}
	if vars.StructuredBuffer("particles") != particles {
		t.Error(`StructuredBuffer("particles") is not the bound buffer`)
	}

	if err := particles.Element(2).SetVariable("vel", mgl32.Vec4{1, 2, 3, 4}); err != nil {
		t.Fatalf("SetVariable(vel) error = %v", err)
	}
	id, err := vars.BindGroup()
	if err != nil {
		t.Fatalf("BindGroup() error = %v", err)
	}
	entries := dev.BindGroups[id].Entries
	want := []gpucore.BufferID{particles.Buffer(), weights.Buffer(), counters.Buffer()}
	if len(entries) != len(want) {
		t.Fatalf("bind group entries = %d, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Binding != uint32(i) || e.Buffer != want[i] {
			t.Errorf("entry %d = %+v, want binding %d buffer %d", i, e, i, want[i])
		}
	}
	// element 2 starts at 2*32, vel at +16
	if got := floatAt(dev.Contents(particles.Buffer()), 2*32+16+4); got != 2 {
		t.Errorf("uploaded particles[2].vel.y = %v, want 2", got)
	}
}

func TestProgramVarsDestroy(t *testing.T) {
	vars, ctx, dev := newDrawVars(t)
	if err := vars.SetTexture("albedo", 1); err != nil {
		t.Fatal(err)
	}
	if err := vars.SetSampler("samp", 2); err != nil {
		t.Fatal(err)
	}
	if _, err := vars.BindGroup(); err != nil {
		t.Fatalf("BindGroup() error = %v", err)
	}

	vars.Destroy()
	vars.Program().Destroy()
	ctx.BeginFrame()
	if got := dev.Live(); got != 0 {
		t.Errorf("Live() = %d after Destroy, want 0", got)
	}
}
