package shaderbind

import (
	"errors"
	"testing"

	"github.com/gogpu/shaderbind/gpucore"
)

func TestNewProgram(t *testing.T) {
	ctx, dev := newTestContext(t)
	p := newTestProgram(t, ctx, vertexSource, fragmentSource)

	if got := len(p.ShaderModules()); got != 2 {
		t.Errorf("ShaderModules() len = %d, want 2", got)
	}
	for _, id := range p.ShaderModules() {
		if len(dev.ShaderModules[id]) == 0 {
			t.Errorf("shader module %d has no code", id)
		}
	}
	if want := gpucore.ShaderStageVertex | gpucore.ShaderStageFragment; p.Reflection().Stages() != want {
		t.Errorf("Stages() = %v, want %v", p.Reflection().Stages(), want)
	}
	if p.PipelineLayout() == gpucore.InvalidID {
		t.Error("PipelineLayout() = InvalidID")
	}
	if p.BindGroupLayout(0) == gpucore.InvalidID {
		t.Error("BindGroupLayout(0) = InvalidID")
	}
	if got := p.BindGroupLayout(1); got != gpucore.InvalidID {
		t.Errorf("BindGroupLayout(1) = %d, want InvalidID", got)
	}

	// camera and material merge into one CBV range: 2*2 + texture + sampler
	if got := p.Layout().Cost(); got != 6 {
		t.Errorf("Layout().Cost() = %d, want 6", got)
	}
	if p.Context() != ctx {
		t.Error("Context() is not the creating context")
	}
}

const storageTextureSource = `
@group(0) @binding(0) var src: texture_storage_2d<r32sint, read>;
@group(0) @binding(1) var dst: texture_storage_2d<rgba8unorm, write>;

@compute @workgroup_size(8, 8)
fn cs_main(@builtin(global_invocation_id) id: vec3<u32>) {
    let v = textureLoad(src, vec2<i32>(id.xy));
    textureStore(dst, vec2<i32>(id.xy), vec4<f32>(f32(v.x)));
}
`

func TestNewProgramStorageTextures(t *testing.T) {
	ctx, dev := newTestContext(t)
	p := newTestProgram(t, ctx, storageTextureSource)

	desc, ok := dev.BindGroupLayouts[p.BindGroupLayout(0)]
	if !ok || len(desc.Entries) != 2 {
		t.Fatalf("bind group layout = %+v, %v, want 2 entries", desc, ok)
	}
	tests := []struct {
		access gpucore.StorageAccess
		format gpucore.TexelFormat
	}{
		{gpucore.StorageAccessReadOnly, "r32sint"},
		{gpucore.StorageAccessWriteOnly, "rgba8unorm"},
	}
	for i, tt := range tests {
		e := desc.Entries[i]
		if e.Type != gpucore.BindingTypeStorageTexture || e.Access != tt.access || e.Format != tt.format {
			t.Errorf("entry %d = (%v, %v, %q), want (storage-texture, %v, %q)", i, e.Type, e.Access, e.Format, tt.access, tt.format)
		}
	}
}

func TestNewProgramErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		sources []string
		wantErr error
	}{
		{"no source", nil, nil, ErrNoSource},
		{"stage mismatch", nil, []string{fragmentSource, conflictSource}, ErrStageMismatch},
		{"over budget", []Option{WithCostBudget(5)}, []string{vertexSource, fragmentSource}, ErrCapacityExceeded},
		{"unsupported space", nil, []string{`
@group(1) @binding(0) var<uniform> v: vec4<f32>;
@fragment fn main() -> @location(0) vec4<f32> { return v; }
`}, ErrUnsupportedSpace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dev := newTestContext(t, tt.opts...)
			p, err := NewProgram(ctx, tt.sources...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewProgram() error = %v, want %v", err, tt.wantErr)
			}
			if p != nil {
				t.Error("NewProgram() returned a program on failure")
			}
			if got := dev.Live(); got != 0 {
				t.Errorf("Live() = %d after failure, want 0", got)
			}
		})
	}
}

func TestNewProgramSyntaxError(t *testing.T) {
	ctx, dev := newTestContext(t)
	if _, err := NewProgram(ctx, vertexSource, "fn broken( {"); err == nil {
		t.Fatal("NewProgram() error = nil for invalid source")
	}
	if got := dev.Live(); got != 0 {
		t.Errorf("Live() = %d after failure, want 0", got)
	}
}

func TestNewProgramDeviceFailure(t *testing.T) {
	ctx, dev := newTestContext(t)
	dev.Fail = true
	if _, err := NewProgram(ctx, fragmentSource); err == nil {
		t.Fatal("NewProgram() error = nil with a failing device")
	}
}

func TestProgramsShareLayouts(t *testing.T) {
	ctx, dev := newTestContext(t)
	a := newTestProgram(t, ctx, vertexSource, fragmentSource)
	b := newTestProgram(t, ctx, vertexSource, fragmentSource)

	if a.PipelineLayout() != b.PipelineLayout() {
		t.Errorf("PipelineLayout() = %d and %d, want shared", a.PipelineLayout(), b.PipelineLayout())
	}
	if got := dev.Created["pipelineLayout"]; got != 1 {
		t.Errorf("pipeline layouts created = %d, want 1", got)
	}
	if got := ctx.Layouts().Refs(a.Layout()); got != 2 {
		t.Errorf("Refs() = %d, want 2", got)
	}

	c := newTestProgram(t, ctx, computeSource)
	if c.PipelineLayout() == a.PipelineLayout() {
		t.Error("programs with different layouts share a pipeline layout")
	}
}

func TestProgramDestroy(t *testing.T) {
	ctx, dev := newTestContext(t, WithFrameLatency(1))
	a := newTestProgram(t, ctx, vertexSource, fragmentSource)
	b := newTestProgram(t, ctx, vertexSource, fragmentSource)

	a.Destroy()
	a.Destroy()
	if got := ctx.PendingReleases(); got != 1 {
		t.Fatalf("PendingReleases() = %d, want 1", got)
	}
	if got := dev.Destroyed["shader"]; got != 0 {
		t.Errorf("shader modules destroyed before the frame retired: %d", got)
	}

	ctx.BeginFrame()
	if got := dev.Destroyed["shader"]; got != 2 {
		t.Errorf("shader modules destroyed = %d, want 2", got)
	}
	if got := dev.Destroyed["pipelineLayout"]; got != 0 {
		t.Errorf("pipeline layout destroyed while still shared")
	}

	b.Destroy()
	ctx.BeginFrame()
	ctx.BeginFrame()
	if got := dev.Live(); got != 0 {
		t.Errorf("Live() = %d after both programs were destroyed, want 0", got)
	}
}

func TestShaderModulesAreSPIRV(t *testing.T) {
	for _, validate := range []bool{false, true} {
		ctx, dev := newTestContext(t, WithValidation(validate))
		p := newTestProgram(t, ctx, fragmentSource)
		code := dev.ShaderModules[p.ShaderModules()[0]]
		if len(code) == 0 || code[0] != 0x07230203 {
			t.Errorf("validate=%v: module does not start with the SPIR-V magic number", validate)
		}
	}
}
