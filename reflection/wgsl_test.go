package reflection

import (
	"errors"
	"testing"

	"github.com/gogpu/shaderbind/gpucore"
)

const declSource = `
@group(0) @binding(0) var<storage, read> points: array<vec4<f32>>;
@group(0) @binding(1) var<storage, read_write> counts: array<u32>;
@group(0) @binding(2) var albedo: texture_2d<f32>;
@group(0) @binding(3) var ids: texture_2d<u32>;
@group(0) @binding(4) var dst: texture_storage_2d<rgba8unorm, write>;
@group(0) @binding(5) var src: texture_storage_2d<r32sint, read>;
@group(0) @binding(6) var samp: sampler;
@group(0) @binding(7) var layers: binding_array<texture_2d<f32>, 4>;
@group(0) @binding(11) var<storage> weights: array<f32>;
`

func TestReflectWGSLDeclarations(t *testing.T) {
	p, err := ReflectWGSL(declSource)
	if err != nil {
		t.Fatalf("ReflectWGSL() error = %v", err)
	}

	tests := []struct {
		name      string
		kind      ResourceKind
		access    ShaderAccess
		ret       ReturnType
		format    gpucore.TexelFormat
		arraySize uint32
	}{
		{"points", KindTypedBuffer, AccessRead, ReturnFloat, "", 0},
		{"counts", KindRawBuffer, AccessReadWrite, ReturnUint, "", 0},
		{"albedo", KindTexture, AccessRead, ReturnFloat, "", 0},
		{"ids", KindTexture, AccessRead, ReturnUint, "", 0},
		{"dst", KindTexture, AccessWrite, ReturnFloat, "rgba8unorm", 0},
		{"src", KindTexture, AccessRead, ReturnSint, "r32sint", 0},
		{"samp", KindSampler, AccessRead, ReturnUnknown, "", 0},
		{"layers", KindTexture, AccessRead, ReturnFloat, "", 4},
		{"weights", KindTypedBuffer, AccessRead, ReturnFloat, "", 0},
	}
	for _, tt := range tests {
		r, _, err := p.ResourceDesc(tt.name)
		if err != nil {
			t.Errorf("ResourceDesc(%q) error = %v", tt.name, err)
			continue
		}
		if r.Kind != tt.kind || r.Access != tt.access || r.ReturnType != tt.ret {
			t.Errorf("%s = (%v, %v, %v), want (%v, %v, %v)", tt.name, r.Kind, r.Access, r.ReturnType, tt.kind, tt.access, tt.ret)
		}
		if r.Format != tt.format {
			t.Errorf("%s format = %q, want %q", tt.name, r.Format, tt.format)
		}
		if r.ArraySize != tt.arraySize {
			t.Errorf("%s ArraySize = %d, want %d", tt.name, r.ArraySize, tt.arraySize)
		}
	}

	if r, idx, err := p.ResourceDesc("layers[2]"); err != nil || idx != 2 || r.Count() != 4 {
		t.Errorf("ResourceDesc(layers[2]) = (%v, %d, %v), want 4 registers at index 2", r, idx, err)
	}
}

func TestReflectWGSLUnboundedBindingArray(t *testing.T) {
	const src = `@group(0) @binding(0) var texs: binding_array<texture_2d<f32>>;`
	if _, err := ReflectWGSL(src); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("ReflectWGSL() error = %v, want ErrUnsupportedType", err)
	}
}

const quadSource = `
struct Params {
    tint: vec4<f32>,
    scale: f32,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var tex: texture_2d<f32>;
@group(0) @binding(2) var samp: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(tex, samp, uv) * params.tint * params.scale;
}
`

func TestReflectWGSL(t *testing.T) {
	p, err := ReflectWGSL(quadSource)
	if err != nil {
		t.Fatalf("ReflectWGSL() error = %v", err)
	}
	buf := p.BufferDescByName(BufferConstant, "params")
	if buf == nil {
		t.Fatal("params not reflected")
	}
	if off := buf.VariableOffset("scale"); off != 16 {
		t.Errorf("scale offset = %d, want 16", off)
	}
	if len(p.Resources()) != 2 {
		t.Errorf("Resources() len = %d, want 2", len(p.Resources()))
	}
	if _, ok := p.FragmentOutput("location0"); !ok {
		t.Error("fragment output location0 missing")
	}
}

func TestReflectWGSLSyntaxError(t *testing.T) {
	if _, err := ReflectWGSL("fn broken( {"); err == nil {
		t.Error("ReflectWGSL() error = nil for invalid source")
	}
}
