package reflection

import (
	"errors"
	"testing"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/internal/irtest"
)

func TestReflectConstantBuffer(t *testing.T) {
	p, err := Reflect(frameModule(ir.StageFragment))
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	if p.Stages() != gpucore.ShaderStageFragment {
		t.Errorf("Stages() = %v, want fragment", p.Stages())
	}

	buf := p.BufferDescByName(BufferConstant, "frame")
	if buf == nil {
		t.Fatal("constant buffer frame not reflected")
	}
	if buf.Size() != 224 {
		t.Errorf("Size() = %d, want 224", buf.Size())
	}
	if buf.VariableCount() != 7 {
		t.Errorf("VariableCount() = %d, want 7", buf.VariableCount())
	}

	tests := []struct {
		name        string
		typ         VariableType
		offset      uint32
		arraySize   uint32
		arrayStride uint32
	}{
		{"color", Vector(ScalarFloat, 4), 0, 0, 0},
		{"world", Matrix(ScalarFloat, 4, 4), 16, 0, 0},
		{"weights", Scalar(ScalarFloat), 80, 5, 16},
		{"lights[0].pos", Vector(ScalarFloat, 4), 160, 0, 0},
		{"lights[0].intensity", Scalar(ScalarFloat), 176, 0, 0},
		{"lights[1].pos", Vector(ScalarFloat, 4), 192, 0, 0},
		{"lights[1].intensity", Scalar(ScalarFloat), 208, 0, 0},
	}
	for _, tt := range tests {
		v, ok := buf.Variable(tt.name)
		if !ok {
			t.Errorf("Variable(%q) not found", tt.name)
			continue
		}
		if v.Type != tt.typ {
			t.Errorf("%s type = %v, want %v", tt.name, v.Type, tt.typ)
		}
		if v.Offset != tt.offset {
			t.Errorf("%s offset = %d, want %d", tt.name, v.Offset, tt.offset)
		}
		if v.ArraySize != tt.arraySize || v.ArrayStride != tt.arrayStride {
			t.Errorf("%s array = (%d, %d), want (%d, %d)", tt.name, v.ArraySize, v.ArrayStride, tt.arraySize, tt.arrayStride)
		}
	}
}

func TestReflectResources(t *testing.T) {
	p, err := Reflect(frameModule(ir.StageFragment))
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	res := p.Resources()
	if len(res) != 2 {
		t.Fatalf("Resources() len = %d, want 2", len(res))
	}

	tex := res[0]
	if tex.Name != "tex" || tex.Kind != KindTexture || tex.Register != 1 {
		t.Errorf("Resources()[0] = %+v, want texture tex at 1", tex)
	}
	if tex.Dimension != DimTexture2D || tex.ReturnType != ReturnFloat || tex.Access != AccessRead {
		t.Errorf("tex = %v %v %v, want 2d f32 read", tex.Dimension, tex.ReturnType, tex.Access)
	}
	samp := res[1]
	if samp.Name != "samp" || samp.Kind != KindSampler || samp.Register != 2 {
		t.Errorf("Resources()[1] = %+v, want sampler samp at 2", samp)
	}
	if samp.Visibility != gpucore.ShaderStageFragment {
		t.Errorf("samp visibility = %v, want fragment", samp.Visibility)
	}
}

func TestReflectStorage(t *testing.T) {
	b := irtest.New()
	f32 := b.F32()
	u32 := b.U32()
	vec4 := b.Vec(ir.Vec4)
	particle := b.Struct("Particle", 32, irtest.M("pos", vec4, 0), irtest.M("life", f32, 16))
	b.ReadWrite("particles", 0, b.RuntimeArray(particle, 32))
	b.ReadWrite("counters", 1, b.RuntimeArray(u32, 4))
	b.Global("colors", ir.SpaceStorage, 2, b.RuntimeArray(vec4, 16))
	b.Global("params", ir.SpaceStorage, 3, b.Struct("Params", 16, irtest.M("scale", f32, 0)))
	b.Global("dst", ir.SpaceHandle, 4, b.StorageTexture2D(ir.StorageFormatRgba16Float, ir.StorageAccessReadWrite))
	b.Global("ids", ir.SpaceHandle, 5, b.StorageTexture2D(ir.StorageFormatR32Uint, ir.StorageAccessWrite))
	b.Stage(ir.StageCompute)

	p, err := Reflect(b.Module())
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}

	particles := p.BufferDescByName(BufferStructured, "particles")
	if particles == nil {
		t.Fatal("structured buffer particles not reflected")
	}
	if particles.Size() != 32 || particles.Access() != AccessReadWrite {
		t.Errorf("particles = (size %d, %v), want (32, read_write)", particles.Size(), particles.Access())
	}
	if off := particles.VariableOffset("life"); off != 16 {
		t.Errorf("particles life offset = %d, want 16", off)
	}

	params := p.BufferDescByName(BufferStructured, "params")
	if params == nil || params.Access() != AccessRead {
		t.Errorf("params = %v, want read-only structured buffer", params)
	}

	tests := []struct {
		name   string
		kind   ResourceKind
		access ShaderAccess
		ret    ReturnType
	}{
		{"counters", KindRawBuffer, AccessReadWrite, ReturnUint},
		{"colors", KindTypedBuffer, AccessRead, ReturnFloat},
		{"dst", KindTexture, AccessReadWrite, ReturnFloat},
		{"ids", KindTexture, AccessWrite, ReturnUint},
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
	}
}

func TestReflectResourceArray(t *testing.T) {
	b := irtest.New()
	tex := b.Texture2D()
	b.Global("layers", ir.SpaceHandle, 0, b.Array(tex, 4, 0))
	b.Stage(ir.StageFragment)

	p, err := Reflect(b.Module())
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}

	r, idx, err := p.ResourceDesc("layers[3]")
	if err != nil {
		t.Fatalf("ResourceDesc(layers[3]) error = %v", err)
	}
	if r.ArraySize != 4 || r.Count() != 4 || idx != 3 {
		t.Errorf("layers[3] = (size %d, index %d), want (4, 3)", r.ArraySize, idx)
	}
	for _, name := range []string{"layers[4]", "layers[0x1]", "layers[0b1]", "layers[0_1]"} {
		if _, _, err := p.ResourceDesc(name); !errors.Is(err, ErrVariableNotFound) {
			t.Errorf("ResourceDesc(%s) error = %v, want ErrVariableNotFound", name, err)
		}
	}
}

func TestReflectBindingArray(t *testing.T) {
	b := irtest.New()
	b.Global("shadows", ir.SpaceHandle, 0, b.BindingArray(b.Sampler(true), 3))
	b.Stage(ir.StageFragment)

	p, err := Reflect(b.Module())
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	r, idx, err := p.ResourceDesc("shadows[2]")
	if err != nil {
		t.Fatalf("ResourceDesc(shadows[2]) error = %v", err)
	}
	if r.Kind != KindSampler || !r.Comparison || r.ArraySize != 3 || idx != 2 {
		t.Errorf("shadows[2] = (%v, comparison %t, size %d, index %d), want (sampler, true, 3, 2)",
			r.Kind, r.Comparison, r.ArraySize, idx)
	}
}

func TestReflectErrors(t *testing.T) {
	t.Run("space", func(t *testing.T) {
		b := irtest.New()
		b.GlobalInGroup("tex", ir.SpaceHandle, 1, 0, b.Texture2D())
		b.Stage(ir.StageFragment)
		if _, err := Reflect(b.Module()); !errors.Is(err, ErrUnsupportedSpace) {
			t.Errorf("Reflect() error = %v, want ErrUnsupportedSpace", err)
		}
	})
	t.Run("nil", func(t *testing.T) {
		if _, err := Reflect(nil); !errors.Is(err, ErrInvalidModule) {
			t.Errorf("Reflect(nil) error = %v, want ErrInvalidModule", err)
		}
	})
	t.Run("type handle", func(t *testing.T) {
		b := irtest.New()
		b.Global("frame", ir.SpaceUniform, 0, 99)
		if _, err := Reflect(b.Module()); !errors.Is(err, ErrInvalidModule) {
			t.Errorf("Reflect() error = %v, want ErrInvalidModule", err)
		}
	})
	t.Run("unbounded binding array", func(t *testing.T) {
		b := irtest.New()
		b.Global("texs", ir.SpaceHandle, 0, b.BindingArray(b.Texture2D(), 0))
		if _, err := Reflect(b.Module()); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Reflect() error = %v, want ErrUnsupportedType", err)
		}
	})
	t.Run("runtime resource array", func(t *testing.T) {
		b := irtest.New()
		b.Global("texs", ir.SpaceHandle, 0, b.RuntimeArray(b.Texture2D(), 0))
		if _, err := Reflect(b.Module()); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Reflect() error = %v, want ErrUnsupportedType", err)
		}
	})
}

func TestReflectEntryPointIO(t *testing.T) {
	b := irtest.New()
	vec2 := b.Vec(ir.Vec2)
	vec4 := b.Vec(ir.Vec4)
	u32 := b.U32()
	out := b.Struct("FragOut", 32,
		irtest.Member{Name: "color", Type: vec4, Offset: 0, Location: 0},
		irtest.Member{Name: "normal", Type: vec4, Offset: 16, Location: 1},
	)
	b.EntryPoint("vs", ir.StageVertex, []irtest.Arg{
		{Name: "position", Type: vec2, Location: 0},
		{Name: "uv", Type: vec2, Location: 1},
		{Name: "index", Type: u32, Location: -1},
	}, vec4, -2)
	b.EntryPoint("fs", ir.StageFragment, nil, out, -1)

	p, err := Reflect(b.Module())
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	if p.Stages() != gpucore.ShaderStageVertex|gpucore.ShaderStageFragment {
		t.Errorf("Stages() = %v, want vertex|fragment", p.Stages())
	}

	attrs := p.VertexAttributes()
	if len(attrs) != 2 {
		t.Fatalf("VertexAttributes() len = %d, want 2", len(attrs))
	}
	if attrs[0].Name != "position" || attrs[1].Name != "uv" || attrs[1].Location != 1 {
		t.Errorf("VertexAttributes() = %+v %+v", attrs[0], attrs[1])
	}
	if attrs[0].Type != Vector(ScalarFloat, 2) {
		t.Errorf("position type = %v, want vec2<f32>", attrs[0].Type)
	}

	outs := p.FragmentOutputs()
	if len(outs) != 2 || outs[0].Name != "color" || outs[1].Name != "normal" {
		t.Fatalf("FragmentOutputs() = %v", outs)
	}
	if _, ok := p.FragmentOutput("normal"); !ok {
		t.Error("FragmentOutput(normal) not found")
	}
}

func TestReflectUnnamedFragmentOutput(t *testing.T) {
	b := irtest.New()
	vec4 := b.Vec(ir.Vec4)
	b.EntryPoint("fs", ir.StageFragment, nil, vec4, 0)

	p, err := Reflect(b.Module())
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	if _, ok := p.FragmentOutput("location0"); !ok {
		t.Error(`FragmentOutput("location0") not found`)
	}
}
