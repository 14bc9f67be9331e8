package shaderbind

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestComponentInstanceApply(t *testing.T) {
	vars, _, dev := newDrawVars(t)
	mat, err := NewComponentInstance(vars.Program(), "material")
	if err != nil {
		t.Fatalf("NewComponentInstance() error = %v", err)
	}
	if mat.Name() != "material" {
		t.Errorf("Name() = %q, want material", mat.Name())
	}
	if err := mat.SetVariable("tint", mgl32.Vec4{1, 0, 0, 1}); err != nil {
		t.Fatalf("SetVariable(tint) error = %v", err)
	}
	if err := mat.SetVariable("scale", float32(0.5)); err != nil {
		t.Fatalf("SetVariable(scale) error = %v", err)
	}
	mat.SetTexture("albedo", 7)
	mat.SetSampler("samp", 8)

	if err := mat.Apply(vars); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	id, err := vars.BindGroup()
	if err != nil {
		t.Fatalf("BindGroup() error = %v", err)
	}
	cb := vars.ConstantBuffer("material")
	if got := floatAt(dev.Contents(cb.Buffer()), 16); got != 0.5 {
		t.Errorf("scale on device = %v, want 0.5", got)
	}
	var view, sampler bool
	for _, e := range dev.BindGroups[id].Entries {
		view = view || (e.Binding == 2 && e.TextureView == 7)
		sampler = sampler || (e.Binding == 3 && e.Sampler == 8)
	}
	if !view || !sampler {
		t.Errorf("bind group entries %+v miss the component's texture or sampler", dev.BindGroups[id].Entries)
	}
}

func TestComponentInstanceErrors(t *testing.T) {
	vars, ctx, _ := newDrawVars(t)
	if _, err := NewComponentInstance(vars.Program(), "albedo"); !errors.Is(err, ErrVariableNotFound) {
		t.Errorf("NewComponentInstance(albedo) error = %v, want ErrVariableNotFound", err)
	}

	mat, err := NewComponentInstance(vars.Program(), "material")
	if err != nil {
		t.Fatalf("NewComponentInstance() error = %v", err)
	}
	mat.SetTexture("samp", 1)
	if err := mat.Apply(vars); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Apply() with a sampler name for a texture error = %v, want ErrKindMismatch", err)
	}

	// a program without the material block
	other := newTestProgram(t, ctx, computeSource)
	otherVars, err := NewProgramVars(other)
	if err != nil {
		t.Fatalf("NewProgramVars() error = %v", err)
	}
	if err := mat.Apply(otherVars); !errors.Is(err, ErrVariableNotFound) {
		t.Errorf("Apply() to a program without the block error = %v, want ErrVariableNotFound", err)
	}
}
