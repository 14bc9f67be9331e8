package shaderbind

import (
	"fmt"
	"sort"

	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/reflection"
	"github.com/gogpu/shaderbind/varbuf"
)

// ComponentInstance holds the values of one named constant buffer and the
// textures and samplers that go with it, independent of any ProgramVars.
// A material is the usual example: its parameters are set once and
// applied to every program that draws with it.
type ComponentInstance struct {
	*varbuf.Block
	cbName   string
	textures map[string]gpucore.TextureViewID
	samplers map[string]gpucore.SamplerID
}

// NewComponentInstance creates an instance of the constant buffer cbName
// declared by p. The instance is a CPU-side copy and owns no device
// objects.
func NewComponentInstance(p *Program, cbName string) (*ComponentInstance, error) {
	desc := p.Reflection().BufferDescByName(reflection.BufferConstant, cbName)
	if desc == nil {
		slogger().Warn("shaderbind: component constant buffer not found", "name", cbName)
		return nil, fmt.Errorf("%w: constant buffer %q", ErrVariableNotFound, cbName)
	}
	return &ComponentInstance{
		Block:    varbuf.New(desc.Type()),
		cbName:   cbName,
		textures: make(map[string]gpucore.TextureViewID),
		samplers: make(map[string]gpucore.SamplerID),
	}, nil
}

// Name returns the constant buffer the instance fills.
func (c *ComponentInstance) Name() string { return c.cbName }

// SetTexture records a texture view to bind to the named global texture
// on Apply.
func (c *ComponentInstance) SetTexture(name string, view gpucore.TextureViewID) {
	c.textures[name] = view
}

// SetSampler records a sampler to bind to the named global sampler on
// Apply.
func (c *ComponentInstance) SetSampler(name string, s gpucore.SamplerID) {
	c.samplers[name] = s
}

// Apply copies the instance's values into the matching constant buffer of
// vars and binds its textures and samplers. The constant buffer must have
// the same size as the instance; unknown resource names fail.
func (c *ComponentInstance) Apply(vars *ProgramVars) error {
	cb := vars.ConstantBuffer(c.cbName)
	if cb == nil {
		return fmt.Errorf("%w: constant buffer %q", ErrVariableNotFound, c.cbName)
	}
	if cb.Size() != c.Size() {
		return fmt.Errorf("%w: component %q is %d bytes, program buffer is %d",
			ErrTypeMismatch, c.cbName, c.Size(), cb.Size())
	}
	if err := cb.SetBlob(c.Bytes(), 0); err != nil {
		return err
	}
	for _, name := range sortedKeys(c.textures) {
		if err := vars.SetTexture(name, c.textures[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(c.samplers) {
		if err := vars.SetSampler(name, c.samplers[name]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
