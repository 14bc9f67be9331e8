package shaderbind

import (
	"fmt"

	"github.com/gogpu/shaderbind/bindtable"
	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/layout"
	"github.com/gogpu/shaderbind/reflection"
)

// ProgramVars is the binding state of one program instance: a constant
// buffer per declared uniform block and what is bound to every other
// resource slot.
//
// ProgramVars has a single writer and no locking.
type ProgramVars struct {
	program *Program
	ctx     *Context

	constantBuffers []*ConstantBuffer
	cbByRegister    map[uint32]*ConstantBuffer
	cbByName        map[string]*ConstantBuffer

	structured map[string]*StructuredBuffer
	tables     []*bindtable.Table
}

// NewProgramVars creates the binding state of p. Constant buffers are
// created for every uniform block and bound to their slots.
func NewProgramVars(p *Program) (*ProgramVars, error) {
	v := &ProgramVars{
		program:      p,
		ctx:          p.ctx,
		cbByRegister: make(map[uint32]*ConstantBuffer),
		cbByName:     make(map[string]*ConstantBuffer),
		structured:   make(map[string]*StructuredBuffer),
	}
	lay := p.Layout()
	for space := uint32(0); space < lay.Spaces(); space++ {
		v.tables = append(v.tables, bindtable.New(lay, space, p.BindGroupLayout(space), p.ctx))
	}

	for _, desc := range p.Reflection().Buffers(reflection.BufferConstant) {
		cb, err := NewConstantBuffer(p.ctx, desc.Type())
		if err != nil {
			v.Destroy()
			return nil, err
		}
		v.constantBuffers = append(v.constantBuffers, cb)
		v.cbByRegister[desc.Register()] = cb
		v.cbByName[desc.Type().Name()] = cb
		if err := v.table(desc.Space()).SetBuffer(desc.Register(), layout.KindCBV, cb.Buffer(), 0, 0); err != nil {
			v.Destroy()
			return nil, err
		}
	}
	return v, nil
}

// Program returns the program the vars bind.
func (v *ProgramVars) Program() *Program { return v.program }

func (v *ProgramVars) table(space uint32) *bindtable.Table {
	if int(space) >= len(v.tables) {
		return nil
	}
	return v.tables[space]
}

// ConstantBuffer returns the constant buffer of the named uniform block,
// or nil.
func (v *ProgramVars) ConstantBuffer(name string) *ConstantBuffer {
	cb, ok := v.cbByName[name]
	if !ok {
		slogger().Warn("shaderbind: constant buffer not found", "name", name)
	}
	return cb
}

// ConstantBufferAt returns the constant buffer bound at register reg, or nil.
func (v *ProgramVars) ConstantBufferAt(reg uint32) *ConstantBuffer {
	return v.cbByRegister[reg]
}

// ConstantBuffers returns the constant buffers sorted by register.
func (v *ProgramVars) ConstantBuffers() []*ConstantBuffer { return v.constantBuffers }

// resource resolves name to a global resource of kind and its element.
func (v *ProgramVars) resource(name string, kinds ...reflection.ResourceKind) (*reflection.Resource, uint32, error) {
	r, elem, err := v.program.Reflection().ResourceDesc(name)
	if err != nil {
		return nil, 0, err
	}
	for _, k := range kinds {
		if r.Kind == k {
			return r, elem, nil
		}
	}
	err = fmt.Errorf("%w: %q is a %s, want %s", ErrKindMismatch, name, r.Kind, kinds[0])
	slogger().Warn("shaderbind: binding rejected", "name", name, "err", err)
	return nil, 0, err
}

// SetTexture binds a texture view to the named texture. Elements of
// texture arrays are addressed as "name[i]".
func (v *ProgramVars) SetTexture(name string, view gpucore.TextureViewID) error {
	r, elem, err := v.resource(name, reflection.KindTexture)
	if err != nil {
		return err
	}
	return v.table(r.Space).SetTexture(r.Register, elem, view)
}

// SetSampler binds a sampler to the named sampler.
func (v *ProgramVars) SetSampler(name string, s gpucore.SamplerID) error {
	r, elem, err := v.resource(name, reflection.KindSampler)
	if err != nil {
		return err
	}
	return v.table(r.Space).SetSampler(r.Register, elem, s)
}

// SetRawBuffer binds buf to the named raw (u32 or i32 array) buffer.
func (v *ProgramVars) SetRawBuffer(name string, buf gpucore.BufferID) error {
	r, _, err := v.resource(name, reflection.KindRawBuffer)
	if err != nil {
		return err
	}
	return v.table(r.Space).SetBuffer(r.Register, bufferKind(r.Access), buf, 0, 0)
}

// SetTypedBuffer binds buf to the named typed (vector or float array)
// buffer.
func (v *ProgramVars) SetTypedBuffer(name string, buf gpucore.BufferID) error {
	r, _, err := v.resource(name, reflection.KindTypedBuffer)
	if err != nil {
		return err
	}
	return v.table(r.Space).SetBuffer(r.Register, bufferKind(r.Access), buf, 0, 0)
}

// SetStructuredBuffer binds sb to the named structured buffer. sb must
// have been created for a buffer with the same layout.
func (v *ProgramVars) SetStructuredBuffer(name string, sb *StructuredBuffer) error {
	desc := v.program.Reflection().BufferDescByName(reflection.BufferStructured, name)
	if desc == nil {
		if _, _, err := v.program.Reflection().ResourceDesc(name); err == nil {
			return fmt.Errorf("%w: %q is not a structured buffer", ErrKindMismatch, name)
		}
		slogger().Warn("shaderbind: structured buffer not found", "name", name)
		return fmt.Errorf("%w: structured buffer %q", ErrVariableNotFound, name)
	}
	if sb == nil {
		return fmt.Errorf("%w: nil structured buffer for %q", ErrKindMismatch, name)
	}
	if got, want := sb.Layout(), desc.Type(); got.Size() != want.Size() || got.VariableCount() != want.VariableCount() {
		err := fmt.Errorf("%w: buffer of %q (%d bytes) bound to %q (%d bytes)",
			ErrKindMismatch, got.Name(), got.Size(), name, want.Size())
		slogger().Warn("shaderbind: binding rejected", "name", name, "err", err)
		return err
	}
	if err := v.table(desc.Space()).SetBuffer(desc.Register(), bufferKind(desc.Access()), sb.Buffer(), 0, 0); err != nil {
		return err
	}
	v.structured[name] = sb
	return nil
}

// StructuredBuffer returns the structured buffer bound to name, or nil.
func (v *ProgramVars) StructuredBuffer(name string) *StructuredBuffer {
	return v.structured[name]
}

func bufferKind(a reflection.ShaderAccess) layout.Kind {
	if a.Writable() {
		return layout.KindUAV
	}
	return layout.KindSRV
}

// Upload uploads every dirty constant buffer and bound structured buffer.
func (v *ProgramVars) Upload() error {
	for _, cb := range v.constantBuffers {
		if _, err := cb.Upload(); err != nil {
			return err
		}
	}
	for _, sb := range v.structured {
		if _, err := sb.Upload(); err != nil {
			return err
		}
	}
	return nil
}

// BindGroup uploads dirty buffers and returns the bind group of space 0.
// A new group is created only when a binding changed.
func (v *ProgramVars) BindGroup() (gpucore.BindGroupID, error) {
	groups, err := v.BindGroups()
	if err != nil || len(groups) == 0 {
		return gpucore.InvalidID, err
	}
	return groups[0], nil
}

// BindGroups uploads dirty buffers and returns one bind group per space.
func (v *ProgramVars) BindGroups() ([]gpucore.BindGroupID, error) {
	if err := v.Upload(); err != nil {
		return nil, err
	}
	out := make([]gpucore.BindGroupID, len(v.tables))
	for i, t := range v.tables {
		id, err := t.BindGroup(v.ctx.dev)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// Table returns the binding table of space, or nil.
func (v *ProgramVars) Table(space uint32) *bindtable.Table { return v.table(space) }

// Destroy queues the constant buffers and bind groups for release.
// Structured buffers are owned by the caller.
func (v *ProgramVars) Destroy() {
	for _, cb := range v.constantBuffers {
		cb.Destroy()
	}
	for _, t := range v.tables {
		t.Destroy(v.ctx.dev)
	}
}
