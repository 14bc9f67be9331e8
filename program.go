package shaderbind

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"

	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/layout"
	"github.com/gogpu/shaderbind/reflection"
)

// Program is a set of linked shader stages with one merged reflection and
// the layout derived from it.
type Program struct {
	ctx        *Context
	reflection *reflection.ProgramReflection
	layout     *layout.Layout
	native     *layout.Native
	modules    []gpucore.ShaderModuleID

	once sync.Once
}

// NewProgram compiles each WGSL source to a shader module, reflects it,
// merges the reflections of all stages and builds the program layout.
//
// Sources may hold one stage each or several entry points together.
// Conflicting declarations between sources fail with every mismatch
// reported; a layout over the context's cost budget fails with
// ErrCapacityExceeded. No device objects survive a failure.
func NewProgram(ctx *Context, sources ...string) (*Program, error) {
	if ctx.Closed() {
		return nil, ErrClosed
	}
	if len(sources) == 0 {
		return nil, ErrNoSource
	}

	p := &Program{ctx: ctx}
	stages := make([]*reflection.ProgramReflection, 0, len(sources))
	for i, src := range sources {
		refl, id, err := p.compile(i, src)
		if err != nil {
			p.destroyModules()
			return nil, err
		}
		stages = append(stages, refl)
		p.modules = append(p.modules, id)
	}

	merged, err := reflection.Merge(stages...)
	if err != nil {
		slogger().Error("shaderbind: program stages disagree", "err", err)
		p.destroyModules()
		return nil, err
	}
	lay, err := layout.Build(merged, ctx.opts.costBudget)
	if err != nil {
		p.destroyModules()
		return nil, fmt.Errorf("build layout: %w", err)
	}
	native, err := ctx.layouts.Acquire(lay)
	if err != nil {
		p.destroyModules()
		return nil, fmt.Errorf("create native layout: %w", err)
	}

	p.reflection = merged
	p.layout = lay
	p.native = native
	slogger().Debug("shaderbind: program created",
		"stages", merged.Stages().String(),
		"modules", len(p.modules),
		"cost", lay.Cost())
	return p, nil
}

func (p *Program) compile(i int, src string) (*reflection.ProgramReflection, gpucore.ShaderModuleID, error) {
	module, err := reflection.ParseWGSL(src)
	if err != nil {
		return nil, gpucore.InvalidID, fmt.Errorf("shader %d: %w", i, err)
	}
	refl, err := reflection.Reflect(module)
	if err != nil {
		return nil, gpucore.InvalidID, fmt.Errorf("shader %d: %w", i, err)
	}
	code, err := compileSPIRV(module, p.ctx.opts.validate)
	if err != nil {
		return nil, gpucore.InvalidID, fmt.Errorf("shader %d: %w", i, err)
	}
	id, err := p.ctx.dev.CreateShaderModule(code, fmt.Sprintf("%s shader %d", p.ctx.opts.label, i))
	if err != nil {
		return nil, gpucore.InvalidID, fmt.Errorf("shader %d: %w", i, err)
	}
	return refl, id, nil
}

// compileSPIRV validates module when asked and generates SPIR-V words.
func compileSPIRV(module *ir.Module, validate bool) ([]uint32, error) {
	if validate {
		verrs, err := naga.Validate(module)
		if err != nil {
			return nil, fmt.Errorf("validate: %w", err)
		}
		if len(verrs) > 0 {
			errs := make([]error, len(verrs))
			for i := range verrs {
				errs[i] = &verrs[i]
			}
			return nil, fmt.Errorf("validate: %w", errors.Join(errs...))
		}
	}
	code, err := naga.GenerateSPIRV(module, spirv.DefaultOptions())
	if err != nil {
		return nil, err
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = uint32(code[i*4]) |
			uint32(code[i*4+1])<<8 |
			uint32(code[i*4+2])<<16 |
			uint32(code[i*4+3])<<24
	}
	return words, nil
}

func (p *Program) destroyModules() {
	for _, id := range p.modules {
		p.ctx.dev.DestroyShaderModule(id)
	}
	p.modules = nil
}

// Context returns the context the program was created in.
func (p *Program) Context() *Context { return p.ctx }

// Reflection returns the merged reflection of all stages.
func (p *Program) Reflection() *reflection.ProgramReflection { return p.reflection }

// Layout returns the program layout.
func (p *Program) Layout() *layout.Layout { return p.layout }

// PipelineLayout returns the native pipeline layout, shared with every
// program of the same layout signature.
func (p *Program) PipelineLayout() gpucore.PipelineLayoutID { return p.native.PipelineLayout }

// BindGroupLayout returns the native bind group layout of space.
func (p *Program) BindGroupLayout(space uint32) gpucore.BindGroupLayoutID {
	return p.native.BindGroupLayout(space)
}

// ShaderModules returns the shader modules, one per source.
func (p *Program) ShaderModules() []gpucore.ShaderModuleID { return p.modules }

// Destroy queues the program's shader modules and its reference to the
// native layout for release. Destroy is idempotent.
func (p *Program) Destroy() {
	p.once.Do(func() {
		modules, native := p.modules, p.native
		ctx := p.ctx
		ctx.Release(func() {
			for _, id := range modules {
				ctx.dev.DestroyShaderModule(id)
			}
			ctx.layouts.Release(native)
		})
	})
}
