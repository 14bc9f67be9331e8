package reflection

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gogpu/shaderbind/gpucore"
)

// ProgramReflection is the reflection of a linked program: its buffers,
// global resources, vertex attributes and fragment outputs.
//
// A ProgramReflection returned by Reflect or Merge is not modified again
// and may be read from multiple goroutines.
type ProgramReflection struct {
	stages           gpucore.ShaderStage
	buffers          [bufferKindCount]*Registry
	resources        map[string]*Resource
	vertexAttributes map[string]*Attribute
	fragmentOutputs  map[string]*Attribute
}

func newProgramReflection() *ProgramReflection {
	p := &ProgramReflection{
		resources:        make(map[string]*Resource),
		vertexAttributes: make(map[string]*Attribute),
		fragmentOutputs:  make(map[string]*Attribute),
	}
	for k := range p.buffers {
		p.buffers[k] = NewRegistry(BufferKind(k))
	}
	return p
}

// Merge combines per-stage reflections into one program reflection.
//
// Buffers with the same name must be declared at the same location with
// identical layouts, and global resources with the same name must agree on
// every field. All mismatches are reported together; on failure Merge
// returns nil and the caller must discard the program.
func Merge(stages ...*ProgramReflection) (*ProgramReflection, error) {
	out := newProgramReflection()
	var errs []error
	for _, s := range stages {
		if s == nil {
			continue
		}
		out.stages |= s.stages
		for k, reg := range s.buffers {
			for _, b := range reg.Buffers() {
				clone := NewBufferReflection(b.Type(), b.register, b.space, b.visibility)
				if err := out.buffers[k].Add(clone); err != nil {
					errs = append(errs, err)
				}
			}
		}
		for _, r := range s.Resources() {
			clone := *r
			if err := out.addResource(&clone); err != nil {
				errs = append(errs, err)
			}
		}
		for _, a := range s.VertexAttributes() {
			clone := *a
			if err := addAttribute(out.vertexAttributes, &clone); err != nil {
				errs = append(errs, err)
			}
		}
		for _, a := range s.FragmentOutputs() {
			clone := *a
			if err := addAttribute(out.fragmentOutputs, &clone); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// addResource registers a global resource, validating it against an
// earlier declaration of the same name.
func (p *ProgramReflection) addResource(r *Resource) error {
	prev, ok := p.resources[r.Name]
	if !ok {
		p.resources[r.Name] = r
		return nil
	}
	diffs := prev.diff(r)
	if len(diffs) == 0 {
		prev.Visibility |= r.Visibility
		return nil
	}
	for _, d := range diffs {
		slogger().Error("reflection: resource declarations differ between stages", "resource", r.Name, "mismatch", d)
	}
	return fmt.Errorf("%w: resource %q: %s", ErrStageMismatch, r.Name, strings.Join(diffs, "; "))
}

// Stages returns the stages that contributed to the program.
func (p *ProgramReflection) Stages() gpucore.ShaderStage { return p.stages }

// Registry returns the buffer registry of one category.
func (p *ProgramReflection) Registry(kind BufferKind) *Registry { return p.buffers[kind] }

// Buffers returns the buffers of one category sorted by register.
func (p *ProgramReflection) Buffers(kind BufferKind) []*BufferReflection {
	return p.buffers[kind].Buffers()
}

// BufferBinding returns the bind location of the named buffer, searching
// every category. Unknown names return InvalidBindLocation.
func (p *ProgramReflection) BufferBinding(name string) BindLocation {
	for _, reg := range p.buffers {
		if loc, ok := reg.Location(name); ok {
			return loc
		}
	}
	return InvalidBindLocation
}

// BufferDesc returns the buffer of the given category at loc, or nil.
func (p *ProgramReflection) BufferDesc(kind BufferKind, loc BindLocation) *BufferReflection {
	return p.buffers[kind].Buffer(loc)
}

// BufferDescByName returns the named buffer of the given category, or nil.
func (p *ProgramReflection) BufferDescByName(kind BufferKind, name string) *BufferReflection {
	loc := p.BufferBinding(name)
	if !loc.IsValid() {
		return nil
	}
	return p.BufferDesc(kind, loc)
}

// Resources returns the global resources sorted by register, then name.
func (p *ProgramReflection) Resources() []*Resource {
	out := make([]*Resource, 0, len(p.resources))
	for _, r := range p.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Register != out[j].Register {
			return out[i].Register < out[j].Register
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ResourceDesc resolves name to a global resource and an array element.
// The exact name is tried first; otherwise one trailing "[n]" is stripped
// and the remainder must name a resource array with n in range.
func (p *ProgramReflection) ResourceDesc(name string) (*Resource, uint32, error) {
	if r, ok := p.resources[name]; ok {
		return r, 0, nil
	}
	fail := func(reason string) (*Resource, uint32, error) {
		slogger().Warn("reflection: resource lookup failed", "name", name, "reason", reason)
		return nil, 0, fmt.Errorf("%w: resource %q: %s", ErrVariableNotFound, name, reason)
	}
	base, indexStr, ok := splitLastIndex(name)
	if !ok {
		return fail("Resource not found.")
	}
	r, ok := p.resources[base]
	if !ok {
		return fail("Resource not found.")
	}
	if r.ArraySize == 0 {
		return fail("Resource is not an array, so name can't include an array index.")
	}
	n, err := strconv.ParseUint(indexStr, 10, 32)
	if err != nil {
		return fail("Array index must be a literal number (no whitespace are allowed)")
	}
	if uint32(n) >= r.ArraySize {
		return fail(fmt.Sprintf("Array index (%d) out-of-range. Array size == %d.", n, r.ArraySize))
	}
	return r, uint32(n), nil
}

// VertexAttributes returns vertex inputs sorted by location.
func (p *ProgramReflection) VertexAttributes() []*Attribute {
	return sortedAttributes(p.vertexAttributes)
}

// VertexAttribute returns the named vertex input.
func (p *ProgramReflection) VertexAttribute(name string) (*Attribute, bool) {
	a, ok := p.vertexAttributes[name]
	return a, ok
}

// FragmentOutputs returns fragment outputs sorted by location.
func (p *ProgramReflection) FragmentOutputs() []*Attribute {
	return sortedAttributes(p.fragmentOutputs)
}

// FragmentOutput returns the named fragment output.
func (p *ProgramReflection) FragmentOutput(name string) (*Attribute, bool) {
	a, ok := p.fragmentOutputs[name]
	return a, ok
}

func sortedAttributes(m map[string]*Attribute) []*Attribute {
	out := make([]*Attribute, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Name < out[j].Name
	})
	return out
}
