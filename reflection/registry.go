package reflection

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps buffer names to bind locations and bind locations to
// buffer reflections, for one buffer category.
//
// The first declaration of a buffer establishes its identity. Later
// declarations of the same name at the same location are validated against
// it and never overwrite it.
type Registry struct {
	kind       BufferKind
	byName     map[string]BindLocation
	byLocation map[BindLocation]*BufferReflection
}

// NewRegistry creates an empty registry for one buffer category.
func NewRegistry(kind BufferKind) *Registry {
	return &Registry{
		kind:       kind,
		byName:     make(map[string]BindLocation),
		byLocation: make(map[BindLocation]*BufferReflection),
	}
}

// Kind returns the buffer category the registry holds.
func (r *Registry) Kind() BufferKind { return r.kind }

// Len returns the number of registered buffers.
func (r *Registry) Len() int { return len(r.byLocation) }

// Add registers buf, or validates it against an earlier declaration.
// Stage visibility of a validated duplicate is merged into the registered
// buffer.
func (r *Registry) Add(buf *BufferReflection) error {
	loc := buf.Location()
	name := buf.Name()

	prevLoc, nameKnown := r.byName[name]
	prev, locKnown := r.byLocation[loc]

	switch {
	case !nameKnown && !locKnown:
		r.byName[name] = loc
		r.byLocation[loc] = buf
		return nil
	case nameKnown && prevLoc != loc:
		return r.fail(name, []string{mismatch("bind location", prevLoc, loc)})
	case !nameKnown && locKnown:
		return r.fail(name, []string{fmt.Sprintf("bind location %v is already used by buffer %q", loc, prev.Name())})
	}

	if diffs := diffBuffers(prev.Type(), buf.Type()); len(diffs) > 0 {
		return r.fail(name, diffs)
	}
	if prev.space != buf.space {
		return r.fail(name, []string{mismatch("register space", prev.space, buf.space)})
	}
	prev.visibility |= buf.visibility
	return nil
}

func (r *Registry) fail(name string, diffs []string) error {
	for _, d := range diffs {
		slogger().Error("reflection: buffer declarations differ between stages",
			"kind", r.kind.String(), "buffer", name, "mismatch", d)
	}
	return fmt.Errorf("%w: %s buffer %q: %s", ErrStageMismatch, r.kind, name, strings.Join(diffs, "; "))
}

// Location returns the bind location registered for name.
func (r *Registry) Location(name string) (BindLocation, bool) {
	loc, ok := r.byName[name]
	return loc, ok
}

// Buffer returns the buffer registered at loc, or nil.
func (r *Registry) Buffer(loc BindLocation) *BufferReflection {
	return r.byLocation[loc]
}

// Buffers returns the registered buffers sorted by register.
func (r *Registry) Buffers() []*BufferReflection {
	out := make([]*BufferReflection, 0, len(r.byLocation))
	for _, b := range r.byLocation {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].register != out[j].register {
			return out[i].register < out[j].register
		}
		return out[i].access < out[j].access
	})
	return out
}

// diffBuffers lists every layout difference between two declarations of
// the same buffer.
func diffBuffers(a, b *BufferTypeReflection) []string {
	if a == b {
		return nil
	}
	var out []string
	if a.size != b.size {
		out = append(out, mismatch("size", a.size, b.size))
	}
	if a.access != b.access {
		out = append(out, mismatch("shader access", a.access, b.access))
	}
	if len(a.variables) != len(b.variables) {
		out = append(out, mismatch("Variable count", len(a.variables), len(b.variables)))
	}
	for _, va := range a.byOffset {
		vb, ok := b.variables[va.Name]
		if !ok {
			out = append(out, fmt.Sprintf("variable %q missing", va.Name))
			continue
		}
		if va.Offset != vb.Offset {
			out = append(out, mismatch(fmt.Sprintf("variable %q offset", va.Name), va.Offset, vb.Offset))
		}
		if va.Type != vb.Type {
			out = append(out, mismatch(fmt.Sprintf("variable %q type", va.Name), va.Type, vb.Type))
		}
		if va.ArraySize != vb.ArraySize {
			out = append(out, mismatch(fmt.Sprintf("variable %q array size", va.Name), va.ArraySize, vb.ArraySize))
		}
		if va.ArrayStride != vb.ArrayStride {
			out = append(out, mismatch(fmt.Sprintf("variable %q array stride", va.Name), va.ArrayStride, vb.ArrayStride))
		}
		if va.RowMajor != vb.RowMajor {
			out = append(out, mismatch(fmt.Sprintf("variable %q row-major", va.Name), va.RowMajor, vb.RowMajor))
		}
	}
	if len(a.resources) != len(b.resources) {
		out = append(out, mismatch("Resource count", len(a.resources), len(b.resources)))
	}
	for _, ra := range a.Resources() {
		name := ra.Name
		rb, ok := b.resources[name]
		if !ok {
			out = append(out, fmt.Sprintf("resource %q missing", name))
			continue
		}
		for _, d := range ra.diff(rb) {
			out = append(out, fmt.Sprintf("resource %q %s", name, d))
		}
	}
	return out
}

func mismatch(field string, a, b any) string {
	return fmt.Sprintf("%s mismatch (%v vs %v)", field, a, b)
}
