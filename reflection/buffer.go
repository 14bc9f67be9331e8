package reflection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gogpu/shaderbind/gpucore"
)

// BufferKind is the category of a reflected buffer.
type BufferKind uint8

// Buffer kinds.
const (
	BufferConstant BufferKind = iota
	BufferStructured

	bufferKindCount
)

func (k BufferKind) String() string {
	switch k {
	case BufferConstant:
		return "constant"
	case BufferStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// BufferTypeReflection is the layout of a buffer declaration: its variables,
// embedded resources, byte size and required shader access.
//
// A BufferTypeReflection is immutable after construction and may be shared
// by any number of buffer instances and goroutines.
type BufferTypeReflection struct {
	name      string
	kind      BufferKind
	size      uint32
	access    ShaderAccess
	variables map[string]*Variable
	resources map[string]*Resource

	// byOffset holds variables sorted by offset for offset-based access.
	byOffset []*Variable
}

// NewBufferTypeReflection creates a buffer layout from its variables and
// resources. Variable and resource names must be unique.
func NewBufferTypeReflection(name string, kind BufferKind, size uint32, access ShaderAccess,
	vars []Variable, res []Resource) *BufferTypeReflection {
	b := &BufferTypeReflection{
		name:      name,
		kind:      kind,
		size:      size,
		access:    access,
		variables: make(map[string]*Variable, len(vars)),
		resources: make(map[string]*Resource, len(res)),
		byOffset:  make([]*Variable, 0, len(vars)),
	}
	for i := range vars {
		v := vars[i]
		b.variables[v.Name] = &v
		b.byOffset = append(b.byOffset, &v)
	}
	for i := range res {
		r := res[i]
		b.resources[r.Name] = &r
	}
	sort.SliceStable(b.byOffset, func(i, j int) bool {
		if b.byOffset[i].Offset != b.byOffset[j].Offset {
			return b.byOffset[i].Offset < b.byOffset[j].Offset
		}
		return b.byOffset[i].Name < b.byOffset[j].Name
	})
	return b
}

// Name returns the declared buffer name.
func (b *BufferTypeReflection) Name() string { return b.name }

// Kind returns the buffer category.
func (b *BufferTypeReflection) Kind() BufferKind { return b.kind }

// Size returns the buffer size in bytes. For structured buffers this is
// the size of one element.
func (b *BufferTypeReflection) Size() uint32 { return b.size }

// Access returns the shader access the buffer is declared with.
func (b *BufferTypeReflection) Access() ShaderAccess { return b.access }

// VariableCount returns the number of variables in the buffer.
func (b *BufferTypeReflection) VariableCount() int { return len(b.variables) }

// ResourceCount returns the number of resources embedded in the buffer.
func (b *BufferTypeReflection) ResourceCount() int { return len(b.resources) }

// Variables returns the variables sorted by offset.
func (b *BufferTypeReflection) Variables() []*Variable {
	out := make([]*Variable, len(b.byOffset))
	copy(out, b.byOffset)
	return out
}

// Resources returns the embedded resources sorted by name.
func (b *BufferTypeReflection) Resources() []*Resource {
	out := make([]*Resource, 0, len(b.resources))
	for _, r := range b.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Variable returns the variable with exactly the given name.
func (b *BufferTypeReflection) Variable(name string) (*Variable, bool) {
	v, ok := b.variables[name]
	return v, ok
}

// ResourceData returns the embedded resource with the given name.
func (b *BufferTypeReflection) ResourceData(name string) (*Resource, bool) {
	r, ok := b.resources[name]
	return r, ok
}

// ResourceAt returns the embedded resource whose slot register is offset.
func (b *BufferTypeReflection) ResourceAt(offset uint32) (*Resource, bool) {
	for _, r := range b.resources {
		if r.Register == offset {
			return r, true
		}
	}
	return nil, false
}

// VariableData resolves name to a variable and the byte offset it refers to.
//
// The exact name is tried first. If it is not declared, one trailing "[n]"
// is stripped and the remainder must name an array variable with n in range;
// the offset is then that of element n. When allowNonIndexed is false, an
// exact match on an array variable is rejected: every index must be given.
func (b *BufferTypeReflection) VariableData(name string, allowNonIndexed bool) (*Variable, uint32, error) {
	fail := func(format string, args ...any) (*Variable, uint32, error) {
		msg := fmt.Sprintf("Error when getting variable data %q from buffer %q.\n", name, b.name) +
			fmt.Sprintf(format, args...)
		slogger().Warn("reflection: variable lookup failed", "buffer", b.name, "name", name, "reason", msg)
		return nil, InvalidLocation, fmt.Errorf("%w: %s", ErrVariableNotFound, msg)
	}

	var index uint32
	v, ok := b.variables[name]
	if !ok {
		base, indexStr, found := splitLastIndex(name)
		if !found {
			return fail("Variable not found.")
		}
		v, ok = b.variables[base]
		if !ok {
			return fail("Variable not found.")
		}
		if v.ArraySize == 0 {
			return fail("Variable is not an array, so name can't include an array index.")
		}
		n, err := strconv.ParseUint(indexStr, 10, 32)
		if err != nil {
			return fail("Array index must be a literal number (no whitespace are allowed)")
		}
		index = uint32(n)
		if index >= v.ArraySize {
			return fail("Array index (%d) out-of-range. Array size == %d.", index, v.ArraySize)
		}
	} else if !allowNonIndexed && v.ArraySize > 0 {
		return fail("Expecting to find explicit array index in variable name (for N-dimensional array, N indices must be specified).")
	}
	return v, v.ElementOffset(index), nil
}

// VariableOffset returns the byte offset name refers to, or InvalidLocation.
// Array names without an index resolve to element 0.
func (b *BufferTypeReflection) VariableOffset(name string) uint32 {
	_, off, err := b.VariableData(name, true)
	if err != nil {
		return InvalidLocation
	}
	return off
}

// VariableAt returns the variable whose element starts exactly at offset,
// together with the element index.
func (b *BufferTypeReflection) VariableAt(offset uint32) (*Variable, uint32, bool) {
	// First variable with Offset > offset; the candidate precedes it.
	i := sort.Search(len(b.byOffset), func(i int) bool { return b.byOffset[i].Offset > offset })
	for j := i - 1; j >= 0; j-- {
		v := b.byOffset[j]
		if v.Offset == offset {
			return v, 0, true
		}
		if v.ArraySize > 0 && v.ArrayStride > 0 {
			rel := offset - v.Offset
			if rel%v.ArrayStride == 0 && rel/v.ArrayStride < v.ArraySize {
				return v, rel / v.ArrayStride, true
			}
		}
		if v.Offset+v.Extent() <= offset {
			break
		}
	}
	return nil, 0, false
}

// Fits reports whether one element of v stored at offset stays inside the
// buffer and ends before the next variable declared after it.
func (b *BufferTypeReflection) Fits(v *Variable, offset uint32) bool {
	end := uint64(offset) + uint64(v.Size())
	if end > uint64(b.size) {
		return false
	}
	if v.ArraySize > 1 && v.ArrayStride < v.Size() {
		return false
	}
	i := sort.Search(len(b.byOffset), func(i int) bool { return b.byOffset[i].Offset > offset })
	for ; i < len(b.byOffset); i++ {
		next := b.byOffset[i]
		if next == v {
			continue
		}
		return uint64(next.Offset) >= end
	}
	return true
}

// splitLastIndex splits "a.b[3]" into "a.b" and "3".
func splitLastIndex(name string) (base, index string, ok bool) {
	if !strings.HasSuffix(name, "]") {
		return "", "", false
	}
	open := strings.LastIndexByte(name, '[')
	if open <= 0 {
		return "", "", false
	}
	return name[:open], name[open+1 : len(name)-1], true
}

// BufferReflection is a buffer declaration located at a bind point.
type BufferReflection struct {
	*BufferTypeReflection

	register   uint32
	space      uint32
	visibility gpucore.ShaderStage
}

// NewBufferReflection places a buffer layout at (register, space).
func NewBufferReflection(t *BufferTypeReflection, register, space uint32, visibility gpucore.ShaderStage) *BufferReflection {
	return &BufferReflection{
		BufferTypeReflection: t,
		register:             register,
		space:                space,
		visibility:           visibility,
	}
}

// Type returns the shared layout of the buffer.
func (b *BufferReflection) Type() *BufferTypeReflection { return b.BufferTypeReflection }

// Register returns the register (binding) index.
func (b *BufferReflection) Register() uint32 { return b.register }

// Space returns the register space (bind group).
func (b *BufferReflection) Space() uint32 { return b.space }

// Visibility returns the stages that declare the buffer.
func (b *BufferReflection) Visibility() gpucore.ShaderStage { return b.visibility }

// Location returns the registry key of the buffer.
func (b *BufferReflection) Location() BindLocation {
	return BindLocation{Register: b.register, Access: b.access}
}

// BindLocation is the registry key of a buffer: register index plus the
// access it is declared with.
type BindLocation struct {
	Register uint32
	Access   ShaderAccess
}

// InvalidBindLocation is returned for unknown buffer names.
var InvalidBindLocation = BindLocation{Register: InvalidLocation, Access: AccessUndefined}

// IsValid reports whether l refers to a register.
func (l BindLocation) IsValid() bool { return l.Register != InvalidLocation }

func (l BindLocation) String() string {
	if !l.IsValid() {
		return "(invalid)"
	}
	return fmt.Sprintf("(%d, %s)", l.Register, l.Access)
}
