// Package irtest builds small naga IR modules for tests.
//
// Layouts produced here follow the WGSL uniform rules the lowerer applies
// (vec3/vec4 align 16, array strides rounded to 16), so tests do not
// depend on the WGSL front end.
package irtest

import (
	"github.com/gogpu/naga/ir"
)

// Builder accumulates types, globals and entry points.
type Builder struct {
	m ir.Module
}

// New returns an empty builder.
func New() *Builder { return &Builder{} }

// Module returns the built module.
func (b *Builder) Module() *ir.Module {
	m := b.m
	return &m
}

func (b *Builder) add(name string, inner ir.TypeInner) ir.TypeHandle {
	b.m.Types = append(b.m.Types, ir.Type{Name: name, Inner: inner})
	return ir.TypeHandle(len(b.m.Types) - 1)
}

// F32 adds an f32 type.
func (b *Builder) F32() ir.TypeHandle {
	return b.add("", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
}

// U32 adds a u32 type.
func (b *Builder) U32() ir.TypeHandle {
	return b.add("", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
}

// I32 adds an i32 type.
func (b *Builder) I32() ir.TypeHandle {
	return b.add("", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
}

// Vec adds an n-component f32 vector type.
func (b *Builder) Vec(n ir.VectorSize) ir.TypeHandle {
	return b.add("", ir.VectorType{Size: n, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}})
}

// Mat adds a cols x rows f32 matrix type.
func (b *Builder) Mat(cols, rows ir.VectorSize) ir.TypeHandle {
	return b.add("", ir.MatrixType{Columns: cols, Rows: rows, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}})
}

// Array adds a fixed-size array type with the given stride.
func (b *Builder) Array(base ir.TypeHandle, n, stride uint32) ir.TypeHandle {
	size := n
	return b.add("", ir.ArrayType{Base: base, Size: ir.ArraySize{Constant: &size}, Stride: stride})
}

// RuntimeArray adds a runtime-sized array type.
func (b *Builder) RuntimeArray(base ir.TypeHandle, stride uint32) ir.TypeHandle {
	return b.add("", ir.ArrayType{Base: base, Stride: stride})
}

// Member describes a struct member for Struct.
type Member struct {
	Name   string
	Type   ir.TypeHandle
	Offset uint32
	// Location binds the member to an entry point location when >= 0.
	Location int
}

// M is shorthand for a struct member without a location.
func M(name string, t ir.TypeHandle, offset uint32) Member {
	return Member{Name: name, Type: t, Offset: offset, Location: -1}
}

// Struct adds a struct type of span bytes.
func (b *Builder) Struct(name string, span uint32, members ...Member) ir.TypeHandle {
	out := make([]ir.StructMember, len(members))
	for i, m := range members {
		out[i] = ir.StructMember{Name: m.Name, Type: m.Type, Offset: m.Offset}
		if m.Location >= 0 {
			var bind ir.Binding = ir.LocationBinding{Location: uint32(m.Location)}
			out[i].Binding = &bind
		}
	}
	return b.add(name, ir.StructType{Members: out, Span: span})
}

// Texture2D adds a sampled 2D f32 texture type.
func (b *Builder) Texture2D() ir.TypeHandle {
	return b.add("", ir.ImageType{Dim: ir.Dim2D, Class: ir.ImageClassSampled, SampledKind: ir.ScalarFloat})
}

// StorageTexture2D adds a 2D storage texture type.
func (b *Builder) StorageTexture2D(format ir.StorageFormat, access ir.StorageAccess) ir.TypeHandle {
	return b.add("", ir.ImageType{
		Dim:           ir.Dim2D,
		Class:         ir.ImageClassStorage,
		StorageFormat: format,
		StorageAccess: access,
	})
}

// Image adds an arbitrary image type.
func (b *Builder) Image(img ir.ImageType) ir.TypeHandle {
	return b.add("", img)
}

// BindingArray adds a binding_array of n elements; n == 0 leaves it unbounded.
func (b *Builder) BindingArray(base ir.TypeHandle, n uint32) ir.TypeHandle {
	arr := ir.BindingArrayType{Base: base}
	if n > 0 {
		arr.Size = &n
	}
	return b.add("", arr)
}

// Sampler adds a sampler type.
func (b *Builder) Sampler(comparison bool) ir.TypeHandle {
	return b.add("", ir.SamplerType{Comparison: comparison})
}

// Global adds a bound global variable in group 0.
func (b *Builder) Global(name string, space ir.AddressSpace, binding uint32, t ir.TypeHandle) *Builder {
	return b.GlobalInGroup(name, space, 0, binding, t)
}

// GlobalInGroup adds a bound global variable. Storage globals are
// read-only, the WGSL default for var<storage>.
func (b *Builder) GlobalInGroup(name string, space ir.AddressSpace, group, binding uint32, t ir.TypeHandle) *Builder {
	b.m.GlobalVariables = append(b.m.GlobalVariables, ir.GlobalVariable{
		Name:    name,
		Space:   space,
		Binding: &ir.ResourceBinding{Group: group, Binding: binding},
		Type:    t,
		Access:  ir.StorageRead,
	})
	return b
}

// ReadWrite adds a var<storage, read_write> global in group 0.
func (b *Builder) ReadWrite(name string, binding uint32, t ir.TypeHandle) *Builder {
	b.Global(name, ir.SpaceStorage, binding, t)
	b.m.GlobalVariables[len(b.m.GlobalVariables)-1].Access = ir.StorageReadWrite
	return b
}

// Arg describes an entry point argument.
type Arg struct {
	Name     string
	Type     ir.TypeHandle
	Location int
}

// EntryPoint adds an entry point with the given arguments. A result type
// is bound to result location resultLoc when resultLoc >= 0, or returned
// unbound (for struct results) when resultLoc == -1; -2 means no result.
func (b *Builder) EntryPoint(name string, stage ir.ShaderStage, args []Arg, result ir.TypeHandle, resultLoc int) *Builder {
	fn := ir.Function{Name: name}
	for _, a := range args {
		arg := ir.FunctionArgument{Name: a.Name, Type: a.Type}
		if a.Location >= 0 {
			var bind ir.Binding = ir.LocationBinding{Location: uint32(a.Location)}
			arg.Binding = &bind
		} else {
			var bind ir.Binding = ir.BuiltinBinding{Builtin: ir.BuiltinVertexIndex}
			arg.Binding = &bind
		}
		fn.Arguments = append(fn.Arguments, arg)
	}
	switch {
	case resultLoc >= 0:
		var bind ir.Binding = ir.LocationBinding{Location: uint32(resultLoc)}
		fn.Result = &ir.FunctionResult{Type: result, Binding: &bind}
	case resultLoc == -1:
		fn.Result = &ir.FunctionResult{Type: result}
	}
	b.m.EntryPoints = append(b.m.EntryPoints, ir.EntryPoint{
		Name:     name,
		Stage:    stage,
		Function: fn,
	})
	return b
}

// Stage adds an entry point with no arguments or results.
func (b *Builder) Stage(stage ir.ShaderStage) *Builder {
	return b.EntryPoint("main", stage, nil, 0, -2)
}
