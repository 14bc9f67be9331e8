package reflection

import (
	"github.com/gogpu/shaderbind/gpucore"
)

// Variable describes a uniform value inside a buffer.
// Offset and ArrayStride are in bytes. ArraySize 0 means the value is not
// an array and ArrayStride is unused.
type Variable struct {
	Name        string
	Type        VariableType
	Offset      uint32
	ArraySize   uint32
	ArrayStride uint32
	RowMajor    bool
}

// IsArray reports whether the variable is an array.
func (v *Variable) IsArray() bool { return v.ArraySize > 0 }

// ElementOffset returns the byte offset of array element i.
func (v *Variable) ElementOffset(i uint32) uint32 {
	return v.Offset + v.ArrayStride*i
}

// Size returns the byte size of one element. Row-major matrices pad rows
// instead of columns, so a non-square one differs from Type.Size().
func (v *Variable) Size() uint32 {
	if v.RowMajor && v.Type.Class == ClassMatrix {
		return v.Type.RowStride() * uint32(v.Type.Rows)
	}
	return v.Type.Size()
}

// Extent returns the number of bytes the variable spans, from Offset to
// the end of the last element.
func (v *Variable) Extent() uint32 {
	if v.ArraySize == 0 {
		return v.Size()
	}
	return v.ArrayStride*(v.ArraySize-1) + v.Size()
}

// equal reports whether two declarations have the same layout.
func (v *Variable) equal(o *Variable) bool {
	return v.Type == o.Type && v.Offset == o.Offset && v.ArraySize == o.ArraySize &&
		v.ArrayStride == o.ArrayStride && v.RowMajor == o.RowMajor
}

// Resource describes a bindable texture, sampler or buffer.
type Resource struct {
	Name     string
	Kind     ResourceKind
	Access   ShaderAccess
	Register uint32
	Space    uint32

	// ArraySize is the number of array elements, 0 for a single resource.
	ArraySize uint32

	// Visibility is the set of stages that declare the resource.
	Visibility gpucore.ShaderStage

	ReturnType ReturnType
	Dimension  Dimension

	// Comparison marks comparison samplers.
	Comparison bool

	// Storage marks storage textures, which bind without a sampler.
	// Format is their texel format.
	Storage bool
	Format  gpucore.TexelFormat

	// Stride is the element stride of raw and typed buffers.
	Stride uint32
}

// Count returns the number of registers the resource occupies.
func (r *Resource) Count() uint32 {
	if r.ArraySize == 0 {
		return 1
	}
	return r.ArraySize
}

// diff lists the fields that differ between two declarations of the same
// resource. Visibility is not compared; stages add to it.
func (r *Resource) diff(o *Resource) []string {
	var out []string
	if r.Kind != o.Kind {
		out = append(out, mismatch("type", r.Kind, o.Kind))
	}
	if r.Dimension != o.Dimension {
		out = append(out, mismatch("dimension", r.Dimension, o.Dimension))
	}
	if r.ReturnType != o.ReturnType {
		out = append(out, mismatch("return type", r.ReturnType, o.ReturnType))
	}
	if r.Register != o.Register {
		out = append(out, mismatch("register index", r.Register, o.Register))
	}
	if r.Space != o.Space {
		out = append(out, mismatch("register space", r.Space, o.Space))
	}
	if r.ArraySize != o.ArraySize {
		out = append(out, mismatch("array size", r.ArraySize, o.ArraySize))
	}
	if r.Access != o.Access {
		out = append(out, mismatch("shader access", r.Access, o.Access))
	}
	if r.Comparison != o.Comparison {
		out = append(out, mismatch("comparison", r.Comparison, o.Comparison))
	}
	if r.Storage != o.Storage {
		out = append(out, mismatch("storage", r.Storage, o.Storage))
	}
	if r.Format != o.Format {
		out = append(out, mismatch("texel format", r.Format, o.Format))
	}
	return out
}

// Attribute is a vertex input or fragment output bound to a location.
type Attribute struct {
	Name      string
	Location  uint32
	Type      VariableType
	ArraySize uint32
}
