package reflection

import "fmt"

// InvalidLocation marks an unresolved register index or byte offset.
const InvalidLocation = ^uint32(0)

// TypeClass is the shape of a variable type.
type TypeClass uint8

// Type classes.
const (
	ClassUnknown TypeClass = iota
	ClassScalar
	ClassVector
	ClassMatrix
)

// ScalarKind is the component type of a variable.
type ScalarKind uint8

// Scalar kinds.
const (
	ScalarUnknown ScalarKind = iota
	ScalarBool
	ScalarInt
	ScalarUint
	ScalarFloat
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarBool:
		return "bool"
	case ScalarInt:
		return "i32"
	case ScalarUint:
		return "u32"
	case ScalarFloat:
		return "f32"
	default:
		return "unknown"
	}
}

// VariableType is the semantic type of a uniform value: a scalar, a vector
// of Rows components, or a matrix of Columns columns by Rows rows.
// All components are 32 bits wide.
type VariableType struct {
	Class   TypeClass
	Scalar  ScalarKind
	Rows    uint8
	Columns uint8
}

// UnknownType is the type of values the binding layer cannot type-check.
var UnknownType = VariableType{}

// Scalar returns a scalar type.
func Scalar(k ScalarKind) VariableType {
	return VariableType{Class: ClassScalar, Scalar: k, Rows: 1, Columns: 1}
}

// Vector returns an n-component vector type.
func Vector(k ScalarKind, n uint8) VariableType {
	return VariableType{Class: ClassVector, Scalar: k, Rows: n, Columns: 1}
}

// Matrix returns a cols x rows matrix type.
func Matrix(k ScalarKind, cols, rows uint8) VariableType {
	return VariableType{Class: ClassMatrix, Scalar: k, Rows: rows, Columns: cols}
}

// ColumnStride returns the byte distance between matrix columns.
// Columns are aligned like a vector of Rows components.
func (t VariableType) ColumnStride() uint32 {
	switch t.Rows {
	case 2:
		return 8
	case 3, 4:
		return 16
	default:
		return 4
	}
}

// RowStride returns the byte distance between the rows of a matrix stored
// row-major. Rows are aligned like a vector of Columns components.
func (t VariableType) RowStride() uint32 {
	switch t.Columns {
	case 2:
		return 8
	case 3, 4:
		return 16
	default:
		return 4
	}
}

// Size returns the byte size of one value of the type, including the
// padding between matrix columns. Unknown types report 0.
func (t VariableType) Size() uint32 {
	switch t.Class {
	case ClassScalar:
		return 4
	case ClassVector:
		return 4 * uint32(t.Rows)
	case ClassMatrix:
		return t.ColumnStride() * uint32(t.Columns)
	default:
		return 0
	}
}

// Components returns the number of 32-bit values the type carries,
// excluding padding.
func (t VariableType) Components() int {
	switch t.Class {
	case ClassScalar:
		return 1
	case ClassVector:
		return int(t.Rows)
	case ClassMatrix:
		return int(t.Rows) * int(t.Columns)
	default:
		return 0
	}
}

// String returns the WGSL spelling of the type.
func (t VariableType) String() string {
	switch t.Class {
	case ClassScalar:
		return t.Scalar.String()
	case ClassVector:
		return fmt.Sprintf("vec%d<%s>", t.Rows, t.Scalar)
	case ClassMatrix:
		return fmt.Sprintf("mat%dx%d<%s>", t.Columns, t.Rows, t.Scalar)
	default:
		return "unknown"
	}
}

// ShaderAccess is how a shader may touch a buffer or resource.
type ShaderAccess uint8

// Shader access modes.
const (
	AccessUndefined ShaderAccess = iota
	AccessRead
	AccessReadWrite
	AccessWrite
)

// Writable reports whether a shader may store to the resource.
func (a ShaderAccess) Writable() bool {
	return a == AccessReadWrite || a == AccessWrite
}

func (a ShaderAccess) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read_write"
	default:
		return "undefined"
	}
}

// ResourceKind is the category of a bindable resource.
type ResourceKind uint8

// Resource kinds.
const (
	KindUnknown ResourceKind = iota
	KindTexture
	KindSampler
	KindRawBuffer
	KindTypedBuffer
	KindStructuredBuffer
)

func (k ResourceKind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindSampler:
		return "sampler"
	case KindRawBuffer:
		return "raw-buffer"
	case KindTypedBuffer:
		return "typed-buffer"
	case KindStructuredBuffer:
		return "structured-buffer"
	default:
		return "unknown"
	}
}

// Dimension is the shape of a texture or buffer resource.
type Dimension uint8

// Resource dimensions.
const (
	DimUnknown Dimension = iota
	DimTexture1D
	DimTexture2D
	DimTexture3D
	DimTextureCube
	DimTexture1DArray
	DimTexture2DArray
	DimTexture2DMS
	DimTexture2DMSArray
	DimTextureCubeArray
	DimBuffer
)

var dimensionNames = [...]string{
	DimUnknown:          "unknown",
	DimTexture1D:        "1d",
	DimTexture2D:        "2d",
	DimTexture3D:        "3d",
	DimTextureCube:      "cube",
	DimTexture1DArray:   "1d_array",
	DimTexture2DArray:   "2d_array",
	DimTexture2DMS:      "2d_ms",
	DimTexture2DMSArray: "2d_ms_array",
	DimTextureCubeArray: "cube_array",
	DimBuffer:           "buffer",
}

func (d Dimension) String() string {
	if int(d) < len(dimensionNames) {
		return dimensionNames[d]
	}
	return "unknown"
}

// ReturnType is the component type a texture read produces.
type ReturnType uint8

// Texture return types.
const (
	ReturnUnknown ReturnType = iota
	ReturnFloat
	ReturnSint
	ReturnUint
	ReturnDepth
)

func (r ReturnType) String() string {
	switch r {
	case ReturnFloat:
		return "f32"
	case ReturnSint:
		return "i32"
	case ReturnUint:
		return "u32"
	case ReturnDepth:
		return "depth"
	default:
		return "unknown"
	}
}
