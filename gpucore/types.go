package gpucore

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureViewID is an opaque handle to a texture view owned by the caller.
type TextureViewID uint64

// SamplerID is an opaque handle to a sampler owned by the caller.
type SamplerID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 0

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 1

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 2

	// BufferUsageStorage indicates the buffer can be used as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 3
)

// ShaderStage is a bitmask of pipeline stages a binding is visible to.
type ShaderStage uint32

// Shader stages.
const (
	ShaderStageVertex   ShaderStage = 1 << 0
	ShaderStageFragment ShaderStage = 1 << 1
	ShaderStageCompute  ShaderStage = 1 << 2

	ShaderStageNone ShaderStage = 0
)

// String returns the stage list joined with '|', e.g. "vertex|fragment".
func (s ShaderStage) String() string {
	if s == ShaderStageNone {
		return "none"
	}
	out := ""
	add := func(name string) {
		if out != "" {
			out += "|"
		}
		out += name
	}
	if s&ShaderStageVertex != 0 {
		add("vertex")
	}
	if s&ShaderStageFragment != 0 {
		add("fragment")
	}
	if s&ShaderStageCompute != 0 {
		add("compute")
	}
	return out
}

// BindingType specifies the type of a shader binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeStorageBuffer is a storage buffer binding (read-write).
	BindingTypeStorageBuffer

	// BindingTypeReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingTypeReadOnlyStorageBuffer

	// BindingTypeSampler is a texture sampler binding.
	BindingTypeSampler

	// BindingTypeSampledTexture is a sampled texture binding.
	BindingTypeSampledTexture

	// BindingTypeStorageTexture is a storage texture binding.
	BindingTypeStorageTexture
)

// String returns a short name for the binding type.
func (t BindingType) String() string {
	switch t {
	case BindingTypeUniformBuffer:
		return "uniform"
	case BindingTypeStorageBuffer:
		return "storage"
	case BindingTypeReadOnlyStorageBuffer:
		return "read-only-storage"
	case BindingTypeSampler:
		return "sampler"
	case BindingTypeSampledTexture:
		return "texture"
	case BindingTypeStorageTexture:
		return "storage-texture"
	default:
		return "unknown"
	}
}

// IsBuffer reports whether the binding type binds a buffer range.
func (t BindingType) IsBuffer() bool {
	return t == BindingTypeUniformBuffer || t == BindingTypeStorageBuffer || t == BindingTypeReadOnlyStorageBuffer
}

// ViewDimension is the dimensionality of a bound texture view.
type ViewDimension uint32

// View dimensions.
const (
	ViewDimensionUndefined ViewDimension = iota
	ViewDimension1D
	ViewDimension2D
	ViewDimension2DArray
	ViewDimensionCube
	ViewDimensionCubeArray
	ViewDimension3D
)

// SampleType is the component type a texture binding returns.
type SampleType uint32

// Sample types.
const (
	SampleTypeUndefined SampleType = iota
	SampleTypeFloat
	SampleTypeDepth
	SampleTypeSint
	SampleTypeUint
)

// StorageAccess is the access mode of a storage texture binding.
type StorageAccess uint32

// Storage texture access modes.
const (
	StorageAccessUndefined StorageAccess = iota
	StorageAccessReadOnly
	StorageAccessWriteOnly
	StorageAccessReadWrite
)

// TexelFormat is the WGSL spelling of a storage texture format,
// e.g. "rgba8unorm" or "r32sint". The empty string means unknown.
type TexelFormat string

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	// Label is an optional debug label.
	Label string

	// Entries defines the bindings in this layout.
	Entries []BindGroupLayoutEntry
}

// BindGroupLayoutEntry describes a single binding in a bind group layout.
type BindGroupLayoutEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Visibility lists the stages that access the binding.
	Visibility ShaderStage

	// Type is the type of resource bound at this index.
	Type BindingType

	// Count is the number of array elements; 0 means a single binding.
	Count uint32

	// MinBindingSize is the minimum buffer size for buffer bindings.
	// Set to 0 for non-buffer bindings.
	MinBindingSize uint64

	// ViewDimension, SampleType and Multisampled describe texture bindings.
	ViewDimension ViewDimension
	SampleType    SampleType
	Multisampled  bool

	// Access and Format describe storage texture bindings.
	Access StorageAccess
	Format TexelFormat

	// Comparison marks comparison samplers.
	Comparison bool
}

// BindGroupEntry describes a single binding in a bind group.
// Exactly one of Buffer, TextureView and Sampler is set.
type BindGroupEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Element is the array element for bindings declared with Count > 1.
	Element uint32

	// Buffer is the buffer to bind (for buffer bindings).
	Buffer BufferID

	// Offset is the offset into the buffer.
	Offset uint64

	// Size is the size of the buffer range to bind.
	// Use 0 to bind the entire buffer from offset.
	Size uint64

	// TextureView is the view to bind (for texture bindings).
	TextureView TextureViewID

	// Sampler is the sampler to bind (for sampler bindings).
	Sampler SamplerID
}
