package gpucore

// Device abstracts the GPU calls the binding layer issues.
//
// This interface is the seam between the binding layer and a concrete
// backend (gogpu/wgpu HAL in backend/native, a recording fake in tests).
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource while in use is undefined behavior
//   - IDs become invalid after destruction and must not be reused
type Device interface {
	// === Shader Compilation ===

	// CreateShaderModule creates a shader module from SPIR-V bytecode.
	// The SPIR-V is compiled by naga before being passed here.
	CreateShaderModule(spirv []uint32, label string) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// === Buffer Management ===

	// CreateBuffer creates a GPU buffer of size bytes.
	CreateBuffer(size int, usage BufferUsage, label string) (BufferID, error)

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer copies data into the buffer at offset.
	WriteBuffer(id BufferID, offset uint64, data []byte)

	// === Binding Layouts ===

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout creates a pipeline layout from bind group layouts,
	// indexed by group number.
	CreatePipelineLayout(layouts []BindGroupLayoutID, label string) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateBindGroup creates a bind group.
	CreateBindGroup(layout BindGroupLayoutID, entries []BindGroupEntry, label string) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)
}
