// Package gpucore defines the backend-neutral device surface used by the
// shader binding layer.
//
// The binding layer never talks to a graphics API directly. It creates
// bind group layouts, pipeline layouts, bind groups and buffers through the
// [Device] interface, addressing everything with opaque IDs ([BufferID],
// [BindGroupLayoutID], etc.). Texture views and samplers are owned by the
// caller and enter the binding layer as [TextureViewID] and [SamplerID].
//
// # Architecture
//
//	+----------------------+
//	|  shaderbind facade   |
//	|  layout / bindtable  |
//	+----------+-----------+
//	           |
//	     gpucore.Device
//	           |
//	+----------v-----------+      +------------------+
//	|   backend/native     |      | internal/gputest |
//	|   (wgpu hal.Device)  |      | (recording fake) |
//	+----------------------+      +------------------+
//
// # Resource Management
//
// Implementations are responsible for tracking the mapping between IDs and
// actual GPU resources. [InvalidID] (zero) is never returned for a
// successfully created resource.
package gpucore
