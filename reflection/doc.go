// Package reflection extracts binding metadata from compiled WGSL modules.
//
// A module is lowered to naga IR and walked once. Uniform globals become
// constant buffers, storage globals become structured buffers (or raw and
// typed buffer resources for arrays of scalars and vectors), and handle
// globals become texture and sampler resources. Every buffer is flattened
// into named Variables carrying byte offsets:
//
//	struct Light { pos: vec4<f32>, intensity: f32 }
//	struct Frame { color: vec4<f32>, lights: array<Light, 2> }
//	@group(0) @binding(0) var<uniform> frame: Frame;
//
// reflects to the variables "color", "lights[0].pos", "lights[0].intensity",
// "lights[1].pos" and "lights[1].intensity". Arrays of basic types stay a
// single Variable with ArraySize and ArrayStride set, and are addressed as
// "name[i]".
//
// Per-stage reflections are combined with Merge, which validates that
// every stage declares shared buffers and resources identically.
//
// Binding slots map to the register model used throughout the module:
// @binding(n) is the register index and @group(g) the register space.
// Only space 0 is supported.
package reflection
