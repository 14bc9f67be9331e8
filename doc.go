// Package shaderbind binds application data to WGSL shader programs.
//
// # Overview
//
// shaderbind reflects the resources a set of shader stages declares,
// merges the per-stage reflections into one program, derives a binding
// layout from it and keeps CPU-side mirrors of the program's uniform and
// storage buffers in sync with the GPU. It sits between a shader compiler
// (gogpu/naga) and a WebGPU-style device (gogpu/wgpu).
//
// # Quick Start
//
//	ctx := shaderbind.NewContext(dev)
//	defer ctx.Close()
//
//	prog, err := shaderbind.NewProgram(ctx, vertexWGSL, fragmentWGSL)
//	if err != nil {
//	    return err
//	}
//	vars, err := shaderbind.NewProgramVars(prog)
//	if err != nil {
//	    return err
//	}
//
//	vars.ConstantBuffer("camera").SetVariable("viewProj", viewProj)
//	vars.SetTexture("albedo", view)
//	vars.SetSampler("samp", sampler)
//
//	group, err := vars.BindGroup() // uploads dirty buffers first
//
// # Architecture
//
// The library is organized into:
//   - reflection: buffer, variable and resource reflection built from naga IR
//   - layout: descriptor ranges, root cost accounting, shared native layouts
//   - varbuf: byte-exact CPU mirrors of reflected buffers
//   - bindtable: per-space bindings and bind group regeneration
//   - backend/native: gpucore.Device on top of gogpu/wgpu/hal
//
// # Register Spaces
//
// Only register space 0 (WGSL @group(0)) is supported. Programs that
// declare resources in other groups fail with ErrUnsupportedSpace.
//
// # Object Lifetime
//
// Device objects that are replaced or destroyed while the GPU may still
// use them are queued on the Context and destroyed by BeginFrame once the
// configured frame latency has passed.
package shaderbind

// Version is the current version of the library.
const Version = "0.1.0"
