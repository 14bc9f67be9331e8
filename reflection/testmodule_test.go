package reflection

import (
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderbind/internal/irtest"
)

// frameModule builds:
//
//	struct Light { pos: vec4<f32>, intensity: f32 }
//	struct Frame {
//	    color: vec4<f32>,          // 0
//	    world: mat4x4<f32>,        // 16
//	    weights: array<f32, 5>,    // 80, stride 16
//	    lights: array<Light, 2>,   // 160, stride 32
//	}
//	@group(0) @binding(0) var<uniform> frame: Frame;
//	@group(0) @binding(1) var tex: texture_2d<f32>;
//	@group(0) @binding(2) var samp: sampler;
func frameModule(stage ir.ShaderStage) *ir.Module {
	b := irtest.New()
	f32 := b.F32()
	vec4 := b.Vec(ir.Vec4)
	mat4 := b.Mat(ir.Vec4, ir.Vec4)
	weights := b.Array(f32, 5, 16)
	light := b.Struct("Light", 32, irtest.M("pos", vec4, 0), irtest.M("intensity", f32, 16))
	lights := b.Array(light, 2, 32)
	frame := b.Struct("Frame", 224,
		irtest.M("color", vec4, 0),
		irtest.M("world", mat4, 16),
		irtest.M("weights", weights, 80),
		irtest.M("lights", lights, 160),
	)
	b.Global("frame", ir.SpaceUniform, 0, frame)
	b.Global("tex", ir.SpaceHandle, 1, b.Texture2D())
	b.Global("samp", ir.SpaceHandle, 2, b.Sampler(false))
	b.Stage(stage)
	return b.Module()
}

// smallFrameModule declares the same "frame" buffer with fewer members.
func smallFrameModule(stage ir.ShaderStage) *ir.Module {
	b := irtest.New()
	f32 := b.F32()
	vec4 := b.Vec(ir.Vec4)
	frame := b.Struct("Frame", 32, irtest.M("color", vec4, 0), irtest.M("scale", f32, 16))
	b.Global("frame", ir.SpaceUniform, 0, frame)
	b.Stage(stage)
	return b.Module()
}
