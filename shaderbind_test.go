package shaderbind

import (
	"testing"

	"github.com/gogpu/shaderbind/internal/gputest"
)

const vertexSource = `
struct Camera {
    viewProj: mat4x4<f32>,
}

struct VsOut {
    @builtin(position) pos: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@group(0) @binding(0) var<uniform> camera: Camera;

@vertex
fn vs_main(@location(0) pos: vec3<f32>, @location(1) uv: vec2<f32>) -> VsOut {
    return VsOut(camera.viewProj * vec4<f32>(pos, 1.0), uv);
}
`

const fragmentSource = `
struct Material {
    tint: vec4<f32>,
    scale: f32,
}

@group(0) @binding(1) var<uniform> material: Material;
@group(0) @binding(2) var albedo: texture_2d<f32>;
@group(0) @binding(3) var samp: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(albedo, samp, uv) * material.tint * material.scale;
}
`

// conflictSource declares material with a different layout than
// fragmentSource.
const conflictSource = `
@group(0) @binding(1) var<uniform> material: vec4<f32>;

@vertex
fn vs_main(@location(0) pos: vec4<f32>) -> @builtin(position) vec4<f32> {
    return pos * material;
}
`

const computeSource = `
struct Particle {
    pos: vec4<f32>,
    vel: vec4<f32>,
}

@group(0) @binding(0) var<storage, read_write> particles: array<Particle>;
@group(0) @binding(1) var<storage, read> weights: array<f32>;
@group(0) @binding(2) var<storage, read_write> counters: array<u32>;

@compute @workgroup_size(64)
fn cs_main(@builtin(global_invocation_id) id: vec3<u32>) {
    let i = id.x;
    particles[i].pos = particles[i].pos + particles[i].vel * weights[i];
    counters[i] = counters[i] + 1u;
}
`

func newTestContext(t *testing.T, opts ...Option) (*Context, *gputest.Device) {
	t.Helper()
	dev := gputest.NewDevice()
	ctx := NewContext(dev, opts...)
	t.Cleanup(ctx.Close)
	return ctx, dev
}

func newTestProgram(t *testing.T, ctx *Context, sources ...string) *Program {
	t.Helper()
	p, err := NewProgram(ctx, sources...)
	if err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}
	return p
}
