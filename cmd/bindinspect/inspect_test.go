package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli"
)

const fragmentWGSL = `
struct Material {
    tint: vec4<f32>,
    scale: f32,
}

@group(0) @binding(0) var<uniform> material: Material;
@group(0) @binding(1) var albedo: texture_2d<f32>;
@group(0) @binding(2) var samp: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(albedo, samp, uv) * material.tint * material.scale;
}
`

const conflictWGSL = `
@group(0) @binding(1) var albedo: texture_2d<u32>;

@vertex
fn vs_main(@location(0) pos: vec4<f32>) -> @builtin(position) vec4<f32> {
    return pos;
}
`

func writeShader(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the app and returns its output and exit code.
func run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var buf bytes.Buffer
	origOut, origExiter, origErr := out, cli.OsExiter, cli.ErrWriter
	t.Cleanup(func() { out, cli.OsExiter, cli.ErrWriter = origOut, origExiter, origErr })

	code := 0
	out = &buf
	cli.OsExiter = func(c int) { code = c }
	cli.ErrWriter = io.Discard

	app := newApp()
	app.Writer = &buf
	if err := app.Run(append([]string{"bindinspect"}, args...)); err != nil && code == 0 {
		code = 1
	}
	return buf.String(), code
}

func TestReflectCommand(t *testing.T) {
	frag := writeShader(t, "frag.wgsl", fragmentWGSL)
	got, code := run(t, "reflect", frag)
	if code != 0 {
		t.Fatalf("reflect exit code = %d, output:\n%s", code, got)
	}
	for _, want := range []string{"material", "tint", "scale", "albedo", "samp", "Fragment outputs"} {
		if !strings.Contains(got, want) {
			t.Errorf("reflect output misses %q:\n%s", want, got)
		}
	}
}

func TestLayoutCommand(t *testing.T) {
	frag := writeShader(t, "frag.wgsl", fragmentWGSL)
	tests := []struct {
		budget   string
		wantCode int
		want     string
	}{
		{"64", 0, "4 / 64"},
		{"3", exitOverBudget, ""},
	}
	for _, tt := range tests {
		got, code := run(t, "layout", "--budget", tt.budget, frag)
		if code != tt.wantCode {
			t.Errorf("layout --budget %s exit code = %d, want %d", tt.budget, code, tt.wantCode)
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("layout --budget %s output misses %q:\n%s", tt.budget, tt.want, got)
		}
	}
}

func TestCheckCommand(t *testing.T) {
	frag := writeShader(t, "frag.wgsl", fragmentWGSL)
	conflict := writeShader(t, "conflict.wgsl", conflictWGSL)

	if got, code := run(t, "check", frag); code != 0 || !strings.HasPrefix(got, "OK") {
		t.Errorf("check = %q, exit %d, want OK", got, code)
	}
	if _, code := run(t, "check", frag, conflict); code != exitInvalid {
		t.Errorf("check with conflicting stages exit code = %d, want %d", code, exitInvalid)
	}
	if _, code := run(t, "check"); code != exitUsage {
		t.Errorf("check without files exit code = %d, want %d", code, exitUsage)
	}
}
