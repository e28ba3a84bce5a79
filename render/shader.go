// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga"
)

// uniformSize is the byte size of the Uniforms block shared by both stages:
// mat4x4 transform (64), vec2 texture_size (8), flip_y (4), opaque (4),
// target_y (4), padded to a 16-byte multiple.
const uniformSize = 96

// QuadVertexShader places the unit quad with the transform uniform and
// optionally mirrors the texture coordinate vertically.
//
// target_y is -1 when drawing into an offscreen target so its rows are
// stored bottom-origin, and +1 for the window surface.
const QuadVertexShader = `
struct Uniforms {
    transform: mat4x4<f32>,
    texture_size: vec2<f32>,
    flip_y: u32,
    opaque: u32,
    target_y: f32,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    let p = u.transform * vec4<f32>(position, 1.0);
    out.position = vec4<f32>(p.x, p.y * u.target_y, p.z, p.w);
    var coord = uv;
    if (u.flip_y != 0u) {
        coord = vec2<f32>(uv.x, 1.0 - uv.y);
    }
    out.uv = coord;
    return out;
}
`

// QuadFragmentShader samples the bound texture. RGBX textures are forced
// opaque.
const QuadFragmentShader = `
struct Uniforms {
    transform: mat4x4<f32>,
    texture_size: vec2<f32>,
    flip_y: u32,
    opaque: u32,
    target_y: f32,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var quad_texture: texture_2d<f32>;
@group(0) @binding(2) var quad_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let color = textureSample(quad_texture, quad_sampler, uv);
    let alpha = select(color.a, 1.0, u.opaque != 0u);
    return vec4<f32>(color.rgb, alpha);
}
`

// CheckWGSL parses, lowers and validates a WGSL module. Every failure is
// reported as ErrShaderCompile with the stage that rejected the source.
func CheckWGSL(source string) error {
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("%w: empty source", ErrShaderCompile)
	}
	ast, err := naga.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShaderCompile, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShaderCompile, err)
	}
	problems, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShaderCompile, err)
	}
	if len(problems) > 0 {
		msgs := make([]string, 0, len(problems))
		for _, p := range problems {
			msgs = append(msgs, p.Error())
		}
		return fmt.Errorf("%w: %s", ErrShaderCompile, strings.Join(msgs, "; "))
	}
	return nil
}

// checkProgram validates both stages of a program.
func checkProgram(vertexSource, fragmentSource string) error {
	if err := CheckWGSL(vertexSource); err != nil {
		return fmt.Errorf("vertex stage: %w", err)
	}
	if err := CheckWGSL(fragmentSource); err != nil {
		return fmt.Errorf("fragment stage: %w", err)
	}
	return nil
}
