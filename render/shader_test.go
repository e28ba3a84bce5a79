// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"strings"
	"testing"
)

func TestQuadShadersValidate(t *testing.T) {
	if err := CheckWGSL(QuadVertexShader); err != nil {
		t.Errorf("vertex shader: %v", err)
	}
	if err := CheckWGSL(QuadFragmentShader); err != nil {
		t.Errorf("fragment shader: %v", err)
	}
}

func TestCheckWGSLRejects(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"blank", "  \n\t"},
		{"syntax", "fn main( {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckWGSL(tt.source); !errors.Is(err, ErrShaderCompile) {
				t.Errorf("err = %v, want ErrShaderCompile", err)
			}
		})
	}
}

func TestCheckProgramNamesStage(t *testing.T) {
	err := checkProgram(QuadVertexShader, "not wgsl at all {")
	if !errors.Is(err, ErrShaderCompile) {
		t.Fatalf("err = %v, want ErrShaderCompile", err)
	}
	if !strings.Contains(err.Error(), "fragment stage") {
		t.Errorf("err = %q, want fragment stage named", err)
	}
}
