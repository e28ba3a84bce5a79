// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no ndimon.yaml is found.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Config{
		Width:       1280,
		Height:      720,
		LogLevel:    "info",
		Listen:      ":8903",
		WWWRoot:     "wwwroot",
		CaptionSize: 48,
		FPS:         60,
	}, c)
}

func TestLoadFileInWorkingDir(t *testing.T) {
	dir := isolate(t)
	yaml := `
width: 1920
height: 1080
source: "STUDIO (Cam 1)"
log:
  level: debug
caption:
  enabled: true
  size: 32
http:
  listen: "127.0.0.1:9000"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ndimon.yaml"), []byte(yaml), 0o644))

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1920, c.Width)
	assert.Equal(t, 1080, c.Height)
	assert.Equal(t, "STUDIO (Cam 1)", c.Source)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.CaptionEnabled)
	assert.Equal(t, 32.0, c.CaptionSize)
	assert.Equal(t, "127.0.0.1:9000", c.Listen)
	assert.NotEmpty(t, c.File)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  fps: 30\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, c.FPS)
	assert.Equal(t, path, c.File)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ndimon.yaml"), []byte("width: [1,\n"), 0o644))
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("NDIMON_LOG_LEVEL", "warn")
	t.Setenv("NDIMON_ASSETS_DIR", "/srv/placeholders")
	t.Setenv("NDIMON_WWWROOT", "/srv/www")
	t.Setenv("NDIMON_CAPTION_ENABLED", "true")
	t.Setenv("NDIMON_LISTEN", ":9999")
	t.Setenv("NDIMON_FPS", "25")
	t.Setenv("NDIMON_SOURCE", "CAM7")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "/srv/placeholders", c.AssetsDir)
	assert.Equal(t, "/srv/www", c.WWWRoot)
	assert.True(t, c.CaptionEnabled)
	assert.Equal(t, ":9999", c.Listen)
	assert.Equal(t, 25, c.FPS)
	assert.Equal(t, "CAM7", c.Source)
}

func TestLoadEnvironmentMergesWithFileSection(t *testing.T) {
	dir := isolate(t)
	yaml := "assets:\n  dir: /opt/placeholders\ncaption:\n  size: 24\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ndimon.yaml"), []byte(yaml), 0o644))
	t.Setenv("NDIMON_CAPTION_ENABLED", "true")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/placeholders", c.AssetsDir)
	assert.True(t, c.CaptionEnabled)
	assert.Equal(t, 24.0, c.CaptionSize)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	isolate(t)
	t.Setenv("NDIMON_WIDTH", "-5")
	t.Setenv("NDIMON_FPS", "0")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, c.Width)
	assert.Equal(t, DefaultHeight, c.Height)
	assert.Equal(t, DefaultFPS, c.FPS)
}

func TestLoadBadLogLevel(t *testing.T) {
	isolate(t)
	t.Setenv("NDIMON_LOG_LEVEL", "loud")
	_, err := Load("")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{" error ", slog.LevelError, true},
		{"trace", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.ok {
			assert.NoError(t, err, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}
