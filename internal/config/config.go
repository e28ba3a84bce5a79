// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads ndimon settings from defaults, an optional
// ndimon.yaml and NDIMON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Keys.
const (
	KeyWidth          = "width"
	KeyHeight         = "height"
	KeySource         = "source"
	KeyLogLevel       = "log.level"
	KeyAssetsDir      = "assets.dir"
	KeyListen         = "http.listen"
	KeyWWWRoot        = "http.wwwroot"
	KeyCaptionEnabled = "caption.enabled"
	KeyCaptionSize    = "caption.size"
	KeyFPS            = "render.fps"
)

// Defaults.
const (
	DefaultWidth       = 1280
	DefaultHeight      = 720
	DefaultLogLevel    = "info"
	DefaultListen      = ":8903"
	DefaultWWWRoot     = "wwwroot"
	DefaultCaptionSize = 48
	DefaultFPS         = 60
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "NDIMON"

var searchPaths = []string{
	".",
	"$HOME/.config/ndimon",
	"/etc/ndimon",
}

// Config is the resolved configuration.
type Config struct {
	Width          int
	Height         int
	Source         string
	LogLevel       string
	AssetsDir      string
	Listen         string
	WWWRoot        string
	CaptionEnabled bool
	CaptionSize    float64
	FPS            int

	// File is the configuration file that was read, empty when none was.
	File string
}

// New returns a viper instance with defaults and environment bindings but
// no file read yet.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyWidth, DefaultWidth)
	v.SetDefault(KeyHeight, DefaultHeight)
	v.SetDefault(KeySource, "")
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyAssetsDir, "")
	v.SetDefault(KeyListen, DefaultListen)
	v.SetDefault(KeyWWWRoot, DefaultWWWRoot)
	v.SetDefault(KeyCaptionEnabled, false)
	v.SetDefault(KeyCaptionSize, DefaultCaptionSize)
	v.SetDefault(KeyFPS, DefaultFPS)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Short aliases for nested keys. assets.dir and caption.enabled have
	// none: NDIMON_ASSETS or NDIMON_CAPTION would shadow the whole section.
	_ = v.BindEnv(KeyListen, EnvPrefix+"_LISTEN")
	_ = v.BindEnv(KeyWWWRoot, EnvPrefix+"_WWWROOT")
	_ = v.BindEnv(KeyFPS, EnvPrefix+"_FPS")

	return v
}

// Load resolves the configuration. With an empty path, ndimon.yaml is
// searched in the working directory, $HOME/.config/ndimon and /etc/ndimon,
// and a missing file is not an error. An explicit path must exist.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ndimon")
		v.SetConfigType("yaml")
		for _, p := range searchPaths {
			v.AddConfigPath(os.ExpandEnv(p))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read %s: %w", describe(path), err)
		}
	}
	return fromViper(v)
}

func describe(path string) string {
	if path == "" {
		return "ndimon.yaml"
	}
	return path
}

func fromViper(v *viper.Viper) (Config, error) {
	c := Config{
		Width:          v.GetInt(KeyWidth),
		Height:         v.GetInt(KeyHeight),
		Source:         v.GetString(KeySource),
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		AssetsDir:      v.GetString(KeyAssetsDir),
		Listen:         v.GetString(KeyListen),
		WWWRoot:        v.GetString(KeyWWWRoot),
		CaptionEnabled: v.GetBool(KeyCaptionEnabled),
		CaptionSize:    v.GetFloat64(KeyCaptionSize),
		FPS:            v.GetInt(KeyFPS),
		File:           v.ConfigFileUsed(),
	}
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = DefaultWidth, DefaultHeight
	}
	if c.CaptionSize <= 0 {
		c.CaptionSize = DefaultCaptionSize
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
	}
}
