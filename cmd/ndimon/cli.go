package main

import (
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gogpu/ndimon/internal/config"
)

// settings is the configuration after CLI overrides.
type settings struct {
	Width       int
	Height      int
	Source      string
	AssetsDir   string
	WWWRoot     string
	Listen      string
	Caption     bool
	CaptionSize float64
	LogLevel    string
	FPS         int
	ConfigFile  string
}

// valueFlags are the flags accepted as bare key=value arguments.
var valueFlags = map[string]bool{
	"w": true, "h": true, "src": true, "assets": true, "wwwroot": true,
	"listen": true, "log-level": true, "config": true, "caption": true,
}

func newApp(action func(settings) error) *cli.App {
	// -h is the height flag.
	cli.HelpFlag = &cli.BoolFlag{Name: "help", Usage: "show help"}

	return &cli.App{
		Name:  "ndimon",
		Usage: "display one NDI source and switch sources over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "w", Usage: "working width in pixels", Value: strconv.Itoa(config.DefaultWidth)},
			&cli.StringFlag{Name: "h", Usage: "working height in pixels", Value: strconv.Itoa(config.DefaultHeight)},
			&cli.StringFlag{Name: "src", Usage: "source to connect to at startup"},
			&cli.StringFlag{Name: "assets", Usage: "placeholder image directory"},
			&cli.StringFlag{Name: "wwwroot", Usage: "static file directory"},
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address"},
			&cli.BoolFlag{Name: "caption", Usage: "draw the source name over the video"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "config", Usage: "configuration file"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			return action(resolve(cfg, c))
		},
	}
}

// resolve applies set CLI flags over the loaded configuration.
func resolve(cfg config.Config, c *cli.Context) settings {
	s := settings{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Source:      cfg.Source,
		AssetsDir:   cfg.AssetsDir,
		WWWRoot:     cfg.WWWRoot,
		Listen:      cfg.Listen,
		Caption:     cfg.CaptionEnabled,
		CaptionSize: cfg.CaptionSize,
		LogLevel:    cfg.LogLevel,
		FPS:         cfg.FPS,
		ConfigFile:  cfg.File,
	}
	if c.IsSet("w") {
		s.Width = parseDimension(c.String("w"), config.DefaultWidth)
	}
	if c.IsSet("h") {
		s.Height = parseDimension(c.String("h"), config.DefaultHeight)
	}
	if c.IsSet("src") {
		s.Source = c.String("src")
	}
	if c.IsSet("assets") {
		s.AssetsDir = c.String("assets")
	}
	if c.IsSet("wwwroot") {
		s.WWWRoot = c.String("wwwroot")
	}
	if c.IsSet("listen") {
		s.Listen = c.String("listen")
	}
	if c.IsSet("caption") {
		s.Caption = c.Bool("caption")
	}
	if c.IsSet("log-level") {
		s.LogLevel = c.String("log-level")
	}
	return s
}

// parseDimension returns def for anything but a positive integer.
func parseDimension(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// normalizeArgs strips surrounding double quotes from key=value arguments
// and turns bare key=value pairs for known flags into flags. args[0] is kept.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if i == 0 || !ok {
			out = append(out, arg)
			continue
		}
		value = strings.TrimSuffix(strings.TrimPrefix(value, `"`), `"`)
		if !strings.HasPrefix(key, "-") && valueFlags[key] {
			key = "-" + key
		}
		out = append(out, key+"="+value)
	}
	return out
}
