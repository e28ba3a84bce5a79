// Command ndimon shows one NDI video source in a window and switches sources
// on HTTP request.
//
// Usage:
//
//	ndimon -w=1920 -h=1080 -src="STUDIO (Cam 1)"
//	curl http://localhost:8903/source/STUDIO%20%28Cam%202%29
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/ndimon"
	"github.com/gogpu/ndimon/assets"
	"github.com/gogpu/ndimon/caption"
	"github.com/gogpu/ndimon/display"
	"github.com/gogpu/ndimon/integration/gogpuhost"
	"github.com/gogpu/ndimon/internal/config"
	"github.com/gogpu/ndimon/render"
	"github.com/gogpu/ndimon/server"
	"github.com/gogpu/ndimon/source"
	"github.com/gogpu/ndimon/source/ndi"
)

const shutdownTimeout = 2 * time.Second

func main() {
	app := newApp(run)
	if err := app.Run(normalizeArgs(os.Args)); err != nil {
		ndimon.Logger().Error("ndimon: fatal", "err", err)
		fmt.Fprintln(os.Stderr, "ndimon:", err)
		os.Exit(1)
	}
}

func run(s settings) error {
	level, err := config.ParseLevel(s.LogLevel)
	if err != nil {
		return err
	}
	ndimon.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	log := ndimon.Logger()
	log.Info("ndimon: starting", "width", s.Width, "height", s.Height, "source", s.Source,
		"listen", s.Listen, "config", s.ConfigFile)

	conn := source.NewMux(ndi.NewConnector(ndi.Options{}))
	conn.Handle(source.PatternPrefix, source.NewPatternConnector())

	var overlay *caption.Renderer
	if s.Caption {
		if overlay, err = caption.New(caption.Options{Size: s.CaptionSize}); err != nil {
			return err
		}
		defer overlay.Close()
	}

	engineOpts := display.Options{
		Width:         s.Width,
		Height:        s.Height,
		Assets:        assets.Dir(s.AssetsDir),
		InitialSource: s.Source,
		Caption:       overlay,
	}
	hostOpts := gogpuhost.Options{
		Width:  s.Width,
		Height: s.Height,
		FPS:    s.FPS,
		Title:  display.TitleFor(s.Source),
	}
	host := gogpuhost.New(hostOpts, func(m *render.Manager) *display.Engine {
		return display.New(m, conn, engineOpts)
	})

	srv := server.New(host, host, server.Options{Listen: s.Listen, WWWRoot: s.WWWRoot})
	go func() {
		if err := srv.Start(); err != nil {
			log.Warn("ndimon: command server stopped", "err", err)
		}
	}()

	runErr := host.Run()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("ndimon: server shutdown", "err", err)
	}
	if runErr != nil {
		return runErr
	}
	log.Info("ndimon: exited")
	return nil
}
