//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"deepzoom/app"
	"deepzoom/fractal/bookmark"
	"deepzoom/fractal/config"
	"deepzoom/fractal/present"
	"deepzoom/fractal/server"
	"deepzoom/hal"
	"deepzoom/internal/buildinfo"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "YAML config file (defaults when empty).")
		headless = flag.Bool("headless", false, "Run without a window.")
		hz       = flag.Int("hz", 0, "Step rate (0 = config value).")
		ticks    = flag.Uint64("ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
		serve    = flag.Bool("serve", false, "Serve renders and live sessions over HTTP.")
		addr     = flag.String("addr", "", "Listen address for -serve (empty = config value).")
		gpu      = flag.Bool("gpu", false, "Render with the shader instead of the CPU.")
		palette  = flag.String("palette", "", "gray|hot|hsv (empty = config value).")
		iter     = flag.Int("iter", 0, "Iteration limit (0 = config value).")
		version  = flag.Bool("version", false, "Print the build and exit.")
	)
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.String())
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail(err)
	}
	if *hz > 0 {
		cfg.Window.Hz = *hz
	}
	if *gpu {
		cfg.Window.GPU = true
	}
	if *palette != "" {
		cfg.Render.Palette = *palette
	}
	if *iter > 0 {
		cfg.Render.MaxIterations = *iter
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	var marks *bookmark.Store
	if cfg.Bookmarks.DBPath != "" {
		if marks, err = bookmark.Open(cfg.Bookmarks.DBPath); err != nil {
			fail(err)
		}
		defer marks.Close()
	}

	sess, err := sessionConfig(cfg, marks)
	if err != nil {
		fail(err)
	}
	hcfg := hal.Config{
		Title:     cfg.Window.Title,
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		MaxWidth:  cfg.Render.MaxWidth,
		MaxHeight: cfg.Render.MaxHeight,
		Hz:        cfg.Window.Hz,
	}
	newApp := func(h hal.HAL) (func() error, error) { return app.New(h, sess) }

	switch {
	case *serve:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		srv := server.New(server.Config{
			Session:   sess,
			Width:     cfg.Window.Width,
			Height:    cfg.Window.Height,
			MaxWidth:  cfg.Render.MaxWidth,
			MaxHeight: cfg.Render.MaxHeight,
		}, marks, hal.NewLogger(os.Stdout))
		err = srv.ListenAndServe(ctx, cfg.Server.Addr)
	case *headless:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = hal.RunHeadless(ctx, hal.HeadlessConfig{Config: hcfg, Enabled: true, Ticks: *ticks}, newApp)
		if err == context.Canceled {
			err = nil
		}
	default:
		err = hal.RunWindow(hcfg, newApp)
	}
	if err != nil {
		if marks != nil {
			marks.Close()
		}
		fail(err)
	}
}

func sessionConfig(cfg *config.Config, marks *bookmark.Store) (app.Config, error) {
	cam, err := cfg.CameraConfig()
	if err != nil {
		return app.Config{}, err
	}
	r, err := cfg.Renderer()
	if err != nil {
		return app.Config{}, err
	}
	return app.Config{
		Camera:      cam,
		MaxIter:     cfg.Render.MaxIterations,
		Policy:      present.Policy{MaxWidth: cfg.Render.MaxWidth, MaxHeight: cfg.Render.MaxHeight},
		Renderer:    r,
		GPU:         cfg.Window.GPU,
		HUD:         true,
		Bookmarks:   marks,
		Screenshots: true,
	}, nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
