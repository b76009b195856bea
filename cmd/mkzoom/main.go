// Command mkzoom renders a zoom into a fixed point as numbered PNG frames and
// prints the ffmpeg command that assembles them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"deepzoom/fractal/config"
	"deepzoom/fractal/export"
	"deepzoom/fractal/render"
	"deepzoom/hal"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "YAML config file (defaults when empty).")
		out     = flag.String("out", "", "Output directory (empty = config export.dir).")
		frames  = flag.Int("frames", 0, "Frame count.")
		width   = flag.Int("w", 0, "Frame width.")
		height  = flag.Int("h", 0, "Frame height.")
		iter    = flag.Int("iter", 0, "Iteration limit.")
		factor  = flag.Float64("factor", 0, "Per-frame zoom factor (> 1).")
		span    = flag.Float64("range", 0, "Half-width of the first frame.")
		re      = flag.String("re", "", "Real part of the zoom point, decimal.")
		im      = flag.String("im", "", "Imaginary part of the zoom point, decimal.")
		palette = flag.String("palette", "", "gray|hot|hsv.")
		video   = flag.String("video", "mandelbrot_zoom.mp4", "Video name used in the printed ffmpeg command.")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	ex := &cfg.Export
	setString(&ex.Dir, *out)
	setString(&ex.Re, *re)
	setString(&ex.Im, *im)
	setString(&ex.Palette, *palette)
	setInt(&ex.FrameCount, *frames)
	setInt(&ex.Width, *width)
	setInt(&ex.Height, *height)
	setInt(&ex.MaxIterations, *iter)
	if *factor != 0 {
		ex.ZoomFactor = *factor
	}
	if *span != 0 {
		ex.StartRange = *span
	}
	if err := cfg.Validate(); err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sink, err := exportZoom(ctx, cfg, hal.NewLogger(os.Stderr))
	if err != nil {
		fatalf("mkzoom: %v", err)
	}
	fmt.Printf("wrote %d frames to %s\n", len(sink.Written()), ex.Dir)
	fmt.Println(sink.MuxCommand(*video))
	fmt.Println("or: ffmpeg -f concat -i " + filepath.Join(ex.Dir, "frames.txt") + " -c:v libx264 -pix_fmt yuv420p " + *video)
}

// exportZoom renders the export section of cfg and closes the sink, even
// after an interrupted run, so frames.txt always lists what was written.
func exportZoom(ctx context.Context, cfg *config.Config, log hal.Logger) (*export.PNGSink, error) {
	p, err := cfg.ExportParams()
	if err != nil {
		return nil, err
	}
	r, err := cfg.Renderer()
	if err != nil {
		return nil, err
	}
	if r.Palette, err = render.ParsePalette(cfg.Export.Palette); err != nil {
		return nil, err
	}

	sink, err := export.NewPNGSink(cfg.Export.Dir, cfg.Export.Prefix, p.FrameCount, cfg.Export.Framerate)
	if err != nil {
		return nil, err
	}
	runErr := export.Run(ctx, p, r, sink, log)
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return sink, runErr
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
