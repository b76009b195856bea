package export

import (
	"context"
	"fmt"
	"time"

	"deepzoom/fractal/present"
	"deepzoom/fractal/render"
	"deepzoom/hal"
)

// Run renders every frame of p in index order and hands it to sink. The
// context is checked between frames; a frame in progress always completes.
// Run does not close sink.
func Run(ctx context.Context, p Params, r present.Renderer, sink Sink, log hal.Logger) error {
	log = hal.OrDiscard(log)
	frames, err := Schedule(p)
	if err != nil {
		return err
	}

	t := render.NewTarget(p.Width, p.Height)
	start := time.Now()
	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Render(t, f.Rect().Viewport(p.Width, p.Height), p.MaxIter); err != nil {
			return fmt.Errorf("export: frame %d: %w", f.Index, err)
		}
		if err := sink.WriteFrame(f.Index, t.Image()); err != nil {
			return err
		}
		if f.Index%100 == 0 || f.Index == len(frames)-1 {
			log.WriteLineString(fmt.Sprintf("export: frame %d/%d half=%.3e elapsed=%s",
				f.Index+1, len(frames), f.HalfWidth, time.Since(start).Round(time.Millisecond)))
		}
	}
	return nil
}
