//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Config
	Enabled bool
	Ticks   uint64 // stop after this many steps; 0 runs until ctx ends
}

// RunHeadless runs the session without opening a window, one step per tick.
func RunHeadless(ctx context.Context, cfg HeadlessConfig, newApp func(HAL) (func() error, error)) error {
	h := newHost(cfg.Config)
	step, err := newApp(h)
	if err != nil {
		return err
	}
	return runTicks(ctx, h.cfg.Hz, cfg.Ticks, step)
}

func runTicks(ctx context.Context, hz int, ticks uint64, step func() error) error {
	d := time.Second / time.Duration(hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if step != nil {
				if err := step(); err != nil {
					if errors.Is(err, ErrQuit) {
						return nil
					}
					return err
				}
			}
			tick++
			if ticks > 0 && tick >= ticks {
				return nil
			}
		}
	}
}
