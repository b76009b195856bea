package export

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
)

// ErrOutOfOrder is returned when a frame index does not increase.
var ErrOutOfOrder = errors.New("export: frame index out of order")

// Sink accepts completed frames in strictly increasing index order.
type Sink interface {
	WriteFrame(index int, img image.Image) error
	Close() error
}

// PNGSink writes <dir>/<prefix><index>.png files and, on Close, a
// frames.txt list for the ffmpeg concat demuxer.
type PNGSink struct {
	dir     string
	prefix  string
	width   int
	fps     int
	last    int
	names   []string
	encoder png.Encoder
}

// NewPNGSink creates dir if needed. frameCount sizes the index padding.
func NewPNGSink(dir, prefix string, frameCount, fps int) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if fps <= 0 {
		fps = 24
	}
	return &PNGSink{
		dir:     dir,
		prefix:  prefix,
		width:   IndexWidth(frameCount),
		fps:     fps,
		last:    -1,
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}, nil
}

func (s *PNGSink) WriteFrame(index int, img image.Image) error {
	if index <= s.last {
		return fmt.Errorf("%w: %d after %d", ErrOutOfOrder, index, s.last)
	}
	name := FrameName(s.prefix, index, s.width)
	path := filepath.Join(s.dir, name)

	// Write next to the target and rename so the muxer never sees a partial file.
	tmp, err := os.CreateTemp(s.dir, ".frame-*")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := s.encoder.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("export: encode %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	s.last = index
	s.names = append(s.names, name)
	return nil
}

// Pattern is the printf-style input pattern for the muxer.
func (s *PNGSink) Pattern() string {
	return filepath.Join(s.dir, s.prefix+"%0"+strconv.Itoa(s.width)+"d.png")
}

// MuxCommand returns the ffmpeg invocation that assembles the frames.
func (s *PNGSink) MuxCommand(out string) string {
	return fmt.Sprintf("ffmpeg -framerate %d -i %s -c:v libx264 -pix_fmt yuv420p %s", s.fps, s.Pattern(), out)
}

// Written returns the file names written so far, in order.
func (s *PNGSink) Written() []string { return append([]string(nil), s.names...) }

// Close writes frames.txt listing every frame with its duration.
func (s *PNGSink) Close() error {
	f, err := os.Create(filepath.Join(s.dir, "frames.txt"))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "ffconcat version 1.0")
	dur := strconv.FormatFloat(1/float64(s.fps), 'f', 6, 64)
	for _, name := range s.names {
		fmt.Fprintf(w, "file '%s'\nduration %s\n", name, dur)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("export: %w", err)
	}
	return f.Close()
}
