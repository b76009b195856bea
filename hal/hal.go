package hal

import (
	"errors"
	"image"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var (
	ErrNotImplemented = errors.New("not implemented")

	// ErrIncompleteFramebuffer reports that the host could not back a
	// framebuffer of the requested size. The previous buffer stays valid.
	ErrIncompleteFramebuffer = errors.New("framebuffer incomplete")

	// ErrQuit is returned by a step function to end the session cleanly.
	ErrQuit = errors.New("quit")
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGBA8888 is 32bpp, bytes in R, G, B, A order.
	PixelFormatRGBA8888 PixelFormat = iota + 1
)

// Framebuffer is a resizable back buffer plus a "present" hook.
//
// The back buffer belongs to whoever is drawing the current frame. Present
// publishes it to the display; the display never reads the back buffer.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	// Resize reallocates the back buffer. On failure the previous buffer is
	// kept and the error wraps ErrIncompleteFramebuffer.
	Resize(w, h int) error
	// MaxSize is the largest size Resize accepts.
	MaxSize() (w, h int)
	ClearRGB(r, g, b uint8)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyHome
	KeyF1
)

// KeyEvent is a keyboard event. Text input arrives with Code == KeyUnknown
// and a non-zero Rune.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
}

// PointerKind identifies a pointer event.
type PointerKind uint8

const (
	PointerMove PointerKind = iota
	PointerPress
	PointerRelease
	PointerScroll
)

func (k PointerKind) String() string {
	switch k {
	case PointerMove:
		return "move"
	case PointerPress:
		return "press"
	case PointerRelease:
		return "release"
	case PointerScroll:
		return "scroll"
	}
	return "unknown"
}

// PointerEvent carries screen-space coordinates with the origin at the top
// left of the display. DY is the wheel delta of a PointerScroll event.
type PointerEvent struct {
	Kind PointerKind
	X, Y float64
	DY   float64
	Time time.Time
}

// EventKind tells which field of an Event is set.
type EventKind uint8

const (
	EventKey EventKind = iota
	EventPointer
)

// Event is one input event from either device.
type Event struct {
	Kind    EventKind
	Key     KeyEvent
	Pointer PointerEvent
}

// Display provides access to the framebuffer and the physical surface.
type Display interface {
	Framebuffer() Framebuffer
	// Size is the physical surface size in pixels.
	Size() (w, h int)
	// Frame returns a copy of the last presented frame rescaled to Size, or
	// nil if nothing has been presented yet.
	Frame() *image.RGBA
}

// Input delivers keyboard and pointer events on one channel, in the order
// they were polled or injected (best-effort on each platform).
type Input interface {
	Events() <-chan Event
}

// Injector is implemented by host HALs that accept synthetic input.
type Injector interface {
	InjectKey(ev KeyEvent)
	InjectPointer(ev PointerEvent)
}

// HAL provides the only contact point between the session and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	Input() Input
}

type discardLogger struct{}

func (discardLogger) WriteLineString(string) {}
func (discardLogger) WriteLineBytes([]byte)  {}

// Discard is a Logger that drops every line.
var Discard Logger = discardLogger{}

// OrDiscard returns l, or Discard when l is nil.
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard
	}
	return l
}
