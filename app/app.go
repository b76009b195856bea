// Package app is the interactive session: each step drains input into the
// camera, then renders and presents one frame.
package app

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"deepzoom/fractal/bookmark"
	"deepzoom/fractal/camera"
	"deepzoom/fractal/hud"
	"deepzoom/fractal/present"
	"deepzoom/fractal/render"
	"deepzoom/fractal/shader"
	"deepzoom/hal"
)

const (
	minIterations = 16
	maxIterations = 1 << 20
)

type Config struct {
	Camera  camera.Config
	MaxIter int
	Policy  present.Policy
	// Renderer is the CPU renderer. GPU replaces it with the shader.
	Renderer *render.Renderer
	GPU      bool
	HUD      bool
	// Bookmarks, when set, receives a bookmark on the "b" key.
	Bookmarks *bookmark.Store
	// Screenshots enables the "s" key. ScreenshotDir receives the PNGs;
	// empty means the working directory.
	Screenshots   bool
	ScreenshotDir string
}

// Session owns the camera and the presentation manager. It is driven from a
// single goroutine.
type Session struct {
	h       hal.HAL
	log     hal.Logger
	cam     *camera.Camera
	mgr     *present.Manager
	hud     *hud.Overlay
	maxIter int
	marks   *bookmark.Store
	shotDir string

	dirty bool
	quit  bool
	lastW int
	lastH int
	shots int

	screenshots bool
}

// New initializes a session and returns its step function.
func New(h hal.HAL, cfg Config) (func() error, error) {
	s, err := NewSession(h, cfg)
	if err != nil {
		return nil, err
	}
	return s.Step, nil
}

func NewSession(h hal.HAL, cfg Config) (*Session, error) {
	var r present.Renderer = cfg.Renderer
	if cfg.Renderer == nil {
		r = &render.Renderer{}
	}
	if cfg.GPU {
		var pal render.Palette
		if cfg.Renderer != nil {
			pal = cfg.Renderer.Palette
		}
		gpu, err := shader.New(pal)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		r = gpu
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 512
	}

	log := hal.OrDiscard(h.Logger())
	disp := h.Display()
	s := &Session{
		h:       h,
		log:     log,
		cam:     camera.New(cfg.Camera),
		mgr:     present.NewManager(disp, r, cfg.Policy, log),
		hud:     hud.New(),
		maxIter: min(cfg.MaxIter, maxIterations),
		marks:   cfg.Bookmarks,
		shotDir: cfg.ScreenshotDir,
		dirty:   true,

		screenshots: cfg.Screenshots,
	}
	s.hud.Enabled = cfg.HUD
	s.hud.DisplayHeight = func() int {
		_, h := disp.Size()
		return h
	}
	s.mgr.AddOverlay(s.hud)
	log.WriteLineString(fmt.Sprintf("session: start center=%s zoom=%g iter=%d gpu=%t",
		s.cam.Center(), s.cam.Zoom(), s.maxIter, cfg.GPU))
	return s, nil
}

func (s *Session) Camera() *camera.Camera    { return s.cam }
func (s *Session) Manager() *present.Manager { return s.mgr }
func (s *Session) MaxIter() int              { return s.maxIter }

// Step polls input and presents a frame if anything changed. A dropped
// frame is not an error; it is retried on the next step.
func (s *Session) Step() (err error) {
	defer s.recoverPanic(&err)

	s.pollInput()
	if s.quit {
		return hal.ErrQuit
	}
	if w, h := s.h.Display().Size(); w != s.lastW || h != s.lastH {
		s.lastW, s.lastH = w, h
		s.dirty = true
	}
	if !s.dirty {
		return nil
	}

	_, err = s.mgr.Frame(s.cam.Snapshot(), s.maxIter)
	if errors.Is(err, present.ErrFrameSkipped) {
		return nil
	}
	if err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// pollInput applies every pending event in delivery order.
func (s *Session) pollInput() {
	in := s.h.Input()
	if in == nil {
		return
	}
	events := in.Events()
	for {
		select {
		case ev := <-events:
			switch ev.Kind {
			case hal.EventKey:
				s.key(ev.Key)
			case hal.EventPointer:
				s.pointer(ev.Pointer)
			}
		default:
			return
		}
	}
}

func (s *Session) pointer(ev hal.PointerEvent) {
	switch ev.Kind {
	case hal.PointerPress:
		s.cam.Press(ev.X, ev.Y)
	case hal.PointerRelease:
		s.cam.Release()
	case hal.PointerMove:
		w, h := s.h.Display().Size()
		if s.cam.Move(ev.X, ev.Y, w, h) {
			s.dirty = true
		}
	case hal.PointerScroll:
		if ev.DY != 0 {
			s.cam.Scroll(ev.DY)
			s.dirty = true
		}
	}
}

func (s *Session) key(ev hal.KeyEvent) {
	if !ev.Press {
		return
	}
	switch ev.Code {
	case hal.KeyEscape:
		s.quit = true
		return
	case hal.KeyHome:
		s.cam.Reset()
		s.dirty = true
		return
	case hal.KeyF1:
		s.hud.Toggle()
		s.dirty = true
		return
	}

	switch ev.Rune {
	case '+', '=':
		s.setMaxIter(s.maxIter * 2)
	case '-', '_':
		s.setMaxIter(s.maxIter / 2)
	case 'b':
		s.saveBookmark()
	case 's':
		if !s.screenshots {
			s.log.WriteLineString("session: screenshots disabled")
			return
		}
		if _, err := s.Screenshot(); err != nil {
			s.log.WriteLineString("session: screenshot: " + err.Error())
		}
	}
}

func (s *Session) setMaxIter(n int) {
	n = min(max(n, minIterations), maxIterations)
	if n == s.maxIter {
		return
	}
	s.maxIter = n
	s.dirty = true
	s.log.WriteLineString(fmt.Sprintf("session: iterations %d", n))
}

func (s *Session) saveBookmark() {
	if s.marks == nil {
		s.log.WriteLineString("session: no bookmark store configured")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	name := "view-" + time.Now().UTC().Format("20060102-150405.000")
	b, err := s.marks.Save(ctx, name, s.cam.Snapshot(), s.maxIter)
	if err != nil {
		s.log.WriteLineString("session: " + err.Error())
		return
	}
	s.log.WriteLineString(fmt.Sprintf("session: bookmark %s saved id=%s zoom=%g", b.Name, b.ID, b.Zoom))
}

// Jump moves to a bookmarked view.
func (s *Session) Jump(b bookmark.Bookmark) {
	s.cam.Jump(b.View.Center, b.View.Zoom)
	if b.MaxIter > 0 {
		s.setMaxIter(b.MaxIter)
	}
	s.dirty = true
}

// Screenshot writes the last presented frame, at display size, to a PNG and
// returns its path.
func (s *Session) Screenshot() (string, error) {
	img := s.h.Display().Frame()
	if img == nil {
		return "", errors.New("nothing presented yet")
	}
	s.shots++
	path := filepath.Join(s.shotDir, fmt.Sprintf("deepzoom-%s-%03d.png", time.Now().UTC().Format("20060102-150405"), s.shots))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	s.log.WriteLineString("session: screenshot " + path)
	return path, nil
}
