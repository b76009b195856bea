package app

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"os"
	"strings"
	"testing"

	"deepzoom/fractal/bookmark"
	"deepzoom/fractal/camera"
	"deepzoom/fractal/dd"
	"deepzoom/fractal/render"
	"deepzoom/hal"
)

type testHost struct {
	hal.HAL
	hal.Injector
	log *bytes.Buffer
}

func newTestHost(t *testing.T) testHost {
	t.Helper()
	var buf bytes.Buffer
	h := hal.New(hal.Config{Width: 16, Height: 12, MaxWidth: 64, MaxHeight: 64, Log: &buf})
	return testHost{HAL: h, Injector: h.(hal.Injector), log: &buf}
}

func newTestSession(t *testing.T, h testHost, cfg Config) *Session {
	t.Helper()
	if cfg.MaxIter == 0 {
		cfg.MaxIter = 32
	}
	s, err := NewSession(h, cfg)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func step(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
}

func TestStepPresentsOnlyWhenDirty(t *testing.T) {
	h := newTestHost(t)
	s := newTestSession(t, h, Config{})

	step(t, s)
	if h.Display().Frame() == nil {
		t.Fatalf("no frame presented after first step")
	}
	step(t, s)
	step(t, s)
	if got := s.Manager().Stats().Frames; got != 1 {
		t.Fatalf("Frames = %d after idle steps, want 1", got)
	}
}

func TestScrollZooms(t *testing.T) {
	h := newTestHost(t)
	s := newTestSession(t, h, Config{})
	step(t, s)

	h.InjectPointer(hal.PointerEvent{Kind: hal.PointerScroll, DY: 1})
	step(t, s)
	if got := s.Camera().Zoom(); got != 1.1 {
		t.Fatalf("Zoom() = %v, want 1.1", got)
	}
	h.InjectPointer(hal.PointerEvent{Kind: hal.PointerScroll, DY: -3})
	step(t, s)
	if got := s.Camera().Zoom(); got < 0.9999999 || got > 1.0000001 {
		t.Fatalf("Zoom() = %v, want 1", got)
	}
	if got := s.Manager().Stats().Frames; got != 3 {
		t.Fatalf("Frames = %d, want 3", got)
	}
}

func TestDragPans(t *testing.T) {
	h := newTestHost(t)
	s := newTestSession(t, h, Config{Camera: camera.Config{Center: dd.C(0, 0), Zoom: 1}})
	step(t, s)

	h.InjectPointer(hal.PointerEvent{Kind: hal.PointerPress, X: 8, Y: 6})
	h.InjectPointer(hal.PointerEvent{Kind: hal.PointerMove, X: 11, Y: 6})
	h.InjectPointer(hal.PointerEvent{Kind: hal.PointerRelease, X: 11, Y: 6})
	step(t, s)

	c := s.Camera().Center()
	if !(c.Re.Float64() < 0) || c.Im.Float64() != 0 {
		t.Fatalf("Center() = %v, want re < 0 and im = 0", c)
	}
	if s.Camera().State() != camera.Idle {
		t.Fatalf("State() = %v, want Idle", s.Camera().State())
	}

	// Moves without a press do nothing.
	h.InjectPointer(hal.PointerEvent{Kind: hal.PointerMove, X: 0, Y: 0})
	step(t, s)
	if s.Camera().Center() != c {
		t.Fatalf("idle move changed center")
	}
}

func TestKeys(t *testing.T) {
	h := newTestHost(t)
	s := newTestSession(t, h, Config{MaxIter: 64, HUD: true})
	step(t, s)

	h.InjectKey(hal.KeyEvent{Press: true, Rune: '+'})
	step(t, s)
	if s.MaxIter() != 128 {
		t.Fatalf("MaxIter() = %d, want 128", s.MaxIter())
	}
	for i := 0; i < 10; i++ {
		h.InjectKey(hal.KeyEvent{Press: true, Rune: '-'})
	}
	step(t, s)
	if s.MaxIter() != minIterations {
		t.Fatalf("MaxIter() = %d, want %d", s.MaxIter(), minIterations)
	}

	h.InjectPointer(hal.PointerEvent{Kind: hal.PointerScroll, DY: 1})
	h.InjectKey(hal.KeyEvent{Code: hal.KeyHome, Press: true})
	step(t, s)
	if s.Camera().Zoom() != 1 {
		t.Fatalf("Zoom() after Home = %v, want 1", s.Camera().Zoom())
	}

	h.InjectKey(hal.KeyEvent{Code: hal.KeyF1, Press: true})
	step(t, s)
	if s.hud.Enabled {
		t.Fatalf("F1 did not toggle the HUD")
	}

	// Releases are ignored.
	h.InjectKey(hal.KeyEvent{Code: hal.KeyEscape, Press: false})
	step(t, s)

	h.InjectKey(hal.KeyEvent{Code: hal.KeyEscape, Press: true})
	if err := s.Step(); !errors.Is(err, hal.ErrQuit) {
		t.Fatalf("Step() after Escape = %v, want ErrQuit", err)
	}
}

func TestInputAppliedInDeliveryOrder(t *testing.T) {
	h := newTestHost(t)
	s := newTestSession(t, h, Config{})
	step(t, s)

	for i := 0; i < 100; i++ {
		h.InjectPointer(hal.PointerEvent{Kind: hal.PointerScroll, DY: 1})
		h.InjectKey(hal.KeyEvent{Code: hal.KeyHome, Press: true})
		step(t, s)
		if s.Camera().Zoom() != 1 {
			t.Fatalf("round %d: scroll then Home left Zoom() = %v, want 1", i, s.Camera().Zoom())
		}

		h.InjectKey(hal.KeyEvent{Code: hal.KeyHome, Press: true})
		h.InjectPointer(hal.PointerEvent{Kind: hal.PointerScroll, DY: 1})
		step(t, s)
		if s.Camera().Zoom() != 1.1 {
			t.Fatalf("round %d: Home then scroll left Zoom() = %v, want 1.1", i, s.Camera().Zoom())
		}
		s.Camera().Reset()
	}
}

func TestFrameSkipIsNotFatal(t *testing.T) {
	h := newTestHost(t)
	s := newTestSession(t, h, Config{})
	s.Manager().SetRenderer(brokenRenderer{err: hal.ErrIncompleteFramebuffer})

	step(t, s)
	step(t, s)
	if st := s.Manager().Stats(); st.Skipped != 2 || st.Frames != 0 {
		t.Fatalf("Stats() = %+v, want 2 skipped", st)
	}
	if !strings.Contains(h.log.String(), "skipping frame") {
		t.Fatalf("log = %q, want skip line", h.log.String())
	}

	s.Manager().SetRenderer(&render.Renderer{})
	step(t, s)
	if st := s.Manager().Stats(); st.Frames != 1 {
		t.Fatalf("Stats() = %+v, want recovery", st)
	}
}

func TestPanicBecomesError(t *testing.T) {
	h := newTestHost(t)
	s := newTestSession(t, h, Config{})
	s.Manager().SetRenderer(brokenRenderer{panic: true})

	err := s.Step()
	if err == nil || !strings.Contains(err.Error(), "panic: kaboom") {
		t.Fatalf("Step() = %v, want panic error", err)
	}
	if !strings.Contains(h.log.String(), "session: panic: kaboom") {
		t.Fatalf("log = %q", h.log.String())
	}
	img := h.Display().Frame()
	if img == nil {
		t.Fatalf("panic screen not presented")
	}
	if got := img.RGBAAt(15, 11); got != (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Fatalf("panic screen pixel = %v, want white", got)
	}
}

func TestBookmarkKey(t *testing.T) {
	store, err := bookmark.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	h := newTestHost(t)
	s := newTestSession(t, h, Config{Bookmarks: store})
	h.InjectKey(hal.KeyEvent{Press: true, Rune: 'b'})
	step(t, s)

	all, err := store.List(context.Background())
	if err != nil || len(all) != 1 {
		t.Fatalf("List() = %v, %v", all, err)
	}
	if all[0].View != s.Camera().Snapshot() || all[0].MaxIter != 32 {
		t.Fatalf("bookmark = %+v", all[0])
	}

	s.Camera().ZoomIn()
	s.Jump(all[0])
	if s.Camera().Zoom() != all[0].Zoom {
		t.Fatalf("Jump() zoom = %v", s.Camera().Zoom())
	}
}

func TestBookmarkKeyWithoutStore(t *testing.T) {
	h := newTestHost(t)
	s := newTestSession(t, h, Config{})
	h.InjectKey(hal.KeyEvent{Press: true, Rune: 'b'})
	step(t, s)
	if !strings.Contains(h.log.String(), "no bookmark store") {
		t.Fatalf("log = %q", h.log.String())
	}
}

func TestScreenshot(t *testing.T) {
	h := newTestHost(t)
	s := newTestSession(t, h, Config{ScreenshotDir: t.TempDir()})
	if _, err := s.Screenshot(); err == nil {
		t.Fatalf("Screenshot() before first frame error = nil")
	}
	step(t, s)
	path, err := s.Screenshot()
	if err != nil {
		t.Fatalf("Screenshot() error = %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Fatalf("screenshot %s: %v", path, err)
	}
}

func TestScreenshotKey(t *testing.T) {
	dir := t.TempDir()
	h := newTestHost(t)
	s := newTestSession(t, h, Config{Screenshots: true, ScreenshotDir: dir})
	step(t, s)
	h.InjectKey(hal.KeyEvent{Press: true, Rune: 's'})
	step(t, s)
	if entries, _ := os.ReadDir(dir); len(entries) != 1 {
		t.Fatalf("screenshot dir has %d entries, want 1", len(entries))
	}
}

func TestScreenshotKeyDisabled(t *testing.T) {
	dir := t.TempDir()
	h := newTestHost(t)
	s := newTestSession(t, h, Config{ScreenshotDir: dir})
	step(t, s)
	h.InjectKey(hal.KeyEvent{Press: true, Rune: 's'})
	step(t, s)
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("screenshot dir has %d entries, want 0", len(entries))
	}
	if !strings.Contains(h.log.String(), "screenshots disabled") {
		t.Fatalf("log = %q", h.log.String())
	}
}

func TestNewReturnsStep(t *testing.T) {
	h := newTestHost(t)
	stepFn, err := New(h, Config{MaxIter: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := stepFn(); err != nil {
		t.Fatalf("step() error = %v", err)
	}
}

func TestTakeRunes(t *testing.T) {
	p, r := takeRunes("héllo", 2)
	if p != "hé" || r != "llo" {
		t.Fatalf("takeRunes() = %q, %q", p, r)
	}
	if p, r := takeRunes("ab", 5); p != "ab" || r != "" {
		t.Fatalf("takeRunes() = %q, %q", p, r)
	}
}

type brokenRenderer struct {
	err   error
	panic bool
}

func (b brokenRenderer) Render(*render.Target, camera.Viewport, int) error {
	if b.panic {
		panic("kaboom")
	}
	return b.err
}
