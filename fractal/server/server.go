// Package server exposes the renderer over HTTP: one-shot PNG renders, the
// bookmark list, and live sessions over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"math"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"deepzoom/app"
	"deepzoom/fractal/bookmark"
	"deepzoom/fractal/camera"
	"deepzoom/fractal/dd"
	"deepzoom/fractal/render"
	"deepzoom/hal"
)

type Config struct {
	// Session is the template for live sessions. Its Renderer is shared.
	Session app.Config
	// Width and Height are the default display size of a live session.
	Width  int
	Height int
	// MaxWidth and MaxHeight bound every request.
	MaxWidth  int
	MaxHeight int
}

func (c *Config) applyDefaults() {
	if c.Width <= 0 {
		c.Width = 800
	}
	if c.Height <= 0 {
		c.Height = 600
	}
	if c.MaxWidth <= 0 {
		c.MaxWidth = 4096
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = 4096
	}
	if c.Session.Camera.Zoom == 0 {
		c.Session.Camera = camera.DefaultConfig()
	}
	if c.Session.Renderer == nil {
		c.Session.Renderer = &render.Renderer{}
	}
	if c.Session.MaxIter <= 0 {
		c.Session.MaxIter = 512
	}
	// Live sessions render on the CPU; the GPU needs the window's game loop.
	c.Session.GPU = false
	// Remote clients must not write files on the host.
	c.Session.Screenshots = false
}

type Server struct {
	cfg      Config
	log      hal.Logger
	marks    *bookmark.Store
	sessions atomic.Int64
}

// New returns a server. marks may be nil.
func New(cfg Config, marks *bookmark.Store, log hal.Logger) *Server {
	cfg.applyDefaults()
	cfg.Session.Bookmarks = marks
	return &Server{cfg: cfg, log: hal.OrDiscard(log), marks: marks}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/render.png", s.handleRender)
	r.Get("/ws", s.handleWS)
	r.Route("/bookmarks", func(r chi.Router) {
		r.Get("/", s.handleListBookmarks)
		r.Get("/{id}", s.handleGetBookmark)
		r.Delete("/{id}", s.handleDeleteBookmark)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WriteLineString("server: listening on " + addr)

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Load()})
}

// handleRender renders one frame: re, im (decimal, full precision), zoom,
// w, h, iter.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cam := s.cfg.Session.Camera
	center := cam.Center
	var err error
	if v := q.Get("re"); v != "" {
		if center.Re, err = dd.Parse(v); err != nil {
			httpError(w, http.StatusBadRequest, "re: %v", err)
			return
		}
	}
	if v := q.Get("im"); v != "" {
		if center.Im, err = dd.Parse(v); err != nil {
			httpError(w, http.StatusBadRequest, "im: %v", err)
			return
		}
	}
	if !center.IsFinite() {
		httpError(w, http.StatusBadRequest, "center must be finite")
		return
	}
	zoom, err := floatParam(q.Get("zoom"), cam.Zoom)
	if err != nil || !(zoom > 0) || math.IsInf(zoom, 0) {
		httpError(w, http.StatusBadRequest, "zoom must be a finite positive number")
		return
	}
	width, err1 := intParam(q.Get("w"), s.cfg.Width)
	height, err2 := intParam(q.Get("h"), s.cfg.Height)
	iter, err3 := intParam(q.Get("iter"), s.cfg.Session.MaxIter)
	if err := errors.Join(err1, err2, err3); err != nil {
		httpError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if width <= 0 || height <= 0 || width > s.cfg.MaxWidth || height > s.cfg.MaxHeight {
		httpError(w, http.StatusBadRequest, "size %dx%d outside 1x1..%dx%d", width, height, s.cfg.MaxWidth, s.cfg.MaxHeight)
		return
	}
	if iter < 0 || iter > 1<<20 {
		httpError(w, http.StatusBadRequest, "iter %d out of range", iter)
		return
	}

	t := render.NewTarget(width, height)
	snap := camera.Snapshot{Center: center, Zoom: zoom}
	if err := s.cfg.Session.Renderer.Render(t, snap.Viewport(width, height, float64(width)/float64(height)), iter); err != nil {
		httpError(w, http.StatusInternalServerError, "render: %v", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := png.Encode(w, t.Image()); err != nil {
		s.log.WriteLineString("server: encode: " + err.Error())
	}
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	if s.marks == nil {
		writeJSON(w, http.StatusOK, []bookmark.Bookmark{})
		return
	}
	all, err := s.marks.List(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if all == nil {
		all = []bookmark.Bookmark{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleGetBookmark(w http.ResponseWriter, r *http.Request) {
	if s.marks == nil {
		httpError(w, http.StatusNotFound, "no bookmark store")
		return
	}
	b, err := s.marks.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, bookmark.ErrNotFound) {
		httpError(w, http.StatusNotFound, "%v", err)
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	if s.marks == nil {
		httpError(w, http.StatusNotFound, "no bookmark store")
		return
	}
	err := s.marks.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, bookmark.ErrNotFound) {
		httpError(w, http.StatusNotFound, "%v", err)
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

func floatParam(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
