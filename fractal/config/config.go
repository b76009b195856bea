// Package config loads the YAML configuration shared by the viewer, the
// preview server and the batch exporter.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"deepzoom/fractal/camera"
	"deepzoom/fractal/dd"
	"deepzoom/fractal/escape"
	"deepzoom/fractal/export"
	"deepzoom/fractal/render"
)

// Config holds all deepzoom configuration.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Camera    CameraConfig    `yaml:"camera"`
	Render    RenderConfig    `yaml:"render"`
	Export    ExportConfig    `yaml:"export"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`
	Server    ServerConfig    `yaml:"server"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Hz     int    `yaml:"hz"`
	GPU    bool   `yaml:"gpu"`
}

// CameraConfig is the initial (and Home) view. Re and Im are decimal strings
// so they keep full double-double precision.
type CameraConfig struct {
	Re              string  `yaml:"re"`
	Im              string  `yaml:"im"`
	Zoom            float64 `yaml:"zoom"`
	MinZoom         float64 `yaml:"min_zoom"`
	ZoomFactor      float64 `yaml:"zoom_factor"`
	DragSensitivity float64 `yaml:"drag_sensitivity"`
}

type RenderConfig struct {
	MaxIterations int    `yaml:"max_iterations"`
	MaxWidth      int    `yaml:"max_width"`
	MaxHeight     int    `yaml:"max_height"`
	Workers       int    `yaml:"workers"`
	TileSize      int    `yaml:"tile_size"`
	Palette       string `yaml:"palette"`
	Precision     string `yaml:"precision"`
}

type ExportConfig struct {
	Re            string  `yaml:"x_center"`
	Im            string  `yaml:"y_center"`
	StartRange    float64 `yaml:"start_range"`
	ZoomFactor    float64 `yaml:"zoom_factor"`
	FrameCount    int     `yaml:"frame_count"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	MaxIterations int     `yaml:"max_iterations"`
	Dir           string  `yaml:"dir"`
	Prefix        string  `yaml:"prefix"`
	Framerate     int     `yaml:"framerate"`
	Palette       string  `yaml:"palette"`
}

// BookmarksConfig enables the bookmark store when DBPath is set.
type BookmarksConfig struct {
	DBPath string `yaml:"db_path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default view center.
const (
	DefaultRe = "-0.5693038674840807"
	DefaultIm = "-0.5724608139558649"
)

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Window.Title == "" {
		c.Window.Title = "deepzoom"
	}
	if c.Window.Width <= 0 {
		c.Window.Width = 800
	}
	if c.Window.Height <= 0 {
		c.Window.Height = 600
	}
	if c.Window.Hz <= 0 {
		c.Window.Hz = 100
	}

	cam := camera.DefaultConfig()
	if c.Camera.Re == "" {
		c.Camera.Re = DefaultRe
	}
	if c.Camera.Im == "" {
		c.Camera.Im = DefaultIm
	}
	if c.Camera.Zoom == 0 {
		c.Camera.Zoom = cam.Zoom
	}
	if c.Camera.MinZoom == 0 {
		c.Camera.MinZoom = cam.MinZoom
	}
	if c.Camera.ZoomFactor == 0 {
		c.Camera.ZoomFactor = cam.ZoomFactor
	}
	if c.Camera.DragSensitivity == 0 {
		c.Camera.DragSensitivity = cam.DragSensitivity
	}

	if c.Render.MaxIterations == 0 {
		c.Render.MaxIterations = 512
	}
	if c.Render.TileSize == 0 {
		c.Render.TileSize = render.DefaultTileSize
	}
	if c.Render.Palette == "" {
		c.Render.Palette = render.Gray.String()
	}
	if c.Render.Precision == "" {
		c.Render.Precision = escape.DoubleDouble.String()
	}

	ex := export.DefaultParams()
	if c.Export.Re == "" {
		c.Export.Re = DefaultRe
	}
	if c.Export.Im == "" {
		c.Export.Im = DefaultIm
	}
	if c.Export.StartRange == 0 {
		c.Export.StartRange = ex.StartRange
	}
	if c.Export.ZoomFactor == 0 {
		c.Export.ZoomFactor = ex.ZoomFactor
	}
	if c.Export.FrameCount == 0 {
		c.Export.FrameCount = ex.FrameCount
	}
	if c.Export.Width == 0 {
		c.Export.Width = ex.Width
	}
	if c.Export.Height == 0 {
		c.Export.Height = ex.Height
	}
	if c.Export.MaxIterations == 0 {
		c.Export.MaxIterations = ex.MaxIter
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "mandelbrot_frames"
	}
	if c.Export.Prefix == "" {
		c.Export.Prefix = "frame_"
	}
	if c.Export.Framerate <= 0 {
		c.Export.Framerate = 24
	}
	if c.Export.Palette == "" {
		c.Export.Palette = render.Hot.String()
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// LoadFile reads a YAML config file and fills unset fields with defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load returns the file at path, or the defaults when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := c.CameraConfig(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Renderer(); err != nil {
		errs = append(errs, err)
	}
	if c.Render.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("render.max_iterations %d must not be negative", c.Render.MaxIterations))
	}
	if c.Render.MaxWidth < 0 || c.Render.MaxHeight < 0 {
		errs = append(errs, fmt.Errorf("render.max_width/max_height must not be negative"))
	}
	if _, err := c.ExportParams(); err != nil {
		errs = append(errs, err)
	}
	if _, err := render.ParsePalette(c.Export.Palette); err != nil {
		errs = append(errs, fmt.Errorf("export.palette: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// CameraConfig converts the camera section.
func (c *Config) CameraConfig() (camera.Config, error) {
	re, err := dd.Parse(c.Camera.Re)
	if err != nil {
		return camera.Config{}, fmt.Errorf("camera.re: %w", err)
	}
	im, err := dd.Parse(c.Camera.Im)
	if err != nil {
		return camera.Config{}, fmt.Errorf("camera.im: %w", err)
	}
	if !(c.Camera.Zoom > 0) || !(c.Camera.MinZoom > 0) {
		return camera.Config{}, fmt.Errorf("camera.zoom and camera.min_zoom must be positive")
	}
	if !(c.Camera.ZoomFactor > 1) {
		return camera.Config{}, fmt.Errorf("camera.zoom_factor %v must be > 1", c.Camera.ZoomFactor)
	}
	return camera.Config{
		Center:          dd.Complex{Re: re, Im: im},
		Zoom:            c.Camera.Zoom,
		MinZoom:         c.Camera.MinZoom,
		ZoomFactor:      c.Camera.ZoomFactor,
		DragSensitivity: c.Camera.DragSensitivity,
	}, nil
}

// Renderer builds the CPU renderer from the render section.
func (c *Config) Renderer() (*render.Renderer, error) {
	pal, err := render.ParsePalette(c.Render.Palette)
	if err != nil {
		return nil, fmt.Errorf("render.palette: %w", err)
	}
	prec, err := escape.ParsePrecision(c.Render.Precision)
	if err != nil {
		return nil, fmt.Errorf("render.precision: %w", err)
	}
	return &render.Renderer{
		Workers:   c.Render.Workers,
		TileSize:  c.Render.TileSize,
		Palette:   pal,
		Precision: prec,
	}, nil
}

// ExportParams converts the export section.
func (c *Config) ExportParams() (export.Params, error) {
	re, err := dd.Parse(c.Export.Re)
	if err != nil {
		return export.Params{}, fmt.Errorf("export.x_center: %w", err)
	}
	im, err := dd.Parse(c.Export.Im)
	if err != nil {
		return export.Params{}, fmt.Errorf("export.y_center: %w", err)
	}
	p := export.Params{
		Center:     dd.Complex{Re: re, Im: im},
		StartRange: c.Export.StartRange,
		ZoomFactor: c.Export.ZoomFactor,
		FrameCount: c.Export.FrameCount,
		Width:      c.Export.Width,
		Height:     c.Export.Height,
		MaxIter:    c.Export.MaxIterations,
	}
	if err := p.Validate(); err != nil {
		return export.Params{}, err
	}
	return p, nil
}
