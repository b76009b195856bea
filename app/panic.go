package app

import (
	"fmt"
	"image/color"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"deepzoom/fractal/hud"
	"deepzoom/fractal/render"
)

// recoverPanic turns a panic inside a step into an error after logging it and
// painting it over the framebuffer.
func (s *Session) recoverPanic(errp *error) {
	v := recover()
	if v == nil {
		return
	}
	stack := debug.Stack()

	lines := []string{"deepzoom panic:", fmt.Sprintf("panic: %v", v)}
	s.log.WriteLineString(fmt.Sprintf("session: panic: %v", v))
	for _, line := range strings.Split(string(stack), "\n") {
		if line == "" {
			continue
		}
		s.log.WriteLineString(line)
		lines = append(lines, strings.ReplaceAll(line, "\t", "  "))
	}

	s.paintPanic(lines)
	*errp = fmt.Errorf("app: panic: %v", v)
}

func (s *Session) paintPanic(lines []string) {
	fb := s.h.Display().Framebuffer()
	if fb == nil {
		return
	}
	t, err := render.TargetOver(fb.Buffer(), fb.Width(), fb.Height(), fb.StrideBytes())
	if err != nil {
		return
	}

	const scale = 1
	cols := max(hud.Columns(t, scale), 1)
	rows := hud.Rows(t, scale)
	var wrapped []string
	for _, line := range lines {
		for len(line) > 0 && len(wrapped) < rows {
			chunk, rest := takeRunes(line, cols)
			wrapped = append(wrapped, chunk)
			line = strings.TrimLeft(rest, " ")
		}
	}

	fb.ClearRGB(255, 255, 255)
	hud.WriteLines(t, wrapped, scale, color.RGBA{A: 255}, false)
	_ = fb.Present()
}

func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if len(s) <= n {
		return s, ""
	}
	var i, count int
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
