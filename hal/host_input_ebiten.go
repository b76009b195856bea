//go:build !tinygo && cgo

package hal

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var hostKeys = []struct {
	key  ebiten.Key
	code KeyCode
}{
	{ebiten.KeyArrowUp, KeyUp},
	{ebiten.KeyArrowDown, KeyDown},
	{ebiten.KeyArrowLeft, KeyLeft},
	{ebiten.KeyArrowRight, KeyRight},
	{ebiten.KeyEnter, KeyEnter},
	{ebiten.KeyEscape, KeyEscape},
	{ebiten.KeyHome, KeyHome},
	{ebiten.KeyF1, KeyF1},
}

// poll converts this tick's keyboard, cursor, button and wheel state into
// events. Keys are queued before pointer events of the same tick.
// Coordinates are in window pixels because Layout reports the outside size.
func (in *hostInput) poll() {
	for _, r := range ebiten.AppendInputChars(nil) {
		in.pushKey(KeyEvent{Press: true, Rune: r})
	}
	for _, hk := range hostKeys {
		if inpututil.IsKeyJustPressed(hk.key) {
			in.pushKey(KeyEvent{Code: hk.code, Press: true})
		}
		if inpututil.IsKeyJustReleased(hk.key) {
			in.pushKey(KeyEvent{Code: hk.code, Press: false})
		}
	}

	now := time.Now()
	x, y := ebiten.CursorPosition()
	fx, fy := float64(x), float64(y)

	if !in.moved || x != in.x || y != in.y {
		in.x, in.y, in.moved = x, y, true
		in.pushPointer(PointerEvent{Kind: PointerMove, X: fx, Y: fy, Time: now})
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		in.pushPointer(PointerEvent{Kind: PointerPress, X: fx, Y: fy, Time: now})
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		in.pushPointer(PointerEvent{Kind: PointerRelease, X: fx, Y: fy, Time: now})
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		in.pushPointer(PointerEvent{Kind: PointerScroll, X: fx, Y: fy, DY: dy, Time: now})
	}
}
