//go:build !tinygo && !cgo

package hal

// poll is a no-op without the window backend; only injected events arrive.
func (in *hostInput) poll() {}
