//go:build !tinygo

package hal

// hostInput queues events from both devices on one channel so their relative
// order survives.
type hostInput struct {
	ch chan Event

	// Last polled cursor position, used to emit moves only on change.
	x, y  int
	moved bool
}

func newHostInput() *hostInput {
	return &hostInput{ch: make(chan Event, 256)}
}

func (in *hostInput) Events() <-chan Event { return in.ch }

func (in *hostInput) pushKey(ev KeyEvent) {
	in.push(Event{Kind: EventKey, Key: ev})
}

func (in *hostInput) pushPointer(ev PointerEvent) {
	in.push(Event{Kind: EventPointer, Pointer: ev})
}

// push drops the event when the queue is full.
func (in *hostInput) push(ev Event) {
	select {
	case in.ch <- ev:
	default:
	}
}
