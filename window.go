package framebridge

import (
	"sync"

	"github.com/gogpu/framebridge/display"
	"github.com/gogpu/framebridge/surface"
)

// WindowState is the lifecycle state of a bridge window.
type WindowState int32

const (
	// WindowCreated means the window exists but nothing has been
	// presented yet.
	WindowCreated WindowState = iota

	// WindowMapped means at least one frame has been presented.
	WindowMapped

	// WindowResizing means a size change was received and the next
	// present will use the new dimensions.
	WindowResizing

	// WindowClosed means the window and its surface were torn down.
	WindowClosed
)

// String returns the state name.
func (s WindowState) String() string {
	switch s {
	case WindowCreated:
		return "Created"
	case WindowMapped:
		return "Mapped"
	case WindowResizing:
		return "Resizing"
	case WindowClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Window is one on-screen editor frame. It owns exactly one surface
// manager; closing the window tears the surface down synchronously.
type Window struct {
	id     display.WindowID
	native uintptr

	mu            sync.Mutex
	state         WindowState
	width, height int
	scale         float64

	manager *surface.Manager
}

// ID returns the logical window identifier.
func (w *Window) ID() display.WindowID { return w.id }

// Native returns the platform window handle.
func (w *Window) Native() uintptr { return w.native }

// State returns the current lifecycle state.
func (w *Window) State() WindowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Size returns the current logical size.
func (w *Window) Size() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Scale returns the current DPI scale factor.
func (w *Window) Scale() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scale
}

// Surface returns the window's surface manager.
func (w *Window) Surface() *surface.Manager { return w.manager }

// resize records the new geometry and invalidates the surface so no
// stale-size present can succeed.
func (w *Window) resize(width, height int, scale float64) {
	w.mu.Lock()
	if w.state == WindowClosed {
		w.mu.Unlock()
		return
	}
	w.width, w.height = width, height
	if scale > 0 {
		w.scale = scale
	}
	w.state = WindowResizing
	scale = w.scale
	w.mu.Unlock()

	w.manager.Resize(width, height, scale)
}

// presented marks the window mapped after a completed present.
func (w *Window) presented() {
	w.mu.Lock()
	if w.state == WindowCreated || w.state == WindowResizing {
		w.state = WindowMapped
	}
	w.mu.Unlock()
}

// close tears the surface down. Idempotent.
func (w *Window) close() {
	w.mu.Lock()
	if w.state == WindowClosed {
		w.mu.Unlock()
		return
	}
	w.state = WindowClosed
	w.mu.Unlock()

	w.manager.Destroy()
}

// bounds returns the window rectangle used as the scene clip root.
func (w *Window) bounds() display.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return display.Rect{W: w.width, H: w.height}
}
