package framebridge

import "github.com/gogpu/framebridge/display"

// NativeEvent is a platform window or input event, identified by the
// native window handle it targets. The bridge translates window events
// into surface state transitions and notifier callbacks; input events
// pass through to the editor core unmodified.
type NativeEvent interface {
	NativeHandle() uintptr
}

// ExposeEvent reports that a window's contents were damaged and need to
// be redrawn.
type ExposeEvent struct {
	Native uintptr
}

// NativeHandle implements NativeEvent.
func (e ExposeEvent) NativeHandle() uintptr { return e.Native }

// ConfigureEvent reports a window size or scale change.
type ConfigureEvent struct {
	Native        uintptr
	Width, Height int
	// Scale is the new DPI scale factor; zero means unchanged.
	Scale float64
}

// NativeHandle implements NativeEvent.
func (e ConfigureEvent) NativeHandle() uintptr { return e.Native }

// SurfaceLostEvent reports a platform-level surface loss (GPU reset,
// compositor restart). The surface is recreated on the next present.
type SurfaceLostEvent struct {
	Native uintptr
}

// NativeHandle implements NativeEvent.
func (e SurfaceLostEvent) NativeHandle() uintptr { return e.Native }

// CloseRequestEvent reports that the user asked to close the window.
type CloseRequestEvent struct {
	Native uintptr
}

// NativeHandle implements NativeEvent.
func (e CloseRequestEvent) NativeHandle() uintptr { return e.Native }

// KeyEvent is a keyboard event, forwarded to the editor core as-is.
type KeyEvent struct {
	Native    uintptr
	Rune      rune
	Code      uint32
	Modifiers uint32
	Pressed   bool
}

// NativeHandle implements NativeEvent.
func (e KeyEvent) NativeHandle() uintptr { return e.Native }

// MouseEvent is a pointer event, forwarded to the editor core as-is.
type MouseEvent struct {
	Native  uintptr
	X, Y    int
	Button  uint8
	Pressed bool
}

// NativeHandle implements NativeEvent.
func (e MouseEvent) NativeHandle() uintptr { return e.Native }

// Notifier receives bridge-to-editor notifications. Callbacks are
// invoked outside bridge locks, but should still return quickly; slow
// work belongs on the editor's own queue.
type Notifier interface {
	// RedrawNeeded asks the editor to produce a fresh display list for
	// the window (after an expose or a successful resize).
	RedrawNeeded(id display.WindowID)

	// WindowResized reports the new logical size and scale.
	WindowResized(id display.WindowID, width, height int, scale float64)

	// WindowClosed reports that the window and its surface are gone.
	WindowClosed(id display.WindowID)

	// WindowDegraded reports repeated unrecoverable surface failures.
	// The editor decides whether to close the window.
	WindowDegraded(id display.WindowID)

	// Input forwards a keyboard or pointer event unmodified.
	Input(id display.WindowID, ev NativeEvent)
}

// nopNotifier is the default Notifier; it ignores everything.
type nopNotifier struct{}

func (nopNotifier) RedrawNeeded(display.WindowID)                     {}
func (nopNotifier) WindowResized(display.WindowID, int, int, float64) {}
func (nopNotifier) WindowClosed(display.WindowID)                     {}
func (nopNotifier) WindowDegraded(display.WindowID)                   {}
func (nopNotifier) Input(display.WindowID, NativeEvent)               {}
