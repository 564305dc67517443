// Package surface owns the per-window GPU-presentable target: creation,
// resize, platform loss recovery, and frame composition.
//
// Platform back ends (X11, Wayland, macOS, Windows, offscreen) are
// modeled as a small capability-set interface with one implementation
// per platform, selected at startup through a registry. Surfaces move
// through the states Uninitialized, Ready, Invalidated and Destroyed;
// presenting is only valid in Ready, and a resize invalidates the
// surface until it is lazily recreated on the next present attempt.
package surface

import (
	"fmt"
	"sort"
	"sync"
)

// PresentMode selects how presents are paced by the platform.
type PresentMode int

const (
	// PresentModeFifo queues frames and presents on vsync.
	PresentModeFifo PresentMode = iota

	// PresentModeImmediate presents without waiting for vsync.
	PresentModeImmediate

	// PresentModeMailbox replaces the queued frame with the newest one.
	PresentModeMailbox
)

// String returns the present mode name.
func (m PresentMode) String() string {
	switch m {
	case PresentModeFifo:
		return "Fifo"
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	default:
		return "Unknown"
	}
}

// CreateOptions describes the target a platform should create.
type CreateOptions struct {
	// Width and Height are the initial pixel dimensions.
	Width, Height int

	// Scale is the window's DPI scale factor.
	Scale float64

	// BufferCount is the requested back-buffer count (2 or 3).
	BufferCount int

	// PresentMode is the requested pacing mode.
	PresentMode PresentMode

	// NativeHandle is the platform window handle the target binds to.
	// Zero for offscreen targets.
	NativeHandle uintptr
}

// Target is one platform-presentable surface. Targets are owned by a
// Manager and are not safe for concurrent use; the manager serializes
// access.
type Target interface {
	// Resize adjusts the target to new pixel dimensions.
	Resize(width, height int) error

	// Present submits a composed frame. Completion may be asynchronous;
	// the target calls the frame's Retire callback when the frame has
	// been presented or discarded. Returns ErrLost when the underlying
	// surface is gone and must be recreated.
	Present(f *Frame) error

	// Destroy releases the target. The frame most recently presented
	// is retired if it has not been already.
	Destroy()
}

// Platform is the capability set a windowing back end provides.
// Implementations must be safe for concurrent use.
type Platform interface {
	// Name returns the platform identifier (e.g. "offscreen", "gpu").
	Name() string

	// CreateTarget creates a presentable target for one window.
	CreateTarget(opts CreateOptions) (Target, error)
}

var (
	platformMu sync.RWMutex
	platforms  = map[string]Platform{}
)

// Register adds a platform to the registry, replacing any platform with
// the same name. Platform packages call Register from init.
func Register(p Platform) {
	platformMu.Lock()
	platforms[p.Name()] = p
	platformMu.Unlock()
}

// Select returns the registered platform with the given name.
func Select(name string) (Platform, error) {
	platformMu.RLock()
	p, ok := platforms[name]
	platformMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoPlatform, name)
	}
	return p, nil
}

// Platforms returns the registered platform names, sorted.
func Platforms() []string {
	platformMu.RLock()
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	platformMu.RUnlock()
	sort.Strings(names)
	return names
}
