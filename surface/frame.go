package surface

import "sync/atomic"

// Frame is one composed frame of RGBA pixels ready for presentation.
//
// Presentation completion is observed through the retire callback rather
// than assumed synchronous: the platform target calls Retire when the
// frame has been shown or discarded, which may happen on the GPU
// library's own worker thread.
type Frame struct {
	// Width and Height are the frame dimensions in pixels.
	Width, Height int

	// Stride is the number of bytes per row (Width * 4).
	Stride int

	// Pixels is the RGBA pixel data, row by row.
	Pixels []byte

	onRetire func()
	retired  atomic.Bool
}

// NewFrame allocates a frame of the given dimensions.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Stride: width * 4,
		Pixels: make([]byte, width*height*4),
	}
}

// OnRetire installs the completion callback. It must be set before the
// frame is handed to a target.
func (f *Frame) OnRetire(fn func()) {
	f.onRetire = fn
}

// Retire marks the frame presented or discarded and invokes the
// completion callback exactly once. Safe to call from any goroutine.
func (f *Frame) Retire() {
	if !f.retired.CompareAndSwap(false, true) {
		return
	}
	if f.onRetire != nil {
		f.onRetire()
	}
}

// Retired reports whether the frame has completed.
func (f *Frame) Retired() bool {
	return f.retired.Load()
}
