package surface

import (
	"image"
	"sync"
)

// OffscreenName is the registry name of the offscreen platform.
const OffscreenName = "offscreen"

func init() {
	Register(&OffscreenPlatform{})
}

// OffscreenPlatform presents frames into CPU memory. It backs headless
// operation and tests; presentation completes synchronously.
type OffscreenPlatform struct{}

// Name implements Platform.Name.
func (p *OffscreenPlatform) Name() string {
	return OffscreenName
}

// CreateTarget implements Platform.CreateTarget.
func (p *OffscreenPlatform) CreateTarget(opts CreateOptions) (Target, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, ErrInvalidSize
	}
	return &OffscreenTarget{
		img: image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
	}, nil
}

// OffscreenTarget is a CPU-backed presentable target. The most recently
// presented frame can be inspected with Snapshot.
type OffscreenTarget struct {
	mu        sync.Mutex
	img       *image.RGBA
	presents  int
	destroyed bool
}

// Resize implements Target.Resize.
func (t *OffscreenTarget) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return ErrDestroyed
	}
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// Present implements Target.Present. The frame is copied into the
// backing image and retired before Present returns.
func (t *OffscreenTarget) Present(f *Frame) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrLost
	}
	b := t.img.Bounds()
	if f.Width != b.Dx() || f.Height != b.Dy() {
		t.mu.Unlock()
		return ErrLost
	}
	copy(t.img.Pix, f.Pixels)
	t.presents++
	t.mu.Unlock()

	f.Retire()
	return nil
}

// Destroy implements Target.Destroy.
func (t *OffscreenTarget) Destroy() {
	t.mu.Lock()
	t.destroyed = true
	t.mu.Unlock()
}

// Snapshot returns a copy of the most recently presented frame.
func (t *OffscreenTarget) Snapshot() *image.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := image.NewRGBA(t.img.Bounds())
	copy(cp.Pix, t.img.Pix)
	return cp
}

// Presents returns the number of completed presents.
func (t *OffscreenTarget) Presents() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.presents
}
