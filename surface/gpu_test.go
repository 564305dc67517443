package surface

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// hostTexture is a fake host texture that records uploads.
type hostTexture struct {
	width, height int
	data          []byte
	updates       int
	destroyed     bool
}

func (t *hostTexture) Width() int { return t.width }

func (t *hostTexture) Height() int { return t.height }

func (t *hostTexture) UpdateData(data []byte) error {
	t.updates++
	t.data = append(t.data[:0], data...)
	return nil
}

func (t *hostTexture) Destroy() { t.destroyed = true }

// hostCreator records every texture it creates.
type hostCreator struct {
	created []*hostTexture
}

func (c *hostCreator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	tex := &hostTexture{width: width, height: height, data: append([]byte(nil), data...)}
	c.created = append(c.created, tex)
	return tex, nil
}

// hostDrawer implements gpucontext.TextureDrawer the way a host
// application's draw context does.
type hostDrawer struct {
	creator *hostCreator
	draws   []gpucontext.Texture
}

func (d *hostDrawer) DrawTexture(tex gpucontext.Texture, x, y float32) error {
	d.draws = append(d.draws, tex)
	return nil
}

func (d *hostDrawer) TextureCreator() gpucontext.TextureCreator {
	if d.creator == nil {
		return nil
	}
	return d.creator
}

// sharedDevice is a fake gpucontext.DeviceProvider; its presence keeps
// the platform from bringing up its own wgpu device.
type sharedDevice struct{}

func (sharedDevice) Device() gpucontext.Device { return nil }

func (sharedDevice) Queue() gpucontext.Queue { return nil }

func (sharedDevice) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }

func (sharedDevice) Adapter() gpucontext.Adapter { return nil }

func (sharedDevice) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }

func newHostTarget(t *testing.T, drawer *hostDrawer, width, height int) Target {
	t.Helper()
	p := NewGPUPlatform(sharedDevice{}, drawer, nil)
	tgt, err := p.CreateTarget(CreateOptions{Width: width, Height: height})
	if err != nil {
		t.Fatal(err)
	}
	return tgt
}

func TestGPUTargetPresentCreatesThenUpdates(t *testing.T) {
	drawer := &hostDrawer{creator: &hostCreator{}}
	tgt := newHostTarget(t, drawer, 4, 4)

	f1 := NewFrame(4, 4)
	f1.Pixels[0] = 0xAB
	if err := tgt.Present(f1); err != nil {
		t.Fatalf("first present = %v", err)
	}
	if !f1.Retired() {
		t.Error("first present should retire the frame")
	}
	if got := len(drawer.creator.created); got != 1 {
		t.Fatalf("textures created = %d, want 1", got)
	}
	if got := drawer.creator.created[0].data[0]; got != 0xAB {
		t.Errorf("uploaded pixel = %#x, want 0xAB", got)
	}
	if len(drawer.draws) != 1 || drawer.draws[0] != drawer.creator.created[0] {
		t.Errorf("draws = %v, want the created texture once", drawer.draws)
	}

	// The second present reuses the texture through UpdateData.
	f2 := NewFrame(4, 4)
	f2.Pixels[0] = 0xCD
	if err := tgt.Present(f2); err != nil {
		t.Fatalf("second present = %v", err)
	}
	if got := len(drawer.creator.created); got != 1 {
		t.Errorf("textures created = %d, want 1 after update path", got)
	}
	if got := drawer.creator.created[0].updates; got != 1 {
		t.Errorf("updates = %d, want 1", got)
	}
	if got := drawer.creator.created[0].data[0]; got != 0xCD {
		t.Errorf("updated pixel = %#x, want 0xCD", got)
	}
}

func TestGPUTargetPresentWithoutCreator(t *testing.T) {
	drawer := &hostDrawer{}
	tgt := newHostTarget(t, drawer, 4, 4)

	if err := tgt.Present(NewFrame(4, 4)); !errors.Is(err, ErrLost) {
		t.Errorf("present without creator = %v, want ErrLost", err)
	}
	if len(drawer.draws) != 0 {
		t.Errorf("draws = %d, want 0", len(drawer.draws))
	}
}

func TestGPUTargetResizeRecreatesTexture(t *testing.T) {
	drawer := &hostDrawer{creator: &hostCreator{}}
	tgt := newHostTarget(t, drawer, 4, 4)

	if err := tgt.Present(NewFrame(4, 4)); err != nil {
		t.Fatal(err)
	}
	if err := tgt.Resize(8, 8); err != nil {
		t.Fatal(err)
	}
	if !drawer.creator.created[0].destroyed {
		t.Error("resize should destroy the old texture")
	}

	if err := tgt.Present(NewFrame(4, 4)); !errors.Is(err, ErrLost) {
		t.Errorf("stale frame after resize = %v, want ErrLost", err)
	}
	if err := tgt.Present(NewFrame(8, 8)); err != nil {
		t.Fatalf("present at new size = %v", err)
	}
	if got := len(drawer.creator.created); got != 2 {
		t.Errorf("textures created = %d, want 2", got)
	}
	if w, h := drawer.creator.created[1].width, drawer.creator.created[1].height; w != 8 || h != 8 {
		t.Errorf("recreated texture = %dx%d, want 8x8", w, h)
	}
}

func TestGPUTargetDestroy(t *testing.T) {
	drawer := &hostDrawer{creator: &hostCreator{}}
	tgt := newHostTarget(t, drawer, 4, 4)

	if err := tgt.Present(NewFrame(4, 4)); err != nil {
		t.Fatal(err)
	}
	tgt.Destroy()
	if !drawer.creator.created[0].destroyed {
		t.Error("destroy should release the host texture")
	}
	if err := tgt.Present(NewFrame(4, 4)); !errors.Is(err, ErrLost) {
		t.Errorf("present after destroy = %v, want ErrLost", err)
	}
	if err := tgt.Resize(8, 8); !errors.Is(err, ErrDestroyed) {
		t.Errorf("resize after destroy = %v, want ErrDestroyed", err)
	}
}

func TestGPUPlatformRequiresDrawer(t *testing.T) {
	p := NewGPUPlatform(sharedDevice{}, nil, nil)
	if _, err := p.CreateTarget(CreateOptions{Width: 4, Height: 4}); !errors.Is(err, ErrNoPresenter) {
		t.Errorf("error = %v, want ErrNoPresenter", err)
	}
}
