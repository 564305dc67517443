package surface

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/framebridge/internal/logx"
)

// GPUName is the registry name of the GPU platform.
const GPUName = "gpu"

// textureDestroyer matches the Destroy method of host texture types.
type textureDestroyer interface {
	Destroy()
}

// GPUPlatform presents composed frames through a GPU host: frames are
// uploaded to a host texture and drawn via gpucontext.TextureDrawer.
//
// The platform prefers sharing the host application's device through a
// gpucontext.DeviceProvider. When no provider is given it brings up its
// own wgpu device, which also validates GPU availability at startup.
type GPUPlatform struct {
	provider gpucontext.DeviceProvider
	drawer   gpucontext.TextureDrawer
	log      *slog.Logger

	mu  sync.Mutex
	dev *Device
}

// NewGPUPlatform creates a GPU platform. provider may be nil; drawer is
// required, it is the host's presentation hook. The platform is not
// registered automatically; call Register if the application selects
// platforms by name.
func NewGPUPlatform(provider gpucontext.DeviceProvider, drawer gpucontext.TextureDrawer, log *slog.Logger) *GPUPlatform {
	if log == nil {
		log = logx.Discard()
	}
	return &GPUPlatform{
		provider: provider,
		drawer:   drawer,
		log:      log,
	}
}

// Name implements Platform.Name.
func (p *GPUPlatform) Name() string {
	return GPUName
}

// CreateTarget implements Platform.CreateTarget.
func (p *GPUPlatform) CreateTarget(opts CreateOptions) (Target, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, ErrInvalidSize
	}
	if p.drawer == nil {
		return nil, ErrNoPresenter
	}
	if p.provider == nil {
		if err := p.ensureDevice(); err != nil {
			return nil, err
		}
	}
	return &gpuTarget{platform: p, width: opts.Width, height: opts.Height}, nil
}

// Close releases the platform's self-owned device, if any.
func (p *GPUPlatform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dev == nil {
		return nil
	}
	err := p.dev.Close()
	p.dev = nil
	return err
}

// ensureDevice brings up a standalone wgpu device once.
func (p *GPUPlatform) ensureDevice() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dev != nil {
		return nil
	}
	dev, err := OpenDevice("framebridge-surface", p.log)
	if err != nil {
		return err
	}
	p.dev = dev
	return nil
}

// gpuTarget is one window's GPU-presentable target. The frame pixels are
// uploaded into a host texture that is recreated on resize.
type gpuTarget struct {
	platform      *GPUPlatform
	width, height int
	texture       gpucontext.Texture
	destroyed     bool
}

// Resize implements Target.Resize. The texture is dropped and recreated
// at the new size on the next present.
func (t *gpuTarget) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	if t.destroyed {
		return ErrDestroyed
	}
	t.dropTexture()
	t.width, t.height = width, height
	return nil
}

// Present implements Target.Present. Upload failures are reported as
// ErrLost so the manager recreates the target.
func (t *gpuTarget) Present(f *Frame) error {
	if t.destroyed {
		return ErrLost
	}
	if f.Width != t.width || f.Height != t.height {
		return fmt.Errorf("%w: frame %dx%d target %dx%d", ErrLost, f.Width, f.Height, t.width, t.height)
	}

	drawer := t.platform.drawer

	if t.texture == nil {
		creator := drawer.TextureCreator()
		if creator == nil {
			return fmt.Errorf("%w: drawer has no texture creator", ErrLost)
		}
		tex, err := creator.NewTextureFromRGBA(f.Width, f.Height, f.Pixels)
		if err != nil {
			return fmt.Errorf("%w: texture creation: %w", ErrLost, err)
		}
		t.texture = tex
	} else if updater, ok := t.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(f.Pixels); err != nil {
			t.dropTexture()
			return fmt.Errorf("%w: texture update: %w", ErrLost, err)
		}
	}

	if err := drawer.DrawTexture(t.texture, 0, 0); err != nil {
		return fmt.Errorf("%w: draw: %w", ErrLost, err)
	}

	// The host draw call has consumed the frame.
	f.Retire()
	return nil
}

// Destroy implements Target.Destroy.
func (t *gpuTarget) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.dropTexture()
}

func (t *gpuTarget) dropTexture() {
	if t.texture == nil {
		return
	}
	if d, ok := t.texture.(textureDestroyer); ok {
		d.Destroy()
	}
	t.texture = nil
}
