package surface

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/framebridge/display"
	"github.com/gogpu/framebridge/glyph"
	"github.com/gogpu/framebridge/internal/logx"
	"github.com/gogpu/framebridge/scene"
)

// State is the lifecycle state of a surface.
type State int32

const (
	// StateUninitialized means no platform target exists yet.
	StateUninitialized State = iota

	// StateReady means the target exists at the current size and
	// presents are valid.
	StateReady

	// StateInvalidated means the target is stale (resize or platform
	// loss) and must be recreated before the next present.
	StateInvalidated

	// StateDestroyed means the window was closed; the surface is gone
	// for good.
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateInvalidated:
		return "Invalidated"
	case StateDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// ManagerConfig holds configuration for a surface Manager.
type ManagerConfig struct {
	// BufferCount is the requested back-buffer count. Default: 2
	BufferCount int

	// PresentMode is the pacing mode requested from the platform.
	PresentMode PresentMode

	// Background is the color the frame is cleared to before the scene
	// is composed. Default: opaque white
	Background display.Color

	// MaxRecreateAttempts is the number of consecutive target creation
	// failures tolerated before the surface is reported degraded.
	// Default: 3
	MaxRecreateAttempts int

	// Logger receives surface lifecycle diagnostics. Default: silent
	Logger *slog.Logger
}

// DefaultManagerConfig returns the default manager configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BufferCount:         2,
		PresentMode:         PresentModeFifo,
		Background:          display.Color{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		MaxRecreateAttempts: 3,
	}
}

// Manager owns one window's presentable surface and its lifecycle.
//
// A resize or platform loss marks the surface Invalidated immediately,
// which makes stale-size presents impossible; the target is recreated
// lazily on the next present attempt, so a drag-resize does not recreate
// the surface on every intermediate tick.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	platform Platform
	cache    *glyph.Cache
	cfg      ManagerConfig
	log      *slog.Logger

	target Target
	state  State

	// width and height are the dimensions of the live target;
	// pendingW and pendingH the most recently requested size.
	width, height      int
	pendingW, pendingH int
	scale              float64
	native             uintptr

	failures int
	degraded bool
}

// NewManager creates a surface manager for one window. The target is not
// created until the first present attempt.
func NewManager(platform Platform, cache *glyph.Cache, cfg ManagerConfig, width, height int, scale float64, native uintptr) (*Manager, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	def := DefaultManagerConfig()
	if cfg.BufferCount <= 0 {
		cfg.BufferCount = def.BufferCount
	}
	if cfg.MaxRecreateAttempts <= 0 {
		cfg.MaxRecreateAttempts = def.MaxRecreateAttempts
	}
	if cfg.Background == (display.Color{}) {
		cfg.Background = def.Background
	}
	log := cfg.Logger
	if log == nil {
		log = logx.Discard()
	}
	if scale <= 0 {
		scale = 1
	}
	return &Manager{
		platform: platform,
		cache:    cache,
		cfg:      cfg,
		log:      log,
		state:    StateUninitialized,
		pendingW: width,
		pendingH: height,
		scale:    scale,
		native:   native,
	}, nil
}

// Present composes the scene and submits it to the platform target.
//
// Present is only valid when the surface is (or can become) Ready: an
// invalidated surface is recreated first, and creation failure yields
// ErrNotReady so the frame scheduler retries next tick. After the
// configured number of consecutive creation failures, Present returns
// ErrDegraded instead.
//
// presented is invoked once the frame has actually been shown or
// discarded, possibly on another goroutine.
func (m *Manager) Present(sc *scene.Scene, presented func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.state == StateDestroyed:
		return ErrDestroyed
	case m.degraded:
		return ErrDegraded
	}

	if m.state != StateReady {
		if err := m.ensureTarget(); err != nil {
			m.failures++
			if m.failures >= m.cfg.MaxRecreateAttempts {
				m.degraded = true
				m.log.Warn("surface degraded",
					"window", uint64(sc.Window), "failures", m.failures)
				return fmt.Errorf("%w: %w", ErrDegraded, err)
			}
			return fmt.Errorf("%w: %w", ErrNotReady, err)
		}
	}
	m.failures = 0

	frame := Compose(sc, m.cache, m.width, m.height, m.cfg.Background)
	if presented != nil {
		frame.OnRetire(presented)
	}
	if err := m.target.Present(frame); err != nil {
		m.state = StateInvalidated
		m.log.Warn("present failed, surface invalidated",
			"window", uint64(sc.Window), "error", err)
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return nil
}

// Resize records a new surface size and invalidates the surface so no
// stale-size present can succeed. The target itself is recreated or
// resized lazily on the next present attempt.
func (m *Manager) Resize(width, height int, scale float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.pendingW, m.pendingH = width, height
	if scale > 0 {
		m.scale = scale
	}
	if m.state == StateReady {
		m.state = StateInvalidated
	}
}

// Invalidate records a platform-reported surface loss.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateReady {
		m.state = StateInvalidated
	}
}

// Destroy tears the surface down synchronously. Any state may transition
// to Destroyed.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	if m.target != nil {
		m.target.Destroy()
		m.target = nil
	}
	m.state = StateDestroyed
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Size returns the dimensions of the live target. During an invalidated
// window this is the stale size; the pending size takes effect on the
// next successful present.
func (m *Manager) Size() (width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

// Scale returns the current DPI scale factor.
func (m *Manager) Scale() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scale
}

// Degraded reports whether the surface gave up after repeated creation
// failures.
func (m *Manager) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// ensureTarget creates or resizes the platform target to the pending
// size. Caller holds m.mu.
func (m *Manager) ensureTarget() error {
	if m.target == nil {
		t, err := m.platform.CreateTarget(CreateOptions{
			Width:        m.pendingW,
			Height:       m.pendingH,
			Scale:        m.scale,
			BufferCount:  m.cfg.BufferCount,
			PresentMode:  m.cfg.PresentMode,
			NativeHandle: m.native,
		})
		if err != nil {
			return err
		}
		m.target = t
		m.width, m.height = m.pendingW, m.pendingH
		m.state = StateReady
		m.log.Info("surface created",
			"platform", m.platform.Name(),
			"width", m.width, "height", m.height, "scale", m.scale)
		return nil
	}

	if m.pendingW != m.width || m.pendingH != m.height {
		if err := m.target.Resize(m.pendingW, m.pendingH); err != nil {
			// Resize-in-place failed: fall back to full recreation.
			m.target.Destroy()
			m.target = nil
			return m.ensureTarget()
		}
		m.width, m.height = m.pendingW, m.pendingH
	}
	m.state = StateReady
	return nil
}
