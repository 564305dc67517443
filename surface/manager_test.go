package surface

import (
	"errors"
	"testing"

	"github.com/gogpu/framebridge/display"
	"github.com/gogpu/framebridge/scene"
)

// fakePlatform counts target creations and can fail the first n of them.
type fakePlatform struct {
	failCreates int
	creates     int
	last        *fakeTarget
}

func (p *fakePlatform) Name() string { return "fake" }

func (p *fakePlatform) CreateTarget(opts CreateOptions) (Target, error) {
	p.creates++
	if p.failCreates > 0 {
		p.failCreates--
		return nil, errors.New("fake: creation refused")
	}
	p.last = &fakeTarget{width: opts.Width, height: opts.Height}
	return p.last, nil
}

type fakeTarget struct {
	width, height int
	presents      int
	lastFrame     *Frame
	presentErrs   int
	resizeErr     error
	destroyed     bool
}

func (t *fakeTarget) Resize(width, height int) error {
	if t.resizeErr != nil {
		return t.resizeErr
	}
	t.width, t.height = width, height
	return nil
}

func (t *fakeTarget) Present(f *Frame) error {
	if t.presentErrs > 0 {
		t.presentErrs--
		return ErrLost
	}
	t.presents++
	t.lastFrame = f
	f.Retire()
	return nil
}

func (t *fakeTarget) Destroy() { t.destroyed = true }

func emptyScene(w display.WindowID) *scene.Scene {
	return &scene.Scene{Window: w, Clips: []display.Rect{{W: 1, H: 1}}}
}

func newTestManager(t *testing.T, p Platform, w, h int) *Manager {
	t.Helper()
	m, err := NewManager(p, nil, DefaultManagerConfig(), w, h, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestManagerFirstPresentCreatesTarget(t *testing.T) {
	p := &fakePlatform{}
	m := newTestManager(t, p, 800, 600)

	if got := m.State(); got != StateUninitialized {
		t.Fatalf("initial state = %v, want Uninitialized", got)
	}

	presented := false
	if err := m.Present(emptyScene(1), func() { presented = true }); err != nil {
		t.Fatal(err)
	}
	if got := m.State(); got != StateReady {
		t.Errorf("state after present = %v, want Ready", got)
	}
	if !presented {
		t.Error("presented callback did not fire")
	}
	if p.creates != 1 {
		t.Errorf("target creations = %d, want 1", p.creates)
	}
	if w, h := m.Size(); w != 800 || h != 600 {
		t.Errorf("size = %dx%d, want 800x600", w, h)
	}

	// A second present stays Ready without recreating.
	if err := m.Present(emptyScene(1), nil); err != nil {
		t.Fatal(err)
	}
	if p.creates != 1 {
		t.Errorf("target creations after second present = %d, want 1", p.creates)
	}
}

func TestManagerResizeInvalidates(t *testing.T) {
	p := &fakePlatform{}
	m := newTestManager(t, p, 800, 600)
	if err := m.Present(emptyScene(1), nil); err != nil {
		t.Fatal(err)
	}

	m.Resize(400, 300, 0)
	if got := m.State(); got != StateInvalidated {
		t.Fatalf("state after resize = %v, want Invalidated", got)
	}

	// The next present adopts the new dimensions before drawing.
	if err := m.Present(emptyScene(1), nil); err != nil {
		t.Fatal(err)
	}
	if w, h := m.Size(); w != 400 || h != 300 {
		t.Errorf("size = %dx%d, want 400x300", w, h)
	}
	if p.last.lastFrame.Width != 400 || p.last.lastFrame.Height != 300 {
		t.Errorf("frame = %dx%d, want 400x300",
			p.last.lastFrame.Width, p.last.lastFrame.Height)
	}
	if got := m.State(); got != StateReady {
		t.Errorf("state after present = %v, want Ready", got)
	}
}

func TestManagerResizeFailureRecreates(t *testing.T) {
	p := &fakePlatform{}
	m := newTestManager(t, p, 100, 100)
	if err := m.Present(emptyScene(1), nil); err != nil {
		t.Fatal(err)
	}
	first := p.last
	first.resizeErr = errors.New("fake: resize unsupported")

	m.Resize(50, 50, 0)
	if err := m.Present(emptyScene(1), nil); err != nil {
		t.Fatal(err)
	}
	if !first.destroyed {
		t.Error("old target should be destroyed after resize failure")
	}
	if p.creates != 2 {
		t.Errorf("target creations = %d, want 2", p.creates)
	}
	if w, h := m.Size(); w != 50 || h != 50 {
		t.Errorf("size = %dx%d, want 50x50", w, h)
	}
}

func TestManagerPresentFailureInvalidates(t *testing.T) {
	p := &fakePlatform{}
	m := newTestManager(t, p, 64, 64)
	if err := m.Present(emptyScene(1), nil); err != nil {
		t.Fatal(err)
	}
	p.last.presentErrs = 1

	err := m.Present(emptyScene(1), nil)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("present error = %v, want ErrNotReady", err)
	}
	if got := m.State(); got != StateInvalidated {
		t.Errorf("state = %v, want Invalidated", got)
	}

	// Retry succeeds once the target accepts presents again.
	if err := m.Present(emptyScene(1), nil); err != nil {
		t.Fatal(err)
	}
	if got := m.State(); got != StateReady {
		t.Errorf("state after retry = %v, want Ready", got)
	}
}

func TestManagerDegradedAfterRepeatedFailures(t *testing.T) {
	p := &fakePlatform{failCreates: 10}
	cfg := DefaultManagerConfig()
	cfg.MaxRecreateAttempts = 3
	m, err := NewManager(p, nil, cfg, 64, 64, 1, 0)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := m.Present(emptyScene(1), nil); !errors.Is(err, ErrNotReady) {
			t.Fatalf("attempt %d: error = %v, want ErrNotReady", i, err)
		}
	}
	// Third consecutive failure crosses the threshold.
	if err := m.Present(emptyScene(1), nil); !errors.Is(err, ErrDegraded) {
		t.Fatalf("error = %v, want ErrDegraded", err)
	}
	if !m.Degraded() {
		t.Error("manager should report degraded")
	}
	// Degraded is sticky.
	if err := m.Present(emptyScene(1), nil); !errors.Is(err, ErrDegraded) {
		t.Errorf("error = %v, want ErrDegraded", err)
	}
}

func TestManagerDestroy(t *testing.T) {
	p := &fakePlatform{}
	m := newTestManager(t, p, 64, 64)
	if err := m.Present(emptyScene(1), nil); err != nil {
		t.Fatal(err)
	}

	m.Destroy()
	if got := m.State(); got != StateDestroyed {
		t.Fatalf("state = %v, want Destroyed", got)
	}
	if !p.last.destroyed {
		t.Error("platform target should be destroyed")
	}
	if err := m.Present(emptyScene(1), nil); !errors.Is(err, ErrDestroyed) {
		t.Errorf("present after destroy = %v, want ErrDestroyed", err)
	}
	m.Destroy() // idempotent
}

func TestManagerRejectsInvalidSize(t *testing.T) {
	if _, err := NewManager(&fakePlatform{}, nil, DefaultManagerConfig(), 0, 600, 1, 0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("error = %v, want ErrInvalidSize", err)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "Uninitialized"},
		{StateReady, "Ready"},
		{StateInvalidated, "Invalidated"},
		{StateDestroyed, "Destroyed"},
		{State(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}
