package framebridge

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/framebridge/display"
	"github.com/gogpu/framebridge/glyph"
	"github.com/gogpu/framebridge/pacing"
	"github.com/gogpu/framebridge/scene"
	"github.com/gogpu/framebridge/surface"
)

var (
	// ErrClosed is returned by operations on a closed bridge.
	ErrClosed = errors.New("framebridge: bridge closed")

	// ErrWindowExists is returned when a window ID or native handle is
	// already registered.
	ErrWindowExists = errors.New("framebridge: window already exists")

	// ErrUnknownWindow is returned when no window matches the given ID.
	ErrUnknownWindow = errors.New("framebridge: unknown window")
)

// Bridge ties the display pipeline together: it owns the window table,
// the shared glyph cache, the scene builder, and the frame scheduler.
//
// All methods called from the editor's command context (SubmitDisplayList,
// DispatchNativeEvent) only enqueue state transitions; they never block
// on scene building, composition, or presentation.
//
// Bridge is safe for concurrent use.
type Bridge struct {
	cfg      Config
	platform surface.Platform
	notifier Notifier
	fonts    *glyph.FontTable
	cache    *glyph.Cache
	builder  *scene.Builder
	sched    *pacing.Scheduler
	log      *slog.Logger

	mu       sync.Mutex
	closed   bool
	windows  map[display.WindowID]*Window
	byNative map[uintptr]*Window
}

// NewBridge creates a bridge. With no options it runs headless: frames
// present into CPU memory on the offscreen platform, paced by a timer.
func NewBridge(cfg Config, opts ...Option) (*Bridge, error) {
	def := DefaultConfig()
	if cfg.Subpixel == 0 {
		cfg.Subpixel = def.Subpixel
	}
	if cfg.GlyphCacheEntries <= 0 {
		cfg.GlyphCacheEntries = def.GlyphCacheEntries
	}
	if cfg.MaxAtlasBytes <= 0 {
		cfg.MaxAtlasBytes = def.MaxAtlasBytes
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = def.FrameInterval
	}
	if cfg.MaxDeferredTicks <= 0 {
		cfg.MaxDeferredTicks = def.MaxDeferredTicks
	}
	if cfg.MaxRecreateAttempts <= 0 {
		cfg.MaxRecreateAttempts = def.MaxRecreateAttempts
	}
	if cfg.Background == (display.Color{}) {
		cfg.Background = def.Background
	}

	var o bridgeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.platform == nil {
		p, err := surface.Select(surface.OffscreenName)
		if err != nil {
			return nil, fmt.Errorf("framebridge: no default platform: %w", err)
		}
		o.platform = p
	}
	if o.ticks == nil {
		o.ticks = pacing.NewTimerSource(cfg.FrameInterval)
	}
	if o.notifier == nil {
		o.notifier = nopNotifier{}
	}
	if o.fonts == nil {
		o.fonts = glyph.NewFontTable()
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}

	cache := glyph.NewCache(o.fonts, glyph.Config{
		MaxEntries:    cfg.GlyphCacheEntries,
		MaxAtlasBytes: int64(cfg.MaxAtlasBytes),
		Subpixel:      cfg.Subpixel,
	})

	b := &Bridge{
		cfg:      cfg,
		platform: o.platform,
		notifier: o.notifier,
		fonts:    o.fonts,
		cache:    cache,
		builder:  scene.NewBuilder(cache, scene.WithLogger(log)),
		log:      log,
		windows:  make(map[display.WindowID]*Window),
		byNative: make(map[uintptr]*Window),
	}
	b.sched = pacing.NewScheduler(o.ticks, pacing.Config{
		MaxDeferredTicks: cfg.MaxDeferredTicks,
		OnStalled:        b.onStalled,
		Logger:           log,
	})
	b.sched.Start()
	return b, nil
}

// Fonts returns the shared font table. Registering a font makes it
// available to every window's text runs.
func (b *Bridge) Fonts() *glyph.FontTable { return b.fonts }

// GlyphCache returns the shared glyph cache.
func (b *Bridge) GlyphCache() *glyph.Cache { return b.cache }

// Scheduler returns the frame scheduler.
func (b *Bridge) Scheduler() *pacing.Scheduler { return b.sched }

// CreateWindow registers a window and creates its surface manager. The
// platform target itself is created lazily on the first present.
func (b *Bridge) CreateWindow(id display.WindowID, width, height int, scale float64, native uintptr) (*Window, error) {
	mgr, err := surface.NewManager(b.platform, b.cache, surface.ManagerConfig{
		Background:          b.cfg.Background,
		MaxRecreateAttempts: b.cfg.MaxRecreateAttempts,
		Logger:              b.log,
	}, width, height, scale, native)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	if _, ok := b.windows[id]; ok {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: id %d", ErrWindowExists, uint64(id))
	}
	if native != 0 {
		if _, ok := b.byNative[native]; ok {
			b.mu.Unlock()
			return nil, fmt.Errorf("%w: native %#x", ErrWindowExists, native)
		}
	}
	if scale <= 0 {
		scale = 1
	}
	win := &Window{
		id:      id,
		native:  native,
		state:   WindowCreated,
		width:   width,
		height:  height,
		scale:   scale,
		manager: mgr,
	}
	b.windows[id] = win
	if native != 0 {
		b.byNative[native] = win
	}
	b.mu.Unlock()

	b.sched.Attach(id, &windowPipeline{bridge: b, win: win})
	b.log.Info("window created",
		"window", uint64(id), "width", width, "height", height, "scale", scale)
	return win, nil
}

// Window returns the window with the given ID.
func (b *Bridge) Window(id display.WindowID) (*Window, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	win, ok := b.windows[id]
	return win, ok
}

// SubmitDisplayList queues a display list for its window's next pacing
// tick. It never blocks and never builds anything itself; a list whose
// generation is superseded before the tick is silently discarded.
func (b *Bridge) SubmitDisplayList(list *display.List) error {
	b.mu.Lock()
	closed := b.closed
	_, known := b.windows[list.Window]
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if !known {
		return fmt.Errorf("%w: id %d", ErrUnknownWindow, uint64(list.Window))
	}
	if err := b.sched.Submit(list); err != nil {
		return fmt.Errorf("%w: id %d", ErrUnknownWindow, uint64(list.Window))
	}
	return nil
}

// DispatchNativeEvent translates one platform event. Window events
// become surface state transitions and notifier callbacks; input events
// pass through to the notifier unmodified. Events for unknown handles
// are dropped.
//
// Dispatch never blocks on the render pipeline.
func (b *Bridge) DispatchNativeEvent(ev NativeEvent) {
	b.mu.Lock()
	win, ok := b.byNative[ev.NativeHandle()]
	b.mu.Unlock()
	if !ok {
		b.log.Debug("event for unknown native handle", "native", ev.NativeHandle())
		return
	}

	switch e := ev.(type) {
	case ExposeEvent:
		b.notifier.RedrawNeeded(win.id)

	case ConfigureEvent:
		win.resize(e.Width, e.Height, e.Scale)
		b.notifier.WindowResized(win.id, e.Width, e.Height, win.Scale())
		b.notifier.RedrawNeeded(win.id)

	case SurfaceLostEvent:
		win.manager.Invalidate()
		b.notifier.RedrawNeeded(win.id)

	case CloseRequestEvent:
		b.CloseWindow(win.id)

	default:
		b.notifier.Input(win.id, ev)
	}
}

// CloseWindow tears down a window and its surface synchronously.
// Pending and in-flight frames for the window are cancelled; their
// scenes are released without presentation.
func (b *Bridge) CloseWindow(id display.WindowID) error {
	b.mu.Lock()
	win, ok := b.windows[id]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: id %d", ErrUnknownWindow, uint64(id))
	}
	delete(b.windows, id)
	if win.native != 0 {
		delete(b.byNative, win.native)
	}
	b.mu.Unlock()

	b.sched.Detach(id)
	win.close()
	b.log.Info("window closed", "window", uint64(id))
	b.notifier.WindowClosed(id)
	return nil
}

// Close stops the scheduler and tears down all remaining windows.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	wins := make([]*Window, 0, len(b.windows))
	for _, win := range b.windows {
		wins = append(wins, win)
	}
	b.windows = make(map[display.WindowID]*Window)
	b.byNative = make(map[uintptr]*Window)
	b.mu.Unlock()

	b.sched.Close()
	for _, win := range wins {
		win.close()
	}
	return nil
}

// onStalled fires when a window's frames have been deferred for too many
// consecutive ticks. The surface is invalidated so the next present
// rebuilds it from scratch.
func (b *Bridge) onStalled(id display.WindowID) {
	b.mu.Lock()
	win, ok := b.windows[id]
	b.mu.Unlock()
	if !ok {
		return
	}
	b.log.Warn("window stalled, invalidating surface", "window", uint64(id))
	win.manager.Invalidate()
}

// windowPipeline renders one window's display lists: build the scene,
// compose, present. Implements pacing.Pipeline.
type windowPipeline struct {
	bridge *Bridge
	win    *Window
}

// Render implements pacing.Pipeline.Render. done receives nil only after
// the presented frame has completed (retired by the platform target).
func (p *windowPipeline) Render(list *display.List, done func(error)) {
	sc, err := p.bridge.builder.Build(list, p.win.bounds())
	if err != nil {
		done(err)
		return
	}

	err = p.win.manager.Present(sc, func() {
		sc.Release()
		p.win.presented()
		done(nil)
	})
	if err != nil {
		sc.Release()
		if errors.Is(err, surface.ErrDegraded) {
			p.bridge.notifier.WindowDegraded(p.win.id)
		}
		done(err)
	}
}
