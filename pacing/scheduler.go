package pacing

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/framebridge/display"
	"github.com/gogpu/framebridge/internal/logx"
	"github.com/gogpu/framebridge/surface"
)

// ErrUnknownWindow is returned when a display list targets a window the
// scheduler has never seen or has already detached.
var ErrUnknownWindow = errors.New("pacing: unknown window")

// Pipeline turns one display list into a presented frame. done is called
// exactly once with the outcome, possibly on another goroutine once the
// frame has actually completed.
type Pipeline interface {
	Render(list *display.List, done func(error))
}

// Config holds configuration for a Scheduler.
type Config struct {
	// MaxDeferredTicks is the number of consecutive ticks a window's
	// frame may be deferred (surface not ready) before OnStalled fires.
	// Default: 120
	MaxDeferredTicks int

	// OnStalled is invoked outside scheduler locks when a window's frame
	// has been deferred MaxDeferredTicks times in a row. Optional.
	OnStalled func(display.WindowID)

	// Logger receives scheduling diagnostics. Default: silent
	Logger *slog.Logger
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{MaxDeferredTicks: 120}
}

// Stats holds scheduler counters. All fields are updated atomically.
type Stats struct {
	// Presented counts frames that completed presentation.
	Presented atomic.Uint64
	// Coalesced counts display lists superseded before they were built.
	Coalesced atomic.Uint64
	// Deferred counts ticks on which a frame was deferred.
	Deferred atomic.Uint64
	// Dropped counts lists rejected as stale (generation not newer than
	// the last presented one).
	Dropped atomic.Uint64
}

// windowSlot is the per-window scheduling state.
type windowSlot struct {
	pipeline Pipeline

	// pending is the newest display list waiting for a tick. Submitting
	// a newer generation replaces it; the replaced list is never built.
	pending *display.List

	inFlight    bool
	inFlightGen uint64

	lastPresented uint64
	hasPresented  bool

	deferred int
	closed   bool
}

// Scheduler paces per-window frame production against a tick source.
//
// Each window has a single pending slot and at most one in-flight frame.
// Redraw requests arriving faster than ticks coalesce in the pending
// slot; only the newest generation is ever built. A frame rejected with
// surface.ErrNotReady stays pending and is retried on the next tick
// unless a newer generation has replaced it.
//
// Scheduler is safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	src     TickSource
	cfg     Config
	log     *slog.Logger
	windows map[display.WindowID]*windowSlot

	stats Stats

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewScheduler creates a scheduler driven by src. The scheduler takes
// ownership of src and closes it on Close. Call Start to begin pacing.
func NewScheduler(src TickSource, cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.MaxDeferredTicks <= 0 {
		cfg.MaxDeferredTicks = def.MaxDeferredTicks
	}
	log := cfg.Logger
	if log == nil {
		log = logx.Discard()
	}
	return &Scheduler{
		src:     src,
		cfg:     cfg,
		log:     log,
		windows: make(map[display.WindowID]*windowSlot),
		done:    make(chan struct{}),
	}
}

// Start launches the pacing loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Attach registers a window and the pipeline that renders its frames.
func (s *Scheduler) Attach(id display.WindowID, p Pipeline) {
	s.mu.Lock()
	s.windows[id] = &windowSlot{pipeline: p}
	s.mu.Unlock()
}

// Detach removes a window. The pending list, if any, is discarded; an
// in-flight frame's completion is ignored.
func (s *Scheduler) Detach(id display.WindowID) {
	s.mu.Lock()
	if slot, ok := s.windows[id]; ok {
		slot.closed = true
		slot.pending = nil
		delete(s.windows, id)
	}
	s.mu.Unlock()
}

// Submit queues a display list for the window's next tick. Submit never
// blocks and never builds anything itself.
//
// A list whose generation is not newer than the last presented one, or
// than the currently pending or in-flight one, is dropped: presentation
// order is monotonic per window.
func (s *Scheduler) Submit(list *display.List) error {
	s.mu.Lock()
	slot, ok := s.windows[list.Window]
	if !ok || slot.closed {
		s.mu.Unlock()
		return ErrUnknownWindow
	}

	if slot.hasPresented && list.Generation <= slot.lastPresented {
		s.mu.Unlock()
		s.stats.Dropped.Add(1)
		return nil
	}
	if slot.inFlight && list.Generation <= slot.inFlightGen {
		s.mu.Unlock()
		s.stats.Dropped.Add(1)
		return nil
	}
	if slot.pending != nil {
		if list.Generation <= slot.pending.Generation {
			s.mu.Unlock()
			s.stats.Dropped.Add(1)
			return nil
		}
		// The older pending list is superseded without ever being built.
		s.stats.Coalesced.Add(1)
	}
	slot.pending = list
	s.mu.Unlock()
	return nil
}

// Flush runs one scheduling round immediately, without waiting for a
// tick. Useful for tests and for draining after a burst of submissions.
func (s *Scheduler) Flush() {
	s.tick()
}

// Close stops the pacing loop and the tick source. In-flight frames are
// left to complete; their outcomes are ignored.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.src.Close()
	})
	s.wg.Wait()
}

// StatsSnapshot returns current counter values.
func (s *Scheduler) StatsSnapshot() (presented, coalesced, deferred, dropped uint64) {
	return s.stats.Presented.Load(), s.stats.Coalesced.Load(),
		s.stats.Deferred.Load(), s.stats.Dropped.Load()
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.src.Ticks():
			s.tick()
		}
	}
}

// dispatch is one window's work for a tick.
type dispatch struct {
	id       display.WindowID
	pipeline Pipeline
	list     *display.List
}

// tick promotes each window's pending list to in-flight and renders it.
// Rendering happens outside the scheduler lock.
func (s *Scheduler) tick() {
	s.mu.Lock()
	var work []dispatch
	for id, slot := range s.windows {
		if slot.closed || slot.inFlight || slot.pending == nil {
			continue
		}
		list := slot.pending
		slot.pending = nil
		slot.inFlight = true
		slot.inFlightGen = list.Generation
		work = append(work, dispatch{id: id, pipeline: slot.pipeline, list: list})
	}
	s.mu.Unlock()

	for _, d := range work {
		d := d
		d.pipeline.Render(d.list, func(err error) {
			s.completed(d.id, d.list, err)
		})
	}
}

// completed records the outcome of an in-flight frame.
func (s *Scheduler) completed(id display.WindowID, list *display.List, err error) {
	var stalled func(display.WindowID)

	s.mu.Lock()
	slot, ok := s.windows[id]
	if !ok || slot.closed {
		s.mu.Unlock()
		return
	}
	slot.inFlight = false

	switch {
	case err == nil:
		slot.lastPresented = list.Generation
		slot.hasPresented = true
		slot.deferred = 0
		s.stats.Presented.Add(1)

	case errors.Is(err, surface.ErrNotReady):
		// Retry the same list next tick unless something newer arrived
		// while it was in flight.
		if slot.pending == nil {
			slot.pending = list
		} else {
			s.stats.Coalesced.Add(1)
		}
		slot.deferred++
		s.stats.Deferred.Add(1)
		if slot.deferred >= s.cfg.MaxDeferredTicks {
			slot.deferred = 0
			stalled = s.cfg.OnStalled
		}

	default:
		// Unrecoverable for this frame (degraded surface, destroyed
		// window). The list is dropped; a future submission may still
		// succeed if the condition clears.
		slot.deferred = 0
		s.log.Warn("frame dropped", "window", uint64(id),
			"generation", list.Generation, "error", err)
	}
	s.mu.Unlock()

	if stalled != nil {
		stalled(id)
	}
}
