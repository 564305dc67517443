// Package pacing paces frame submission against vsync or a timer
// fallback and coalesces redundant redraw requests: at most one build
// and present is in flight per window per tick, and a newer display-list
// generation replaces a pending older one, which is never built.
package pacing

import (
	"sync"
	"time"
)

// DefaultFrameInterval is the timer fallback interval (~60 Hz).
const DefaultFrameInterval = 16667 * time.Microsecond

// TickSource delivers frame-pacing signals.
type TickSource interface {
	// Ticks returns the pacing channel. One tick allows one round of
	// frame submissions.
	Ticks() <-chan time.Time

	// Close stops the source. The channel may stay open but delivers
	// no further ticks.
	Close()
}

// TimerSource is the timer fallback used when the platform provides no
// vsync signal.
type TimerSource struct {
	ticker *time.Ticker
}

// NewTimerSource creates a timer-driven tick source. A non-positive
// interval selects DefaultFrameInterval.
func NewTimerSource(interval time.Duration) *TimerSource {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TimerSource{ticker: time.NewTicker(interval)}
}

// Ticks implements TickSource.Ticks.
func (s *TimerSource) Ticks() <-chan time.Time {
	return s.ticker.C
}

// Close implements TickSource.Close.
func (s *TimerSource) Close() {
	s.ticker.Stop()
}

// VsyncSource adapts a platform vsync callback to a TickSource.
// The platform calls Signal once per display refresh; missed signals
// collapse (the channel holds at most one pending tick).
type VsyncSource struct {
	ch   chan time.Time
	once sync.Once
	done chan struct{}
}

// NewVsyncSource creates an externally driven tick source.
func NewVsyncSource() *VsyncSource {
	return &VsyncSource{
		ch:   make(chan time.Time, 1),
		done: make(chan struct{}),
	}
}

// Signal delivers one vsync tick. It never blocks; if the previous tick
// has not been consumed the new one is dropped.
func (s *VsyncSource) Signal() {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.ch <- time.Now():
	default:
	}
}

// Ticks implements TickSource.Ticks.
func (s *VsyncSource) Ticks() <-chan time.Time {
	return s.ch
}

// Close implements TickSource.Close.
func (s *VsyncSource) Close() {
	s.once.Do(func() { close(s.done) })
}
