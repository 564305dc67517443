package framebridge

import (
	"log/slog"
	"time"

	"github.com/gogpu/framebridge/display"
	"github.com/gogpu/framebridge/glyph"
	"github.com/gogpu/framebridge/pacing"
	"github.com/gogpu/framebridge/surface"
)

// Config holds bridge-wide tuning. The zero value of any field selects
// its default.
type Config struct {
	// Subpixel is the glyph subpixel positioning mode.
	// Default: glyph.Subpixel4
	Subpixel glyph.SubpixelMode

	// GlyphCacheEntries bounds the shared glyph cache.
	// Default: 4096
	GlyphCacheEntries int

	// MaxAtlasBytes bounds total glyph atlas memory.
	// Default: 32 MiB
	MaxAtlasBytes int

	// FrameInterval is the timer-fallback pacing interval, used when no
	// tick source is injected. Default: ~16.6ms (60 Hz)
	FrameInterval time.Duration

	// MaxDeferredTicks bounds how long a frame may wait on a surface
	// that is not ready before the surface is invalidated and recreated
	// from scratch. Default: 120
	MaxDeferredTicks int

	// MaxRecreateAttempts bounds consecutive surface creation failures
	// before a window is reported degraded. Default: 3
	MaxRecreateAttempts int

	// Background is the frame clear color. Default: opaque white
	Background display.Color
}

// DefaultConfig returns the default bridge configuration.
func DefaultConfig() Config {
	return Config{
		Subpixel:            glyph.Subpixel4,
		GlyphCacheEntries:   4096,
		MaxAtlasBytes:       32 << 20,
		FrameInterval:       pacing.DefaultFrameInterval,
		MaxDeferredTicks:    120,
		MaxRecreateAttempts: 3,
		Background:          display.Color{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	}
}

// Option configures a Bridge during creation.
type Option func(*bridgeOptions)

// bridgeOptions holds the injectable collaborators.
type bridgeOptions struct {
	platform surface.Platform
	ticks    pacing.TickSource
	notifier Notifier
	fonts    *glyph.FontTable
	logger   *slog.Logger
}

// WithPlatform selects the surface platform. The default is the
// offscreen platform, which presents into CPU memory; real applications
// inject the platform matching their windowing system, or one built with
// surface.NewGPUPlatform.
func WithPlatform(p surface.Platform) Option {
	return func(o *bridgeOptions) { o.platform = p }
}

// WithTickSource injects the frame-pacing signal, typically a
// pacing.VsyncSource driven by the platform's refresh callback. The
// default is a timer at Config.FrameInterval. The bridge takes ownership
// and closes the source on Close.
func WithTickSource(src pacing.TickSource) Option {
	return func(o *bridgeOptions) { o.ticks = src }
}

// WithNotifier sets the editor-side notification sink.
func WithNotifier(n Notifier) Option {
	return func(o *bridgeOptions) { o.notifier = n }
}

// WithFonts injects a shared font table. The default is a fresh empty
// table, reachable via Bridge.Fonts.
func WithFonts(t *glyph.FontTable) Option {
	return func(o *bridgeOptions) { o.fonts = t }
}

// WithBridgeLogger overrides the package logger for one Bridge.
func WithBridgeLogger(l *slog.Logger) Option {
	return func(o *bridgeOptions) { o.logger = l }
}
