// Package scene converts editor display lists into renderer-consumable
// scenes: flat, ordered primitive lists with resolved glyph references
// and precomputed clip rectangles.
//
// A Scene is built fresh per display-list generation and never mutated
// in place. Building pins every glyph cache entry the scene references;
// Release unpins them once the scene has been presented or discarded.
package scene

import (
	"image"
	"sync/atomic"

	"github.com/gogpu/framebridge/display"
	"github.com/gogpu/framebridge/glyph"
)

// ClipIndex refers to an entry in Scene.Clips. Index 0 is always the
// window bounds.
type ClipIndex int32

// Prim is one draw primitive. Concrete types are GlyphPrim, RectPrim
// and ImagePrim. Primitives are drawn in slice order.
type Prim interface {
	isPrim()
}

// GlyphPrim draws one cached glyph with its origin on the baseline at
// (X, Y), tinted with FG.
type GlyphPrim struct {
	Key  glyph.Key
	X, Y int
	Clip ClipIndex
	FG   display.Color
}

// RectPrim fills a rectangle with a solid color.
type RectPrim struct {
	Rect  display.Rect
	Clip  ClipIndex
	Color display.Color
}

// ImagePrim draws a decoded image from the scene's image table.
type ImagePrim struct {
	// Image indexes Scene.Images.
	Image int
	Dest  display.Rect
	Clip  ClipIndex
}

func (GlyphPrim) isPrim() {}
func (RectPrim) isPrim()  {}
func (ImagePrim) isPrim() {}

// Scene is the renderer-consumable translation of one display list.
// It is immutable after Build returns.
type Scene struct {
	// Window and Generation identify the display list this scene was
	// built from.
	Window     display.WindowID
	Generation uint64

	// Bounds is the window rectangle the scene was built for.
	Bounds display.Rect

	// Prims are the draw primitives in paint order.
	Prims []Prim

	// Clips is the clip rectangle table referenced by primitives.
	// Clips[0] is the window bounds.
	Clips []display.Rect

	// Images is the decoded image table referenced by ImagePrims.
	Images []*image.RGBA

	// Malformed records instructions that were skipped during building.
	Malformed []display.MalformedError

	// pinned are the distinct glyph entries this scene references.
	pinned []*glyph.Entry

	released atomic.Bool
}

// Pinned returns the distinct glyph cache entries referenced by the
// scene. The slice must not be modified.
func (s *Scene) Pinned() []*glyph.Entry {
	return s.pinned
}

// Release retires the scene, unpinning every glyph entry it references.
// A released entry becomes evictable again. Release is idempotent and
// safe to call from the presentation completion callback.
func (s *Scene) Release() {
	if s == nil || !s.released.CompareAndSwap(false, true) {
		return
	}
	for _, e := range s.pinned {
		e.Unpin()
	}
}

// Released reports whether the scene has been retired.
func (s *Scene) Released() bool {
	return s.released.Load()
}
