// Package display defines the editor-authored display list: the ordered
// drawing instructions the editor core emits for one window, tagged with a
// monotonically increasing generation number.
//
// A List is immutable once handed to the scene builder. A newer generation
// for the same window supersedes an older one; lists are never merged.
package display

import (
	"fmt"
	"image"
)

// WindowID identifies one on-screen editor window.
type WindowID uint64

// Color is a straight-alpha RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Opaque returns c with full alpha.
func (c Color) Opaque() Color {
	c.A = 0xFF
	return c
}

// Rect is an axis-aligned rectangle in window pixel coordinates.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Intersect returns the intersection of r and o.
// The result is empty if the rectangles do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.X+r.W, o.X+o.W)
	y1 := min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Contains reports whether the point (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Instr is one drawing instruction in a display list.
//
// The concrete types are TextRun, SolidFill, Cursor, Fringe, Image,
// PushClip and PopClip.
type Instr interface {
	isInstr()
}

// TextRun draws a run of characters on a common baseline.
// Glyphs are positioned left to right using per-glyph advance widths
// resolved through the glyph cache; the run itself carries no shaping
// information.
type TextRun struct {
	// FontID identifies the font in the glyph source table.
	FontID uint64

	// SizePx is the font size in device pixels.
	SizePx float64

	// Runes are the characters of the run, in visual order.
	Runes []rune

	// X, Y is the baseline origin of the first glyph.
	X, Y float64

	// FG is the foreground (glyph) color.
	FG Color
}

// SolidFill fills a rectangle with a single color.
// The editor uses these for face backgrounds, mode lines and dividers.
type SolidFill struct {
	Rect  Rect
	Color Color
}

// CursorKind selects the cursor shape.
type CursorKind int

const (
	// CursorBlock is a filled box covering the glyph cell.
	CursorBlock CursorKind = iota

	// CursorBar is a thin vertical bar at the left edge of the cell.
	CursorBar

	// CursorUnderline is a thin strip along the bottom of the cell.
	CursorUnderline

	// CursorHollowBox is an unfilled box outline, used for
	// unfocused windows.
	CursorHollowBox
)

// String returns the cursor kind name.
func (k CursorKind) String() string {
	switch k {
	case CursorBlock:
		return "Block"
	case CursorBar:
		return "Bar"
	case CursorUnderline:
		return "Underline"
	case CursorHollowBox:
		return "HollowBox"
	default:
		return "Unknown"
	}
}

// Cursor draws a text cursor over the glyph cell described by Rect.
type Cursor struct {
	Kind CursorKind
	Rect Rect

	// Thickness is the bar or underline thickness in pixels.
	// Zero means the default of 2.
	Thickness int

	Color Color
}

// FringeSide selects which window fringe a bitmap belongs to.
type FringeSide int

const (
	// FringeLeft is the fringe on the left window edge.
	FringeLeft FringeSide = iota

	// FringeRight is the fringe on the right window edge.
	FringeRight
)

// Fringe draws a fringe bitmap (truncation arrow, continuation marker)
// inside the fringe area described by Rect. The bitmap is identified by
// ID and looked up in the built-in bitmap table during scene building.
type Fringe struct {
	Side FringeSide
	ID   uint32
	Rect Rect
	FG   Color
	BG   Color
}

// Image draws an already-decoded pixel buffer. Image decoding is owned
// by an external collaborator; the display list only carries pixels.
type Image struct {
	// Pixels is the decoded RGBA buffer.
	Pixels *image.RGBA

	// Dest is the destination rectangle in window coordinates.
	// The image is drawn at its natural size anchored at Dest's
	// origin and clipped to Dest.
	Dest Rect
}

// PushClip begins a clip region. Instructions up to the matching PopClip
// inherit the intersection of this rectangle with the enclosing clip.
type PushClip struct {
	Rect Rect
}

// PopClip ends the innermost clip region.
type PopClip struct{}

func (TextRun) isInstr()   {}
func (SolidFill) isInstr() {}
func (Cursor) isInstr()    {}
func (Fringe) isInstr()    {}
func (Image) isInstr()     {}
func (PushClip) isInstr()  {}
func (PopClip) isInstr()   {}

// List is one generation of display instructions for one window.
// It must not be modified after being handed to the bridge.
type List struct {
	// Window is the target window.
	Window WindowID

	// Generation is the monotonically increasing version tag for this
	// window's display stream.
	Generation uint64

	// Instrs are the instructions in paint order.
	Instrs []Instr
}

// MalformedError describes a structurally invalid instruction.
// The scene builder skips the offending instruction, emits a diagnostic
// and keeps building the rest of the scene.
type MalformedError struct {
	// Index is the instruction's position in the list.
	Index int

	// Reason describes the fault.
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("display: malformed instruction %d: %s", e.Index, e.Reason)
}

// Validate checks the list for structural faults without mutating it.
// It returns the first fault found, or nil. The scene builder performs
// the same checks instruction by instruction, so calling Validate is
// optional; it exists for editor-side assertions.
func (l *List) Validate() error {
	depth := 0
	for i, in := range l.Instrs {
		switch v := in.(type) {
		case TextRun:
			if len(v.Runes) == 0 {
				return &MalformedError{Index: i, Reason: "empty text run"}
			}
			if v.SizePx <= 0 {
				return &MalformedError{Index: i, Reason: "non-positive font size"}
			}
		case SolidFill:
			if v.Rect.Empty() {
				return &MalformedError{Index: i, Reason: "empty fill rect"}
			}
		case Cursor:
			if v.Rect.Empty() {
				return &MalformedError{Index: i, Reason: "empty cursor rect"}
			}
		case Image:
			if v.Pixels == nil {
				return &MalformedError{Index: i, Reason: "nil image pixels"}
			}
		case PushClip:
			depth++
		case PopClip:
			if depth == 0 {
				return &MalformedError{Index: i, Reason: "PopClip without matching PushClip"}
			}
			depth--
		}
	}
	if depth != 0 {
		return &MalformedError{Index: len(l.Instrs), Reason: "unclosed clip region"}
	}
	return nil
}
