package glyph

import (
	"errors"
	"image"
	"sync"
)

// Sentinel errors for the glyph package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("glyph: empty font data")

	// ErrNoOutline is returned by a Source when a glyph has no outline.
	// The cache recovers by substituting the fallback glyph; callers of
	// Resolve never observe this error.
	ErrNoOutline = errors.New("glyph: no outline for glyph")

	// ErrUnknownFont is returned when a Key references a font ID that
	// was never registered.
	ErrUnknownFont = errors.New("glyph: unknown font id")
)

// Mask is one rasterized glyph image: an alpha coverage mask plus
// positioning metadata.
type Mask struct {
	// Alpha is the coverage mask. The mask rectangle is positioned
	// relative to the glyph origin on the baseline.
	Alpha *image.Alpha

	// Advance is the horizontal advance width in pixels.
	Advance float64
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	if m == nil {
		return nil
	}
	cp := &Mask{Advance: m.Advance}
	if m.Alpha != nil {
		a := image.NewAlpha(m.Alpha.Rect)
		copy(a.Pix, m.Alpha.Pix)
		cp.Alpha = a
	}
	return cp
}

// Source is the external font-rendering collaborator: it maps runes to
// glyph indices, reports advance widths, and rasterizes glyph images.
//
// Implementations must be deterministic: identical inputs yield
// bit-identical masks. Sources must be safe for concurrent use.
type Source interface {
	// GlyphIndex returns the glyph index for a rune.
	// ok is false when the font has no glyph for the rune.
	GlyphIndex(r rune) (gid GID, ok bool)

	// Advance returns the advance width of a glyph in pixels at the
	// given size.
	Advance(gid GID, sizePx float64) float64

	// Rasterize renders a glyph at the given size and subpixel offset
	// (0 <= offset < 1, in pixels). It returns ErrNoOutline when the
	// glyph cannot be rendered.
	Rasterize(gid GID, sizePx, offset float64) (*Mask, error)
}

// FontTable maps font IDs to their Sources. The editor core assigns the
// IDs; the table only resolves them. FontTable is safe for concurrent use.
type FontTable struct {
	mu      sync.RWMutex
	sources map[uint64]Source
}

// NewFontTable creates an empty font table.
func NewFontTable() *FontTable {
	return &FontTable{sources: make(map[uint64]Source)}
}

// Register associates a font ID with a source, replacing any previous
// registration for that ID.
func (t *FontTable) Register(id uint64, src Source) {
	t.mu.Lock()
	t.sources[id] = src
	t.mu.Unlock()
}

// Deregister removes a font ID. Cached entries for the font remain valid
// until evicted; they carry their own raster data.
func (t *FontTable) Deregister(id uint64) {
	t.mu.Lock()
	delete(t.sources, id)
	t.mu.Unlock()
}

// Lookup returns the source for a font ID.
func (t *FontTable) Lookup(id uint64) (Source, bool) {
	t.mu.RLock()
	src, ok := t.sources[id]
	t.mu.RUnlock()
	return src, ok
}

// Len returns the number of registered fonts.
func (t *FontTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sources)
}
