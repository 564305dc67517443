// Package glyph rasterizes and caches glyph images for the frame bridge.
//
// Glyphs are keyed by font identity, size in device pixels, glyph index
// and subpixel bucket. Two resolves with identical keys yield bit-identical
// raster output. Entries live in a bounded texture atlas and are evicted
// least-recently-used, except while pinned by an in-flight scene.
package glyph

// GID is a glyph index within a font.
type GID uint16

// Key uniquely identifies one rasterized glyph image.
type Key struct {
	// FontID identifies the font in the bridge's font table.
	FontID uint64

	// SizePx is the font size in device pixels.
	// Sizes above 32K do not occur in practice.
	SizePx int16

	// Glyph is the glyph index within the font.
	Glyph GID

	// Subpixel is the quantized subpixel position bucket.
	Subpixel uint8
}

// SubpixelMode controls subpixel glyph positioning.
// Fractional pen positions are quantized into buckets; each bucket gets
// its own cache entry, trading cache size for positioning quality.
type SubpixelMode int

const (
	// SubpixelNone snaps glyphs to whole pixels. One cache entry per
	// glyph, lowest quality.
	SubpixelNone SubpixelMode = 0

	// Subpixel4 uses 4 buckets (0.0, 0.25, 0.5, 0.75).
	// Good balance of quality and cache size.
	Subpixel4 SubpixelMode = 4

	// Subpixel10 uses 10 buckets (0.0, 0.1, ..., 0.9).
	// Highest quality, 10x cache entries per glyph.
	Subpixel10 SubpixelMode = 10
)

// String returns the string representation of the subpixel mode.
func (m SubpixelMode) String() string {
	switch m {
	case SubpixelNone:
		return "SubpixelNone"
	case Subpixel4:
		return "Subpixel4"
	case Subpixel10:
		return "Subpixel10"
	default:
		return "Unknown"
	}
}

// Divisions returns the number of subpixel buckets.
// Returns 1 for SubpixelNone.
func (m SubpixelMode) Divisions() int {
	if m <= 0 {
		return 1
	}
	return int(m)
}

// Quantize maps the fractional part of a pen position to a subpixel
// bucket and returns the bucket together with the offset (in pixels)
// the glyph must be rasterized at to land on that bucket.
func (m SubpixelMode) Quantize(frac float64) (bucket uint8, offset float64) {
	if frac < 0 {
		frac += 1
	}
	n := m.Divisions()
	if n <= 1 {
		return 0, 0
	}
	b := int(frac*float64(n) + 0.5)
	if b >= n {
		b = 0
	}
	return uint8(b), float64(b) / float64(n)
}
