package glyph

import (
	"fmt"
	"image"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// XImageSource is a Source backed by golang.org/x/image/font/sfnt.
// Glyph outlines are loaded per glyph index and rasterized with
// golang.org/x/image/vector, so identical inputs always produce
// bit-identical masks.
//
// XImageSource is safe for concurrent use.
type XImageSource struct {
	font *opentype.Font

	// mu protects buf. sfnt.Buffer is not safe for concurrent use.
	mu  sync.Mutex
	buf sfnt.Buffer
}

// NewXImageSource parses TTF or OTF font data.
func NewXImageSource(data []byte) (*XImageSource, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("glyph: failed to parse font: %w", err)
	}
	return &XImageSource{font: f}, nil
}

// GlyphIndex implements Source.GlyphIndex.
func (s *XImageSource) GlyphIndex(r rune) (GID, bool) {
	s.mu.Lock()
	idx, err := s.font.GlyphIndex(&s.buf, r)
	s.mu.Unlock()
	if err != nil || idx == 0 {
		return 0, false
	}
	return GID(idx), true
}

// Advance implements Source.Advance.
func (s *XImageSource) Advance(gid GID, sizePx float64) float64 {
	s.mu.Lock()
	adv, err := s.font.GlyphAdvance(&s.buf, sfnt.GlyphIndex(gid), floatToFixed(sizePx), font.HintingFull)
	s.mu.Unlock()
	if err != nil {
		return 0
	}
	return fixedToFloat(adv)
}

// Rasterize implements Source.Rasterize. The glyph outline is loaded at
// the requested size, shifted right by offset pixels, and filled into an
// alpha mask whose rectangle is positioned relative to the glyph origin
// on the baseline.
func (s *XImageSource) Rasterize(gid GID, sizePx, offset float64) (*Mask, error) {
	s.mu.Lock()
	segs, err := s.font.LoadGlyph(&s.buf, sfnt.GlyphIndex(gid), floatToFixed(sizePx), nil)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: gid %d", ErrNoOutline, gid)
	}
	adv, advErr := s.font.GlyphAdvance(&s.buf, sfnt.GlyphIndex(gid), floatToFixed(sizePx), font.HintingFull)
	s.mu.Unlock()
	if advErr != nil {
		adv = 0
	}

	if len(segs) == 0 {
		// Whitespace: a valid glyph with no coverage.
		return &Mask{
			Alpha:   image.NewAlpha(image.Rect(0, 0, 0, 0)),
			Advance: fixedToFloat(adv),
		}, nil
	}

	minX, minY, maxX, maxY := segmentBounds(segs)
	minX += offset
	maxX += offset

	x0 := int(math.Floor(minX))
	y0 := int(math.Floor(minY))
	x1 := int(math.Ceil(maxX))
	y1 := int(math.Ceil(maxY))
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: gid %d has degenerate bounds", ErrNoOutline, gid)
	}

	// Fill the outline into the mask, translated so the bounding box
	// origin lands on pixel (0, 0).
	ras := vector.NewRasterizer(w, h)
	dx := float32(offset - float64(x0))
	dy := float32(-y0)
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			ras.MoveTo(fixedPtX(seg.Args[0])+dx, fixedPtY(seg.Args[0])+dy)
		case sfnt.SegmentOpLineTo:
			ras.LineTo(fixedPtX(seg.Args[0])+dx, fixedPtY(seg.Args[0])+dy)
		case sfnt.SegmentOpQuadTo:
			ras.QuadTo(
				fixedPtX(seg.Args[0])+dx, fixedPtY(seg.Args[0])+dy,
				fixedPtX(seg.Args[1])+dx, fixedPtY(seg.Args[1])+dy)
		case sfnt.SegmentOpCubeTo:
			ras.CubeTo(
				fixedPtX(seg.Args[0])+dx, fixedPtY(seg.Args[0])+dy,
				fixedPtX(seg.Args[1])+dx, fixedPtY(seg.Args[1])+dy,
				fixedPtX(seg.Args[2])+dx, fixedPtY(seg.Args[2])+dy)
		}
	}

	mask := image.NewAlpha(image.Rect(x0, y0, x1, y1))
	ras.Draw(mask, mask.Rect, image.Opaque, image.Point{})

	return &Mask{
		Alpha:   mask,
		Advance: fixedToFloat(adv),
	}, nil
}

// segmentBounds computes the outline bounding box in pixels.
func segmentBounds(segs sfnt.Segments) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	argCount := map[sfnt.SegmentOp]int{
		sfnt.SegmentOpMoveTo: 1,
		sfnt.SegmentOpLineTo: 1,
		sfnt.SegmentOpQuadTo: 2,
		sfnt.SegmentOpCubeTo: 3,
	}
	for _, seg := range segs {
		for i := 0; i < argCount[seg.Op]; i++ {
			x := float64(fixedPtX(seg.Args[i]))
			y := float64(fixedPtY(seg.Args[i]))
			minX = math.Min(minX, x)
			minY = math.Min(minY, y)
			maxX = math.Max(maxX, x)
			maxY = math.Max(maxY, y)
		}
	}
	return minX, minY, maxX, maxY
}

// floatToFixed converts pixels to 26.6 fixed point.
func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

// fixedToFloat converts 26.6 fixed point to pixels.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func fixedPtX(p fixed.Point26_6) float32 {
	return float32(p.X) / 64
}

func fixedPtY(p fixed.Point26_6) float32 {
	return float32(p.Y) / 64
}
