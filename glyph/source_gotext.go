package glyph

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
)

// GoTextSource is a Source that resolves glyph indices through
// go-text/typesetting's HarfBuzz implementation, picking up cmap
// coverage (format 14 variation selectors, OpenType substitutions)
// that plain sfnt lookup misses for some fonts. Advance widths and
// rasterization are delegated to an embedded XImageSource over the
// same font data, so metrics and masks stay bit-identical with the
// default source.
//
// GoTextSource is safe for concurrent use. font.Font is read-only and
// shared; font.Face and shaping.HarfbuzzShaper are not concurrent-safe
// and are pooled.
type GoTextSource struct {
	font   *font.Font
	raster *XImageSource

	// facePool pools font.Face instances; font.NewFace is cheap but
	// Face carries mutable glyph caches.
	facePool sync.Pool

	// shaperPool pools HarfbuzzShaper instances, which have internal
	// mutable buffers.
	shaperPool sync.Pool
}

// NewGoTextSource parses TTF or OTF font data.
func NewGoTextSource(data []byte) (*GoTextSource, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("glyph: failed to parse font: %w", err)
	}
	raster, err := NewXImageSource(data)
	if err != nil {
		return nil, err
	}
	s := &GoTextSource{
		font:   face.Font,
		raster: raster,
	}
	s.facePool = sync.Pool{
		New: func() any { return font.NewFace(s.font) },
	}
	s.shaperPool = sync.Pool{
		New: func() any { return &shaping.HarfbuzzShaper{} },
	}
	return s, nil
}

// GlyphIndex implements Source.GlyphIndex.
func (s *GoTextSource) GlyphIndex(r rune) (GID, bool) {
	g, ok := s.shapeRune(r, 12) // size is irrelevant for coverage
	if !ok || g.GlyphID == 0 {
		return 0, false
	}
	return GID(g.GlyphID), true
}

// Advance implements Source.Advance. It delegates to the embedded
// raster source so advances always agree with the rasterized masks.
func (s *GoTextSource) Advance(gid GID, sizePx float64) float64 {
	return s.raster.Advance(gid, sizePx)
}

// Rasterize implements Source.Rasterize.
func (s *GoTextSource) Rasterize(gid GID, sizePx, offset float64) (*Mask, error) {
	return s.raster.Rasterize(gid, sizePx, offset)
}

// shapeRune shapes a single rune and returns its output glyph.
func (s *GoTextSource) shapeRune(r rune, sizePx float64) (shaping.Glyph, bool) {
	face := s.facePool.Get().(*font.Face)
	shaper := s.shaperPool.Get().(*shaping.HarfbuzzShaper)

	input := shaping.Input{
		Text:      []rune{r},
		RunStart:  0,
		RunEnd:    1,
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      floatToFixed(sizePx),
		Script:    language.LookupScript(r),
		Language:  language.NewLanguage("en"),
	}
	out := shaper.Shape(input)

	s.shaperPool.Put(shaper)
	s.facePool.Put(face)

	if len(out.Glyphs) == 0 {
		return shaping.Glyph{}, false
	}
	return out.Glyphs[0], true
}
