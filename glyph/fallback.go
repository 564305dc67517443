package glyph

import (
	"image"
	"math"
)

// fallbackMask builds the "notdef" replacement glyph: a hollow box scaled
// to the font size, drawn when a glyph has no outline or rasterization
// fails. The mask depends only on the size, so fallback output is as
// deterministic as regular glyphs.
func fallbackMask(sizePx float64) *Mask {
	w := int(math.Ceil(sizePx * 0.6))
	h := int(math.Ceil(sizePx * 0.8))
	if w < 3 {
		w = 3
	}
	if h < 3 {
		h = 3
	}
	border := int(math.Round(sizePx / 16))
	if border < 1 {
		border = 1
	}

	// Box sits on the baseline: rows -h..0, columns 0..w.
	a := image.NewAlpha(image.Rect(0, -h, w, 0))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			onEdge := x < border || x >= w-border || y < border || y >= h-border
			if onEdge {
				a.Pix[y*a.Stride+x] = 0xFF
			}
		}
	}
	return &Mask{
		Alpha:   a,
		Advance: float64(w + 1),
	}
}
