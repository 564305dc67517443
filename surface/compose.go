package surface

import (
	"image"

	"github.com/gogpu/framebridge/display"
	"github.com/gogpu/framebridge/glyph"
	"github.com/gogpu/framebridge/scene"
)

// Compose rasterizes a scene into a frame of the given dimensions.
// Primitives are drawn in order, clipped to their clip rectangles and
// alpha-blended over the background color. Glyph coverage is sampled
// from the cache's atlas, so identical scenes compose to bit-identical
// frames.
func Compose(sc *scene.Scene, cache *glyph.Cache, width, height int, bg display.Color) *Frame {
	f := NewFrame(width, height)
	fillRect(f, display.Rect{X: 0, Y: 0, W: width, H: height}, bg.Opaque())

	frameRect := display.Rect{X: 0, Y: 0, W: width, H: height}
	for _, p := range sc.Prims {
		switch v := p.(type) {
		case scene.RectPrim:
			clip := sc.Clips[v.Clip].Intersect(frameRect)
			fillRect(f, v.Rect.Intersect(clip), v.Color)
		case scene.GlyphPrim:
			clip := sc.Clips[v.Clip].Intersect(frameRect)
			e := cache.Resolve(v.Key)
			drawGlyph(f, cache, e, v, clip)
		case scene.ImagePrim:
			clip := sc.Clips[v.Clip].Intersect(frameRect)
			drawImage(f, sc.Images[v.Image], v.Dest, clip)
		}
	}
	return f
}

// fillRect src-over blends a solid color into the frame.
func fillRect(f *Frame, r display.Rect, c display.Color) {
	if r.Empty() || c.A == 0 {
		return
	}
	for y := r.Y; y < r.Y+r.H; y++ {
		off := y*f.Stride + r.X*4
		for x := 0; x < r.W; x++ {
			blend(f.Pixels[off:off+4], c.R, c.G, c.B, c.A)
			off += 4
		}
	}
}

// drawGlyph blends a glyph's coverage mask, tinted with the primitive's
// foreground color, at the glyph origin.
func drawGlyph(f *Frame, cache *glyph.Cache, e *glyph.Entry, p scene.GlyphPrim, clip display.Rect) {
	mask := cache.MaskImage(e)
	if mask == nil {
		return
	}
	mb := mask.Bounds()
	// e.Bounds positions the mask relative to the glyph origin.
	for my := 0; my < e.Bounds.Dy(); my++ {
		fy := p.Y + e.Bounds.Min.Y + my
		srcOff := mask.PixOffset(mb.Min.X, mb.Min.Y+my)
		for mx := 0; mx < e.Bounds.Dx(); mx++ {
			fx := p.X + e.Bounds.Min.X + mx
			cov := mask.Pix[srcOff+mx]
			if cov == 0 || !clip.Contains(fx, fy) {
				continue
			}
			a := uint8(uint16(cov) * uint16(p.FG.A) / 0xFF)
			blend(f.Pixels[fy*f.Stride+fx*4:fy*f.Stride+fx*4+4], p.FG.R, p.FG.G, p.FG.B, a)
		}
	}
}

// drawImage src-over blends a decoded RGBA image anchored at the
// destination origin.
func drawImage(f *Frame, img *image.RGBA, dest, clip display.Rect) {
	if img == nil {
		return
	}
	area := dest.Intersect(clip)
	if area.Empty() {
		return
	}
	ib := img.Bounds()
	for y := area.Y; y < area.Y+area.H; y++ {
		sy := ib.Min.Y + (y - dest.Y)
		if sy >= ib.Max.Y {
			break
		}
		for x := area.X; x < area.X+area.W; x++ {
			sx := ib.Min.X + (x - dest.X)
			if sx >= ib.Max.X {
				break
			}
			so := img.PixOffset(sx, sy)
			blend(f.Pixels[y*f.Stride+x*4:y*f.Stride+x*4+4],
				img.Pix[so], img.Pix[so+1], img.Pix[so+2], img.Pix[so+3])
		}
	}
}

// blend src-over composites one straight-alpha pixel into dst.
func blend(dst []byte, r, g, b, a uint8) {
	switch a {
	case 0:
		return
	case 0xFF:
		dst[0], dst[1], dst[2], dst[3] = r, g, b, 0xFF
	default:
		inv := uint16(0xFF - a)
		dst[0] = uint8((uint16(r)*uint16(a) + uint16(dst[0])*inv) / 0xFF)
		dst[1] = uint8((uint16(g)*uint16(a) + uint16(dst[1])*inv) / 0xFF)
		dst[2] = uint8((uint16(b)*uint16(a) + uint16(dst[2])*inv) / 0xFF)
		dst[3] = uint8(uint16(a) + uint16(dst[3])*inv/0xFF)
	}
}
