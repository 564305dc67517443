package surface

import (
	"bytes"
	"image"
	"testing"

	"github.com/gogpu/framebridge/display"
	"github.com/gogpu/framebridge/glyph"
	"github.com/gogpu/framebridge/scene"
)

// boxSource rasterizes every glyph as a fully covered box above the
// baseline.
type boxSource struct {
	w, h    int
	advance float64
}

func (s *boxSource) GlyphIndex(r rune) (glyph.GID, bool) { return glyph.GID(r), true }

func (s *boxSource) Advance(gid glyph.GID, sizePx float64) float64 { return s.advance }

func (s *boxSource) Rasterize(gid glyph.GID, sizePx, offset float64) (*glyph.Mask, error) {
	a := image.NewAlpha(image.Rect(0, -s.h, s.w, 0))
	for i := range a.Pix {
		a.Pix[i] = 0xFF
	}
	return &glyph.Mask{Alpha: a, Advance: s.advance}, nil
}

func composeCache() *glyph.Cache {
	fonts := glyph.NewFontTable()
	fonts.Register(1, &boxSource{w: 4, h: 4, advance: 5})
	return glyph.NewCache(fonts, glyph.Config{Subpixel: glyph.SubpixelNone})
}

func pixelAt(f *Frame, x, y int) [4]byte {
	off := y*f.Stride + x*4
	return [4]byte{f.Pixels[off], f.Pixels[off+1], f.Pixels[off+2], f.Pixels[off+3]}
}

func TestComposeBackground(t *testing.T) {
	sc := &scene.Scene{Clips: []display.Rect{{W: 8, H: 8}}}
	f := Compose(sc, composeCache(), 8, 8, display.Color{R: 10, G: 20, B: 30})

	want := [4]byte{10, 20, 30, 0xFF}
	if got := pixelAt(f, 0, 0); got != want {
		t.Errorf("pixel (0,0) = %v, want %v (background forced opaque)", got, want)
	}
	if got := pixelAt(f, 7, 7); got != want {
		t.Errorf("pixel (7,7) = %v, want %v", got, want)
	}
}

func TestComposeRectClipped(t *testing.T) {
	bounds := display.Rect{W: 16, H: 16}
	clip := display.Rect{X: 4, Y: 4, W: 4, H: 4}
	sc := &scene.Scene{
		Clips: []display.Rect{bounds, clip},
		Prims: []scene.Prim{
			scene.RectPrim{
				Rect:  display.Rect{W: 16, H: 16},
				Clip:  1,
				Color: display.Color{R: 200, A: 0xFF},
			},
		},
	}
	f := Compose(sc, composeCache(), 16, 16, display.Color{})

	if got := pixelAt(f, 5, 5); got != [4]byte{200, 0, 0, 0xFF} {
		t.Errorf("inside clip = %v, want red", got)
	}
	if got := pixelAt(f, 2, 2); got != [4]byte{0, 0, 0, 0xFF} {
		t.Errorf("outside clip = %v, want background", got)
	}
}

func TestComposeGlyph(t *testing.T) {
	cache := composeCache()
	key := glyph.Key{FontID: 1, SizePx: 12, Glyph: glyph.GID('o')}
	sc := &scene.Scene{
		Clips: []display.Rect{{W: 16, H: 16}},
		Prims: []scene.Prim{
			scene.GlyphPrim{Key: key, X: 4, Y: 8, FG: display.Color{G: 0xFF, A: 0xFF}},
		},
	}
	f := Compose(sc, cache, 16, 16, display.Color{})

	// The 4x4 box mask sits above the baseline: rows 4..7, cols 4..7.
	if got := pixelAt(f, 4, 4); got != [4]byte{0, 0xFF, 0, 0xFF} {
		t.Errorf("glyph top-left = %v, want green", got)
	}
	if got := pixelAt(f, 7, 7); got != [4]byte{0, 0xFF, 0, 0xFF} {
		t.Errorf("glyph bottom-right = %v, want green", got)
	}
	if got := pixelAt(f, 4, 8); got != [4]byte{0, 0, 0, 0xFF} {
		t.Errorf("below baseline = %v, want background", got)
	}
}

func TestComposeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 0xFF, 0xFF
	}
	sc := &scene.Scene{
		Clips:  []display.Rect{{W: 8, H: 8}},
		Images: []*image.RGBA{img},
		Prims: []scene.Prim{
			scene.ImagePrim{Image: 0, Dest: display.Rect{X: 3, Y: 3, W: 2, H: 2}},
		},
	}
	f := Compose(sc, composeCache(), 8, 8, display.Color{})

	if got := pixelAt(f, 3, 3); got != [4]byte{0xFF, 0, 0, 0xFF} {
		t.Errorf("image pixel = %v, want red", got)
	}
	if got := pixelAt(f, 5, 5); got != [4]byte{0, 0, 0, 0xFF} {
		t.Errorf("outside image = %v, want background", got)
	}
}

func TestComposeDeterministic(t *testing.T) {
	cache := composeCache()
	sc := &scene.Scene{
		Clips: []display.Rect{{W: 32, H: 32}},
		Prims: []scene.Prim{
			scene.RectPrim{Rect: display.Rect{X: 2, Y: 2, W: 10, H: 10}, Color: display.Color{B: 90, A: 180}},
			scene.GlyphPrim{Key: glyph.Key{FontID: 1, SizePx: 12, Glyph: 7}, X: 10, Y: 20, FG: display.Color{R: 50, A: 0xFF}},
		},
	}

	f1 := Compose(sc, cache, 32, 32, display.Color{R: 1, G: 2, B: 3})
	f2 := Compose(sc, cache, 32, 32, display.Color{R: 1, G: 2, B: 3})
	if !bytes.Equal(f1.Pixels, f2.Pixels) {
		t.Error("identical scenes should compose to bit-identical frames")
	}
}
