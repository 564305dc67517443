package glyph

import (
	"bytes"
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestXImageSourceGoRegular(t *testing.T) {
	src, err := NewXImageSource(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}

	gid, ok := src.GlyphIndex('A')
	if !ok || gid == 0 {
		t.Fatalf("GlyphIndex('A') = %d, %v, want a nonzero index", gid, ok)
	}
	// Go Regular has no CJK coverage.
	if gid, ok := src.GlyphIndex('中'); ok {
		t.Errorf("GlyphIndex(U+4E2D) = %d, true, want missing", gid)
	}

	if adv := src.Advance(gid, 16); adv <= 0 {
		t.Errorf("Advance = %v, want > 0", adv)
	}

	mask, err := src.Rasterize(gid, 16, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mask.Advance <= 0 {
		t.Errorf("mask advance = %v, want > 0", mask.Advance)
	}
	b := mask.Alpha.Rect
	if b.Dx() <= 0 || b.Dy() <= 0 {
		t.Fatalf("mask bounds = %v, want nonempty", b)
	}
	// The box sits above the baseline for an uppercase letter.
	if b.Min.Y >= 0 {
		t.Errorf("mask top = %d, want above the baseline", b.Min.Y)
	}
	var covered bool
	for _, a := range mask.Alpha.Pix {
		if a != 0 {
			covered = true
			break
		}
	}
	if !covered {
		t.Error("mask has no coverage")
	}
}

func TestXImageSourceWhitespaceGlyph(t *testing.T) {
	src, err := NewXImageSource(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	gid, ok := src.GlyphIndex(' ')
	if !ok {
		t.Fatal("space should map to a glyph")
	}
	mask, err := src.Rasterize(gid, 16, 0)
	if err != nil {
		t.Fatal(err)
	}
	if b := mask.Alpha.Rect; b.Dx() != 0 || b.Dy() != 0 {
		t.Errorf("space mask bounds = %v, want empty", b)
	}
	if mask.Advance <= 0 {
		t.Errorf("space advance = %v, want > 0", mask.Advance)
	}
}

func TestXImageSourceRasterizeDeterministic(t *testing.T) {
	src, err := NewXImageSource(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	gid, _ := src.GlyphIndex('g')

	for _, offset := range []float64{0, 0.25, 0.5} {
		m1, err := src.Rasterize(gid, 13.5, offset)
		if err != nil {
			t.Fatal(err)
		}
		m2, err := src.Rasterize(gid, 13.5, offset)
		if err != nil {
			t.Fatal(err)
		}
		if m1.Alpha.Rect != m2.Alpha.Rect {
			t.Errorf("offset %v: bounds %v != %v", offset, m1.Alpha.Rect, m2.Alpha.Rect)
		}
		if !bytes.Equal(m1.Alpha.Pix, m2.Alpha.Pix) {
			t.Errorf("offset %v: repeated rasterization differs", offset)
		}
	}
}

func TestGoTextSourceGoRegular(t *testing.T) {
	src, err := NewGoTextSource(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	raster, err := NewXImageSource(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}

	gid, ok := src.GlyphIndex('A')
	if !ok || gid == 0 {
		t.Fatalf("GlyphIndex('A') = %d, %v, want a nonzero index", gid, ok)
	}
	// Shaping and direct cmap lookup agree on simple Latin.
	if want, _ := raster.GlyphIndex('A'); gid != want {
		t.Errorf("GlyphIndex('A') = %d, want %d", gid, want)
	}
	if gid, ok := src.GlyphIndex('中'); ok {
		t.Errorf("GlyphIndex(U+4E2D) = %d, true, want missing", gid)
	}

	// Metrics and masks come from the embedded raster source.
	if got, want := src.Advance(gid, 16), raster.Advance(gid, 16); got != want {
		t.Errorf("Advance = %v, want %v", got, want)
	}
	m1, err := src.Rasterize(gid, 16, 0)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := raster.Rasterize(gid, 16, 0)
	if err != nil {
		t.Fatal(err)
	}
	if m1.Alpha.Rect != m2.Alpha.Rect || !bytes.Equal(m1.Alpha.Pix, m2.Alpha.Pix) {
		t.Error("shaped source mask differs from the raster source mask")
	}
}

func TestSourceEmptyFontData(t *testing.T) {
	if _, err := NewXImageSource(nil); !errors.Is(err, ErrEmptyFontData) {
		t.Errorf("NewXImageSource(nil) = %v, want ErrEmptyFontData", err)
	}
	if _, err := NewGoTextSource(nil); !errors.Is(err, ErrEmptyFontData) {
		t.Errorf("NewGoTextSource(nil) = %v, want ErrEmptyFontData", err)
	}
}
