package glyph

import (
	"image"
	"sync"
)

// Region is a placement inside the atlas: a page index plus the pixel
// rectangle the glyph occupies on that page.
type Region struct {
	Page int
	X, Y int
	W, H int
}

// Valid reports whether the region refers to an atlas placement.
func (r Region) Valid() bool {
	return r.Page >= 0 && r.W > 0 && r.H > 0
}

// bytes returns the pixel footprint of the region.
func (r Region) bytes() int64 {
	return int64(r.W) * int64(r.H)
}

// Atlas is a bounded store of glyph alpha masks packed into fixed-size
// pages using shelf packing. Pages are added on demand until the byte
// budget is reached; freeing is accounting-only until a page empties
// completely, at which point the page is reset for reuse.
//
// Atlas is safe for concurrent use.
type Atlas struct {
	mu       sync.Mutex
	pageSize int
	maxBytes int64
	pages    []*atlasPage
	occupied int64
}

type atlasPage struct {
	img     *image.Alpha
	shelves []shelf
	nextY   int
	used    int64
	freed   int64
}

// shelf is one horizontal packing row: glyphs of similar height share a
// shelf and are appended left to right.
type shelf struct {
	y, h, x int
}

// NewAtlas creates an atlas with the given page size (width and height of
// each page, in pixels) and total byte budget across pages.
func NewAtlas(pageSize int, maxBytes int64) *Atlas {
	if pageSize <= 0 {
		pageSize = 1024
	}
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &Atlas{
		pageSize: pageSize,
		maxBytes: maxBytes,
	}
}

// Place copies a mask into the atlas and returns its placement.
// ok is false when no page can accommodate the mask within the budget;
// the caller is expected to evict and retry, or spill.
func (a *Atlas) Place(mask *image.Alpha) (Region, bool) {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		// Zero-coverage glyphs (whitespace) occupy no atlas space.
		return Region{Page: -1}, true
	}
	if w > a.pageSize || h > a.pageSize {
		return Region{Page: -1}, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for pi, p := range a.pages {
		if x, y, ok := p.reserve(w, h, a.pageSize); ok {
			a.blit(p, x, y, mask)
			r := Region{Page: pi, X: x, Y: y, W: w, H: h}
			p.used += r.bytes()
			a.occupied += r.bytes()
			return r, true
		}
	}

	// Open a new page if the budget allows.
	pageBytes := int64(a.pageSize) * int64(a.pageSize)
	if int64(len(a.pages)+1)*pageBytes > a.maxBytes {
		return Region{Page: -1}, false
	}
	p := &atlasPage{img: image.NewAlpha(image.Rect(0, 0, a.pageSize, a.pageSize))}
	a.pages = append(a.pages, p)
	x, y, ok := p.reserve(w, h, a.pageSize)
	if !ok {
		return Region{Page: -1}, false
	}
	a.blit(p, x, y, mask)
	r := Region{Page: len(a.pages) - 1, X: x, Y: y, W: w, H: h}
	p.used += r.bytes()
	a.occupied += r.bytes()
	return r, true
}

// Free releases a placement. Space is reclaimed lazily: when every
// placement on a page has been freed, the whole page is reset.
func (a *Atlas) Free(r Region) {
	if !r.Valid() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if r.Page >= len(a.pages) {
		return
	}
	p := a.pages[r.Page]
	p.freed += r.bytes()
	a.occupied -= r.bytes()
	if p.freed >= p.used {
		p.shelves = p.shelves[:0]
		p.nextY = 0
		p.used = 0
		p.freed = 0
		clear(p.img.Pix)
	}
}

// Pixels returns the alpha mask stored at a region as a sub-image of the
// page. The returned image aliases atlas memory; it stays valid only
// while the placement is live (pinned or not yet evicted).
func (a *Atlas) Pixels(r Region) *image.Alpha {
	if !r.Valid() {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if r.Page >= len(a.pages) {
		return nil
	}
	sub := a.pages[r.Page].img.SubImage(image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H))
	alpha, _ := sub.(*image.Alpha)
	return alpha
}

// Occupancy returns the live glyph bytes currently placed.
func (a *Atlas) Occupancy() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.occupied
}

// Budget returns the configured byte budget.
func (a *Atlas) Budget() int64 {
	return a.maxBytes
}

// Pages returns the number of allocated pages.
func (a *Atlas) Pages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pages)
}

// reserve finds room for a w x h glyph on the page, with one pixel of
// padding between neighbors, and returns the top-left corner.
func (p *atlasPage) reserve(w, h, pageSize int) (x, y int, ok bool) {
	const pad = 1
	for i := range p.shelves {
		s := &p.shelves[i]
		if h <= s.h && s.x+w+pad <= pageSize {
			x, y = s.x, s.y
			s.x += w + pad
			return x, y, true
		}
	}
	// Open a new shelf. Round the shelf height up slightly so glyphs of
	// near-equal height share shelves.
	sh := h + pad
	if p.nextY+sh > pageSize {
		return 0, 0, false
	}
	s := shelf{y: p.nextY, h: sh, x: w + pad}
	p.nextY += sh
	p.shelves = append(p.shelves, s)
	return 0, s.y, true
}

// blit copies mask pixels to page coordinates (x, y).
func (a *Atlas) blit(p *atlasPage, x, y int, mask *image.Alpha) {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	for row := 0; row < h; row++ {
		srcOff := mask.PixOffset(b.Min.X, b.Min.Y+row)
		dstOff := p.img.PixOffset(x, y+row)
		copy(p.img.Pix[dstOff:dstOff+w], mask.Pix[srcOff:srcOff+w])
	}
}
