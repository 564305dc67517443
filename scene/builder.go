package scene

import (
	"errors"
	"log/slog"
	"math"

	"github.com/gogpu/framebridge/display"
	"github.com/gogpu/framebridge/glyph"
	"github.com/gogpu/framebridge/internal/logx"
)

// ErrNilList is returned when Build is called with a nil display list.
var ErrNilList = errors.New("scene: nil display list")

// defaultThickness is the bar and underline cursor thickness in pixels
// when the instruction does not specify one.
const defaultThickness = 2

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used for malformed-instruction diagnostics.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// Builder converts display lists into scenes, resolving glyphs through a
// shared glyph cache.
//
// Build is deterministic: for a fixed display list and fixed cache
// contents it produces an identical scene (same primitive order, same
// geometry). Builder is safe for concurrent use; each Build call works
// on its own state.
type Builder struct {
	cache *glyph.Cache
	log   *slog.Logger
}

// NewBuilder creates a scene builder over the given glyph cache.
func NewBuilder(cache *glyph.Cache, opts ...BuilderOption) *Builder {
	b := &Builder{
		cache: cache,
		log:   logx.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// build-time state for one Build call.
type buildState struct {
	sc        *Scene
	clipStack []ClipIndex
	seen      map[*glyph.Entry]struct{}
}

// Build walks the display list once, in order, and produces a scene for
// a window of the given bounds.
//
// Every glyph entry the scene references is pinned; the caller must call
// Scene.Release once the scene has been presented or discarded.
// Malformed instructions are skipped with a diagnostic and recorded in
// Scene.Malformed; they never fail the build.
func (b *Builder) Build(list *display.List, bounds display.Rect) (*Scene, error) {
	if list == nil {
		return nil, ErrNilList
	}

	st := &buildState{
		sc: &Scene{
			Window:     list.Window,
			Generation: list.Generation,
			Bounds:     bounds,
			Clips:      []display.Rect{bounds},
		},
		clipStack: []ClipIndex{0},
		seen:      make(map[*glyph.Entry]struct{}),
	}

	for i, in := range list.Instrs {
		switch v := in.(type) {
		case display.TextRun:
			b.buildTextRun(st, i, v)
		case display.SolidFill:
			if v.Rect.Empty() {
				b.skip(st, i, "empty fill rect")
				continue
			}
			st.emit(RectPrim{Rect: v.Rect, Clip: st.clip(), Color: v.Color})
		case display.Cursor:
			b.buildCursor(st, i, v)
		case display.Fringe:
			b.buildFringe(st, i, v)
		case display.Image:
			if v.Pixels == nil {
				b.skip(st, i, "nil image pixels")
				continue
			}
			idx := len(st.sc.Images)
			st.sc.Images = append(st.sc.Images, v.Pixels)
			st.emit(ImagePrim{Image: idx, Dest: v.Dest, Clip: st.clip()})
		case display.PushClip:
			parent := st.sc.Clips[st.clip()]
			idx := ClipIndex(len(st.sc.Clips))
			st.sc.Clips = append(st.sc.Clips, parent.Intersect(v.Rect))
			st.clipStack = append(st.clipStack, idx)
		case display.PopClip:
			if len(st.clipStack) <= 1 {
				b.skip(st, i, "PopClip without matching PushClip")
				continue
			}
			st.clipStack = st.clipStack[:len(st.clipStack)-1]
		default:
			b.skip(st, i, "unknown instruction")
		}
	}

	return st.sc, nil
}

// buildTextRun splits a run into per-glyph primitives positioned by the
// baseline origin and each glyph's advance width.
func (b *Builder) buildTextRun(st *buildState, idx int, run display.TextRun) {
	if len(run.Runes) == 0 {
		b.skip(st, idx, "empty text run")
		return
	}
	if run.SizePx <= 0 {
		b.skip(st, idx, "non-positive font size")
		return
	}

	mode := b.cache.Subpixel()
	clip := st.clip()
	pen := run.X
	baseline := int(math.Round(run.Y))

	for _, r := range run.Runes {
		gid, ok := b.cache.GlyphIndex(run.FontID, r)
		if !ok {
			// Missing coverage resolves through glyph 0, which the
			// cache replaces with the notdef fallback as needed.
			gid = 0
		}
		x := math.Floor(pen)
		bucket, _ := mode.Quantize(pen - x)
		key := glyph.Key{
			FontID:   run.FontID,
			SizePx:   int16(math.Round(run.SizePx)),
			Glyph:    gid,
			Subpixel: bucket,
		}
		e := b.cache.ResolvePinned(key)
		st.retain(e)
		st.emit(GlyphPrim{
			Key:  key,
			X:    int(x),
			Y:    baseline,
			Clip: clip,
			FG:   run.FG,
		})
		pen += e.Advance
	}
}

// buildCursor lowers a cursor instruction to solid fills.
func (b *Builder) buildCursor(st *buildState, idx int, cur display.Cursor) {
	if cur.Rect.Empty() {
		b.skip(st, idx, "empty cursor rect")
		return
	}
	clip := st.clip()
	th := cur.Thickness
	if th <= 0 {
		th = defaultThickness
	}
	r := cur.Rect

	switch cur.Kind {
	case display.CursorBlock:
		st.emit(RectPrim{Rect: r, Clip: clip, Color: cur.Color})
	case display.CursorBar:
		st.emit(RectPrim{
			Rect: display.Rect{X: r.X, Y: r.Y, W: min(th, r.W), H: r.H},
			Clip: clip, Color: cur.Color,
		})
	case display.CursorUnderline:
		h := min(th, r.H)
		st.emit(RectPrim{
			Rect: display.Rect{X: r.X, Y: r.Y + r.H - h, W: r.W, H: h},
			Clip: clip, Color: cur.Color,
		})
	case display.CursorHollowBox:
		// Four edge strips, one pixel wide.
		st.emit(RectPrim{Rect: display.Rect{X: r.X, Y: r.Y, W: r.W, H: 1}, Clip: clip, Color: cur.Color})
		st.emit(RectPrim{Rect: display.Rect{X: r.X, Y: r.Y + r.H - 1, W: r.W, H: 1}, Clip: clip, Color: cur.Color})
		st.emit(RectPrim{Rect: display.Rect{X: r.X, Y: r.Y + 1, W: 1, H: r.H - 2}, Clip: clip, Color: cur.Color})
		st.emit(RectPrim{Rect: display.Rect{X: r.X + r.W - 1, Y: r.Y + 1, W: 1, H: r.H - 2}, Clip: clip, Color: cur.Color})
	default:
		b.skip(st, idx, "unknown cursor kind")
	}
}

// buildFringe lowers a fringe bitmap to a background fill plus per-row
// foreground runs.
func (b *Builder) buildFringe(st *buildState, idx int, fr display.Fringe) {
	if fr.Rect.Empty() {
		b.skip(st, idx, "empty fringe rect")
		return
	}
	clip := st.clip()
	if fr.BG.A != 0 {
		st.emit(RectPrim{Rect: fr.Rect, Clip: clip, Color: fr.BG})
	}

	rows, ok := fringeBitmaps[fr.ID]
	if !ok {
		b.skip(st, idx, "unknown fringe bitmap")
		return
	}

	// Center the bitmap inside the fringe rect. Bitmap rows are 8 bits
	// wide, most significant bit leftmost.
	bw := fringeBitmapWidth
	x0 := fr.Rect.X + (fr.Rect.W-bw)/2
	y0 := fr.Rect.Y + (fr.Rect.H-len(rows))/2
	for ry, row := range rows {
		run := -1
		for bit := 0; bit <= bw; bit++ {
			on := bit < bw && row&(0x80>>bit) != 0
			if on && run < 0 {
				run = bit
			}
			if !on && run >= 0 {
				st.emit(RectPrim{
					Rect: display.Rect{X: x0 + run, Y: y0 + ry, W: bit - run, H: 1},
					Clip: clip, Color: fr.FG,
				})
				run = -1
			}
		}
	}
}

// skip records a malformed instruction and emits a diagnostic.
func (b *Builder) skip(st *buildState, idx int, reason string) {
	err := display.MalformedError{Index: idx, Reason: reason}
	st.sc.Malformed = append(st.sc.Malformed, err)
	b.log.Warn("skipping malformed display instruction",
		"window", uint64(st.sc.Window),
		"generation", st.sc.Generation,
		"index", idx,
		"reason", reason)
}

func (st *buildState) emit(p Prim) {
	st.sc.Prims = append(st.sc.Prims, p)
}

func (st *buildState) clip() ClipIndex {
	return st.clipStack[len(st.clipStack)-1]
}

// retain records a pinned glyph entry the first time the scene touches
// it. Entries arrive already pinned by ResolvePinned; repeat references
// within the scene drop their extra pin so Release balances with one
// unpin per distinct entry.
func (st *buildState) retain(e *glyph.Entry) {
	if _, ok := st.seen[e]; ok {
		e.Unpin()
		return
	}
	st.seen[e] = struct{}{}
	st.sc.pinned = append(st.sc.pinned, e)
}
