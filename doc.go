// Package framebridge bridges an editor's display-instruction stream to a
// GPU presentation pipeline.
//
// # Overview
//
// The editor core emits per-window display lists (text runs, fills,
// cursors, fringes, images) tagged with monotonically increasing
// generation numbers. framebridge converts each list into a scene of
// positioned primitives, rasterizes and caches the glyphs it needs,
// composes the scene into a frame, and presents the frame on the
// window's surface, paced against vsync or a timer fallback.
//
// # Architecture
//
//   - display: the instruction vocabulary the editor speaks
//   - glyph: sharded glyph cache with shelf-packed alpha atlases
//   - scene: display-list to scene conversion, glyph resolution
//   - surface: per-window surface lifecycle, composition, presentation
//   - pacing: frame scheduler with per-window coalescing
//
// The Bridge type at the root ties these together and owns the window
// table. The editor's command context only ever enqueues work: submitting
// a display list and dispatching a native event never block on rendering.
//
// # Quick Start
//
//	fonts := glyph.NewFontTable()
//	fonts.Register(1, src)
//
//	b, err := framebridge.NewBridge(framebridge.DefaultConfig(),
//		framebridge.WithFonts(fonts))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	w, _ := b.CreateWindow(1, 800, 600, 1.0, 0)
//	_ = w
//	b.SubmitDisplayList(&display.List{Window: 1, Generation: 1, Instrs: instrs})
package framebridge
