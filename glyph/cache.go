package glyph

import (
	"image"
	"sync"
	"sync/atomic"
)

// Config holds configuration for the glyph Cache.
type Config struct {
	// MaxEntries is the maximum number of cached glyphs.
	// Default: 4096
	MaxEntries int

	// AtlasPageSize is the width and height of each atlas page in
	// pixels. Default: 1024
	AtlasPageSize int

	// MaxAtlasBytes is the total atlas byte budget. Default: 32 MB
	MaxAtlasBytes int64

	// HighWater is the atlas occupancy fraction that triggers eviction.
	// Default: 0.85
	HighWater float64

	// LowWater is the occupancy fraction eviction drains down to.
	// Default: 0.70
	LowWater float64

	// Subpixel selects the subpixel positioning mode.
	// Default: Subpixel4
	Subpixel SubpixelMode
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxEntries:    4096,
		AtlasPageSize: 1024,
		MaxAtlasBytes: 32 << 20,
		HighWater:     0.85,
		LowWater:      0.70,
		Subpixel:      Subpixel4,
	}
}

// Entry is one cached rasterized glyph. Entries are created by
// Cache.Resolve and stay valid while pinned; an unpinned entry may be
// evicted at any time by atlas pressure or capacity limits.
type Entry struct {
	// Key identifies the glyph.
	Key Key

	// Advance is the horizontal advance width in pixels.
	Advance float64

	// Bounds is the mask rectangle relative to the glyph origin on the
	// baseline. Empty for zero-coverage glyphs such as spaces.
	Bounds image.Rectangle

	// Region is the atlas placement, invalid when the glyph spilled or
	// has no coverage.
	Region Region

	// Fallback is true when this entry is the notdef replacement for a
	// glyph that could not be rasterized.
	Fallback bool

	// spill holds the mask when atlas placement failed.
	spill *image.Alpha

	// pins counts in-flight scenes referencing this entry. A pinned
	// entry is never evicted.
	pins atomic.Int32

	// prev and next for the shard LRU doubly-linked list.
	prev *Entry
	next *Entry
}

// Pin marks the entry as referenced by an in-flight scene.
func (e *Entry) Pin() {
	e.pins.Add(1)
}

// Unpin releases one scene reference.
func (e *Entry) Unpin() {
	if e.pins.Add(-1) < 0 {
		panic("glyph: entry unpinned more times than pinned")
	}
}

// Pins returns the current pin count.
func (e *Entry) Pins() int {
	return int(e.pins.Load())
}

// Stats holds cache statistics.
type Stats struct {
	Hits      atomic.Uint64
	Misses    atomic.Uint64
	Evictions atomic.Uint64
	Fallbacks atomic.Uint64
}

// numShards is the number of cache shards for reduced lock contention.
const numShards = 16

// cacheShard is a single shard of the glyph cache.
type cacheShard struct {
	mu sync.Mutex

	entries map[Key]*Entry

	// head is the most recently used entry, tail the least.
	head *Entry
	tail *Entry

	maxEntries int
	count      int
}

// Cache is the shared glyph cache: a sharded LRU keyed by Key, with
// raster pixels stored in a bounded atlas. Resolve is idempotent and
// deterministic: identical keys yield bit-identical raster output, and a
// glyph that cannot be rasterized resolves to the notdef fallback rather
// than an error.
//
// Eviction runs when atlas occupancy crosses the configured high-water
// mark and never removes an entry pinned by an in-flight scene.
//
// Cache is safe for concurrent use.
type Cache struct {
	shards [numShards]*cacheShard
	fonts  *FontTable
	atlas  *Atlas
	config Config
	stats  Stats
}

// NewCache creates a glyph cache resolving fonts through the given table.
func NewCache(fonts *FontTable, config Config) *Cache {
	def := DefaultConfig()
	if config.MaxEntries <= 0 {
		config.MaxEntries = def.MaxEntries
	}
	if config.AtlasPageSize <= 0 {
		config.AtlasPageSize = def.AtlasPageSize
	}
	if config.MaxAtlasBytes <= 0 {
		config.MaxAtlasBytes = def.MaxAtlasBytes
	}
	if config.HighWater <= 0 || config.HighWater > 1 {
		config.HighWater = def.HighWater
	}
	if config.LowWater <= 0 || config.LowWater >= config.HighWater {
		config.LowWater = min(def.LowWater, config.HighWater/2+config.HighWater/4)
	}
	if config.Subpixel != SubpixelNone && config.Subpixel != Subpixel4 && config.Subpixel != Subpixel10 {
		config.Subpixel = def.Subpixel
	}
	if fonts == nil {
		fonts = NewFontTable()
	}

	c := &Cache{
		fonts:  fonts,
		atlas:  NewAtlas(config.AtlasPageSize, config.MaxAtlasBytes),
		config: config,
	}
	perShard := (config.MaxEntries + numShards - 1) / numShards
	for i := range c.shards {
		c.shards[i] = &cacheShard{
			entries:    make(map[Key]*Entry, perShard),
			maxEntries: perShard,
		}
	}
	return c
}

// Subpixel returns the configured subpixel mode.
func (c *Cache) Subpixel() SubpixelMode {
	return c.config.Subpixel
}

// Fonts returns the font table backing this cache.
func (c *Cache) Fonts() *FontTable {
	return c.fonts
}

// GlyphIndex maps a rune to a glyph index in the given font.
func (c *Cache) GlyphIndex(fontID uint64, r rune) (GID, bool) {
	src, ok := c.fonts.Lookup(fontID)
	if !ok {
		return 0, false
	}
	return src.GlyphIndex(r)
}

// Resolve returns the cache entry for a key, rasterizing on miss.
// The returned entry is never nil: rasterization failure yields the
// notdef fallback entry. Resolve does not pin; callers that need the
// entry to survive concurrent eviction use ResolvePinned instead.
func (c *Cache) Resolve(key Key) *Entry {
	return c.resolve(key, false)
}

// ResolvePinned resolves a key and pins the entry in one step. The pin
// is taken under the shard lock, so the entry cannot be evicted between
// lookup and pin. The caller owns one pin and must balance it with
// Unpin.
func (c *Cache) ResolvePinned(key Key) *Entry {
	return c.resolve(key, true)
}

func (c *Cache) resolve(key Key, pin bool) *Entry {
	shard := c.getShard(key)

	shard.mu.Lock()
	if e, ok := shard.entries[key]; ok {
		shard.moveToFront(e)
		if pin {
			e.Pin()
		}
		shard.mu.Unlock()
		c.stats.Hits.Add(1)
		return e
	}
	shard.mu.Unlock()
	c.stats.Misses.Add(1)

	e := c.rasterize(key)

	shard.mu.Lock()
	// Another goroutine may have raced us here; keep the first insert
	// so pins taken on it stay valid, and discard our placement.
	if existing, ok := shard.entries[key]; ok {
		shard.moveToFront(existing)
		if pin {
			existing.Pin()
		}
		shard.mu.Unlock()
		c.atlas.Free(e.Region)
		return existing
	}
	for shard.count >= shard.maxEntries {
		if !c.evictTail(shard) {
			break
		}
	}
	shard.entries[key] = e
	shard.addToFront(e)
	shard.count++
	if pin {
		e.Pin()
	}
	shard.mu.Unlock()

	c.maintainOccupancy()
	return e
}

// MaskImage returns the alpha mask for an entry, or nil for
// zero-coverage glyphs. The image aliases atlas memory and stays valid
// while the entry is pinned.
func (c *Cache) MaskImage(e *Entry) *image.Alpha {
	if e.spill != nil {
		return e.spill
	}
	return c.atlas.Pixels(e.Region)
}

// Atlas returns the backing atlas.
func (c *Cache) Atlas() *Atlas {
	return c.atlas
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += s.count
		s.mu.Unlock()
	}
	return total
}

// StatsSnapshot returns hit, miss, eviction and fallback counts.
func (c *Cache) StatsSnapshot() (hits, misses, evictions, fallbacks uint64) {
	return c.stats.Hits.Load(),
		c.stats.Misses.Load(),
		c.stats.Evictions.Load(),
		c.stats.Fallbacks.Load()
}

// rasterize produces the entry pixels for a key, falling back to the
// notdef box when the source is missing or fails.
func (c *Cache) rasterize(key Key) *Entry {
	sizePx := float64(key.SizePx)
	offset := 0.0
	if n := c.config.Subpixel.Divisions(); n > 1 {
		offset = float64(key.Subpixel) / float64(n)
	}

	var mask *Mask
	fallback := false
	if src, ok := c.fonts.Lookup(key.FontID); ok {
		m, err := src.Rasterize(key.Glyph, sizePx, offset)
		if err == nil {
			mask = m
		}
	}
	if mask == nil {
		mask = fallbackMask(sizePx)
		fallback = true
		c.stats.Fallbacks.Add(1)
	}

	e := &Entry{
		Key:      key,
		Advance:  mask.Advance,
		Bounds:   mask.Alpha.Bounds(),
		Fallback: fallback,
	}
	region, ok := c.atlas.Place(mask.Alpha)
	if ok {
		e.Region = region
	} else {
		// Atlas exhausted and nothing evictable right now; keep the
		// pixels on the side so the entry is still usable.
		e.Region = Region{Page: -1}
		e.spill = mask.Alpha
	}
	return e
}

// maintainOccupancy evicts unpinned LRU entries once atlas occupancy
// crosses the high-water mark, draining to the low-water mark.
func (c *Cache) maintainOccupancy() {
	high := int64(float64(c.atlas.Budget()) * c.config.HighWater)
	if c.atlas.Occupancy() <= high {
		return
	}
	low := int64(float64(c.atlas.Budget()) * c.config.LowWater)
	for c.atlas.Occupancy() > low {
		progressed := false
		for _, s := range c.shards {
			s.mu.Lock()
			if c.evictTail(s) {
				progressed = true
			}
			s.mu.Unlock()
			if c.atlas.Occupancy() <= low {
				break
			}
		}
		if !progressed {
			// Everything left is pinned by in-flight scenes.
			return
		}
	}
}

// evictTail removes the least recently used unpinned entry of a shard.
// The shard lock must be held. Reports whether an entry was evicted.
func (c *Cache) evictTail(s *cacheShard) bool {
	for e := s.tail; e != nil; e = e.prev {
		if e.pins.Load() > 0 {
			continue
		}
		s.remove(e)
		delete(s.entries, e.Key)
		s.count--
		c.atlas.Free(e.Region)
		c.stats.Evictions.Add(1)
		return true
	}
	return false
}

// getShard returns the shard for the given key.
func (c *Cache) getShard(key Key) *cacheShard {
	h := key.FontID
	h = h*31 + uint64(key.Glyph)
	h = h*31 + uint64(uint16(key.SizePx))
	h = h*31 + uint64(key.Subpixel)
	return c.shards[h%numShards]
}

// addToFront adds an entry to the front of the LRU list.
func (s *cacheShard) addToFront(e *Entry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

// moveToFront moves an entry to the front of the LRU list.
func (s *cacheShard) moveToFront(e *Entry) {
	if e == s.head {
		return
	}
	s.remove(e)
	s.addToFront(e)
}

// remove unlinks an entry from the LRU list (does not delete from map).
func (s *cacheShard) remove(e *Entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}
