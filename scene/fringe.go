package scene

// Built-in fringe bitmap IDs. The editor references these from
// display.Fringe instructions; they mirror the classic set of
// truncation and continuation markers.
const (
	// FringeTruncation marks a line cut off at the window edge.
	FringeTruncation uint32 = 1

	// FringeContinuation marks a wrapped line continuing on the next
	// screen line.
	FringeContinuation uint32 = 2

	// FringeOverlayArrowLeft points into the buffer from the left.
	FringeOverlayArrowLeft uint32 = 3

	// FringeOverlayArrowRight points into the buffer from the right.
	FringeOverlayArrowRight uint32 = 4
)

// fringeBitmapWidth is the width of every fringe bitmap in pixels.
const fringeBitmapWidth = 8

// fringeBitmaps holds the built-in bitmap patterns, one byte per row,
// most significant bit leftmost.
var fringeBitmaps = map[uint32][]uint8{
	FringeTruncation: {
		0b11000000,
		0b01100000,
		0b00110000,
		0b00011000,
		0b00110000,
		0b01100000,
		0b11000000,
	},
	FringeContinuation: {
		0b00000011,
		0b00000110,
		0b00001100,
		0b00011000,
		0b00001100,
		0b00000110,
		0b00000011,
	},
	FringeOverlayArrowLeft: {
		0b00010000,
		0b00110000,
		0b01110000,
		0b11111110,
		0b01110000,
		0b00110000,
		0b00010000,
	},
	FringeOverlayArrowRight: {
		0b00001000,
		0b00001100,
		0b00001110,
		0b01111111,
		0b00001110,
		0b00001100,
		0b00001000,
	},
}
