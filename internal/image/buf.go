// Package image provides the pixel buffer used by the retouch render pipeline.
//
// Buf stores non-premultiplied RGBA8 pixels in a contiguous row-major slice.
// Buffers handed to the pipeline are treated as immutable once published:
// every stage reads from one buffer and writes into a fresh one.
package image

import (
	"bytes"
	"errors"
)

// Common errors for buffer operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrOutOfBounds is returned when pixel coordinates or a region fall
	// outside image bounds.
	ErrOutOfBounds = errors.New("image: coordinates out of bounds")
)

// BytesPerPixel is the storage size of one RGBA8 pixel.
const BytesPerPixel = 4

// Buf is an RGBA8 image buffer with straight (non-premultiplied) alpha.
//
// Thread safety: Buf is safe for concurrent read access. Writes
// (SetRGBA, Clear) require external synchronization and must only happen
// before the buffer is shared.
type Buf struct {
	data   []byte
	width  int
	height int
	stride int
}

// NewBuf creates a zeroed (transparent black) buffer.
func NewBuf(width, height int) (*Buf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	stride := width * BytesPerPixel
	return &Buf{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
	}, nil
}

// MustNewBuf is like NewBuf but panics on invalid dimensions.
// Intended for tests and for sizes derived from an existing buffer.
func MustNewBuf(width, height int) *Buf {
	b, err := NewBuf(width, height)
	if err != nil {
		panic(err)
	}
	return b
}

// Clone creates a deep copy of the buffer.
func (b *Buf) Clone() *Buf {
	return &Buf{
		data:   bytes.Clone(b.data),
		width:  b.width,
		height: b.height,
		stride: b.stride,
	}
}

// Width returns the image width in pixels.
func (b *Buf) Width() int {
	return b.width
}

// Height returns the image height in pixels.
func (b *Buf) Height() int {
	return b.height
}

// Stride returns the number of bytes per row.
func (b *Buf) Stride() int {
	return b.stride
}

// Bounds returns the image dimensions as (width, height).
func (b *Buf) Bounds() (int, int) {
	return b.width, b.height
}

// Data returns the raw pixel data slice.
func (b *Buf) Data() []byte {
	return b.data
}

// RowBytes returns the pixel bytes of row y, excluding stride padding.
// Returns nil if y is out of bounds.
func (b *Buf) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.stride
	return b.data[start : start+b.width*BytesPerPixel]
}

// PixelOffset returns the byte offset of pixel (x, y) in the data slice.
// Returns -1 if coordinates are out of bounds.
func (b *Buf) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.stride + x*BytesPerPixel
}

// GetRGBA returns the color at (x, y).
// Returns (0,0,0,0) if coordinates are out of bounds.
func (b *Buf) GetRGBA(x, y int) (r, g, bl, a uint8) {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return 0, 0, 0, 0
	}
	p := b.data[off : off+4 : off+4]
	return p[0], p[1], p[2], p[3]
}

// SetRGBA sets the color at (x, y).
func (b *Buf) SetRGBA(x, y int, r, g, bl, a uint8) error {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return ErrOutOfBounds
	}
	b.data[off] = r
	b.data[off+1] = g
	b.data[off+2] = bl
	b.data[off+3] = a
	return nil
}

// Clear sets all pixels to transparent black.
func (b *Buf) Clear() {
	clear(b.data)
}

// Crop copies the region (x, y, width, height) into a new buffer.
// Returns ErrOutOfBounds unless the region lies fully inside the image.
func (b *Buf) Crop(x, y, width, height int) (*Buf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if x < 0 || y < 0 || width > b.width || height > b.height ||
		x > b.width-width || y > b.height-height {
		return nil, ErrOutOfBounds
	}
	dst := MustNewBuf(width, height)
	for row := range height {
		src := b.RowBytes(y + row)
		copy(dst.RowBytes(row), src[x*BytesPerPixel:(x+width)*BytesPerPixel])
	}
	return dst, nil
}

// Equal reports whether both buffers have the same size and pixels.
func (b *Buf) Equal(other *Buf) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.width != other.width || b.height != other.height {
		return false
	}
	for y := range b.height {
		if !bytes.Equal(b.RowBytes(y), other.RowBytes(y)) {
			return false
		}
	}
	return true
}

// ByteSize returns the total size of the pixel data in bytes.
func (b *Buf) ByteSize() int {
	return len(b.data)
}

// IsEmpty returns true if the buffer has no pixels.
func (b *Buf) IsEmpty() bool {
	return b == nil || b.width == 0 || b.height == 0
}
