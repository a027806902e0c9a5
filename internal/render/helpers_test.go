package render

import (
	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/op"
)

// patternBuf creates an opaque buffer where every pixel is distinct.
func patternBuf(w, h int) *image.Buf {
	buf := image.MustNewBuf(w, h)
	for y := range h {
		for x := range w {
			_ = buf.SetRGBA(x, y, uint8(x), uint8(y), uint8(x^y), 255)
		}
	}
	return buf
}

// solidBuf creates a buffer filled with one color.
func solidBuf(w, h int, r, g, b, a uint8) *image.Buf {
	buf := image.MustNewBuf(w, h)
	for y := range h {
		for x := range w {
			_ = buf.SetRGBA(x, y, r, g, b, a)
		}
	}
	return buf
}

// ops builds a sequence with generated IDs.
func ops(params ...op.Params) []op.Operation {
	out := make([]op.Operation, len(params))
	for i, p := range params {
		out[i] = op.New(string(rune('a'+i)), p)
	}
	return out
}
