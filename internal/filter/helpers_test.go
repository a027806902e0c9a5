package filter

import (
	"testing"

	"github.com/gogpu/retouch/internal/image"
)

// Test helper functions shared across filter tests.

// solidBuf creates a buffer filled with the given color.
func solidBuf(w, h int, r, g, b, a uint8) *image.Buf {
	buf := image.MustNewBuf(w, h)
	for y := range h {
		for x := range w {
			_ = buf.SetRGBA(x, y, r, g, b, a)
		}
	}
	return buf
}

// gradientBuf creates an opaque buffer whose channels vary with position.
func gradientBuf(w, h int) *image.Buf {
	buf := image.MustNewBuf(w, h)
	for y := range h {
		for x := range w {
			_ = buf.SetRGBA(x, y, uint8(x*7+y), uint8(y*5), uint8((x*y)%251), 255)
		}
	}
	return buf
}

// pixel returns the pixel at (x, y) as an array.
func pixel(b *image.Buf, x, y int) [4]uint8 {
	r, g, bl, a := b.GetRGBA(x, y)
	return [4]uint8{r, g, bl, a}
}

// assertPixel fails the test when the pixel differs from want by more than tol.
func assertPixel(t *testing.T, b *image.Buf, x, y int, want [4]uint8, tol int) {
	t.Helper()
	got := pixel(b, x, y)
	for i := range got {
		if absInt(int(got[i])-int(want[i])) > tol {
			t.Errorf("pixel(%d,%d) = %v, want %v (±%d)", x, y, got, want, tol)
			return
		}
	}
}

// absInt returns the absolute value of an int.
func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
