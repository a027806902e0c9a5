package filter

import (
	"testing"

	"github.com/gogpu/retouch/internal/image"
)

func TestGammaLUT(t *testing.T) {
	tests := []struct {
		gamma float64
		in    int
		want  uint8
	}{
		{1, 0, 0},
		{1, 77, 77},
		{1, 255, 255},
		{2, 64, 128},
		{2, 255, 255},
		{0.5, 128, 64},
		{0.5, 0, 0},
	}

	for _, tt := range tests {
		lut := GammaLUT(tt.gamma)
		if got := lut[tt.in]; got != tt.want {
			t.Errorf("GammaLUT(%v)[%d] = %d, want %d", tt.gamma, tt.in, got, tt.want)
		}
	}
}

func TestGammaPreservesAlpha(t *testing.T) {
	src := solidBuf(4, 4, 64, 64, 64, 10)
	dst := image.MustNewBuf(4, 4)

	Gamma(nil, src, dst, 2)

	assertPixel(t, dst, 3, 3, [4]uint8{128, 128, 128, 10}, 0)
}

func TestGammaIdentity(t *testing.T) {
	src := gradientBuf(9, 9)
	dst := image.MustNewBuf(9, 9)

	Gamma(nil, src, dst, 1)

	if !dst.Equal(src) {
		t.Error("Gamma(1) changed pixels")
	}
}
