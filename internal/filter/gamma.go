package filter

import (
	"math"

	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/internal/parallel"
)

// GammaLUT returns the 256-entry table v -> 255*(v/255)^(1/gamma).
// gamma > 1 brightens, gamma < 1 darkens.
func GammaLUT(gamma float64) [256]uint8 {
	var lut [256]uint8
	inv := 1 / gamma
	for i := range lut {
		lut[i] = unitToUint8(math.Pow(float64(i)/255, inv))
	}
	return lut
}

// Gamma applies gamma correction to RGB. Alpha is preserved.
func Gamma(pool *parallel.WorkerPool, src, dst *image.Buf, gamma float64) {
	lut := GammaLUT(gamma)
	width := src.Width()
	pool.Rows(src.Height(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			s := src.RowBytes(y)
			d := dst.RowBytes(y)
			for i := 0; i < width*4; i += 4 {
				d[i+0] = lut[s[i+0]]
				d[i+1] = lut[s[i+1]]
				d[i+2] = lut[s[i+2]]
				d[i+3] = s[i+3]
			}
		}
	})
}
