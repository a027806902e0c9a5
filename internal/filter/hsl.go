package filter

import (
	"math"

	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/internal/parallel"
)

// Saturation scales HSL saturation by factor, clamped to [0, 1].
// factor: 0.0 = grayscale, 1.0 = unchanged, 2.0 = double saturation
func Saturation(pool *parallel.WorkerPool, src, dst *image.Buf, factor float64) {
	mapHSL(pool, src, dst, func(h, s, l float64) (float64, float64, float64) {
		return h, min(max(s*factor, 0), 1), l
	})
}

// HueRotate shifts HSL hue by the given number of degrees.
func HueRotate(pool *parallel.WorkerPool, src, dst *image.Buf, degrees int) {
	shift := float64(degrees)
	mapHSL(pool, src, dst, func(h, s, l float64) (float64, float64, float64) {
		return normalizeHue(h + shift), s, l
	})
}

// mapHSL runs fn over every pixel in HSL space. Alpha is preserved.
func mapHSL(pool *parallel.WorkerPool, src, dst *image.Buf, fn func(h, s, l float64) (float64, float64, float64)) {
	width := src.Width()
	pool.Rows(src.Height(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			s := src.RowBytes(y)
			d := dst.RowBytes(y)
			for i := 0; i < width*4; i += 4 {
				h, sat, l := rgbToHSL(s[i], s[i+1], s[i+2])
				d[i], d[i+1], d[i+2] = hslToRGB(fn(h, sat, l))
				d[i+3] = s[i+3]
			}
		}
	})
}

// rgbToHSL converts 8-bit RGB to hue in [0, 360), saturation and lightness
// in [0, 1].
func rgbToHSL(r8, g8, b8 uint8) (h, s, l float64) {
	r := float64(r8) / 255
	g := float64(g8) / 255
	b := float64(b8) / 255

	hi := max(r, g, b)
	lo := min(r, g, b)
	delta := hi - lo

	l = (hi + lo) / 2
	if delta == 0 {
		return 0, 0, l
	}

	if l < 0.5 {
		s = delta / (hi + lo)
	} else {
		s = delta / (2 - hi - lo)
	}

	switch hi {
	case r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	return normalizeHue(h), s, l
}

// hslToRGB converts HSL back to 8-bit RGB, rounding to nearest.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf, bf = c, x, 0
	case h < 120:
		rf, gf, bf = x, c, 0
	case h < 180:
		rf, gf, bf = 0, c, x
	case h < 240:
		rf, gf, bf = 0, x, c
	case h < 300:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}
	return unitToUint8(rf + m), unitToUint8(gf + m), unitToUint8(bf + m)
}

func normalizeHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

func unitToUint8(v float64) uint8 {
	return clampUint8(float32(v * 255))
}
