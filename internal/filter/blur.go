package filter

import (
	"sync"

	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/internal/parallel"
)

// GaussianBlur convolves src with a Gaussian of standard deviation sigma and
// writes the result to dst. The separable algorithm runs a horizontal pass
// into a float buffer and a vertical pass back into dst, giving
// O(w*h*r) work instead of O(w*h*r²). Edges are extended by clamping.
// A non-positive sigma copies src.
func GaussianBlur(pool *parallel.WorkerPool, src, dst *image.Buf, sigma float64) {
	width, height := src.Bounds()
	if sigma <= 0 {
		copyBuf(src, dst)
		return
	}

	kernel := CachedGaussianKernel(sigma)
	temp := getTempBuffer(width * height * 4)
	defer putTempBuffer(temp)

	pool.Rows(height, func(y0, y1 int) {
		blurHorizontal(src, temp, y0, y1, kernel)
	})
	pool.Rows(height, func(y0, y1 int) {
		blurVertical(temp, dst, y0, y1, kernel)
	})
}

// blurHorizontal convolves rows [y0, y1) of src into temp.
func blurHorizontal(src *image.Buf, temp []float32, y0, y1 int, kernel []float32) {
	width := src.Width()
	half := len(kernel) / 2

	for y := y0; y < y1; y++ {
		row := src.RowBytes(y)
		out := temp[y*width*4 : (y+1)*width*4]

		for x := range width {
			var r, g, b, a float32
			for k, weight := range kernel {
				kx := clampInt(x+k-half, 0, width-1)
				i := kx * 4
				r += float32(row[i+0]) * weight
				g += float32(row[i+1]) * weight
				b += float32(row[i+2]) * weight
				a += float32(row[i+3]) * weight
			}
			o := x * 4
			out[o+0] = r
			out[o+1] = g
			out[o+2] = b
			out[o+3] = a
		}
	}
}

// blurVertical convolves columns of temp into rows [y0, y1) of dst.
// temp must be complete before any band starts.
func blurVertical(temp []float32, dst *image.Buf, y0, y1 int, kernel []float32) {
	width, height := dst.Bounds()
	half := len(kernel) / 2
	rowLen := width * 4

	for y := y0; y < y1; y++ {
		out := dst.RowBytes(y)
		for x := range width {
			var r, g, b, a float32
			for k, weight := range kernel {
				ky := clampInt(y+k-half, 0, height-1)
				i := ky*rowLen + x*4
				r += temp[i+0] * weight
				g += temp[i+1] * weight
				b += temp[i+2] * weight
				a += temp[i+3] * weight
			}
			o := x * 4
			out[o+0] = clampUint8(r)
			out[o+1] = clampUint8(g)
			out[o+2] = clampUint8(b)
			out[o+3] = clampUint8(a)
		}
	}
}

// Blend writes base + (top-base)*t into dst. dst may alias either input.
func Blend(pool *parallel.WorkerPool, base, top, dst *image.Buf, t float32) {
	width := base.Width()
	pool.Rows(base.Height(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			b := base.RowBytes(y)
			o := top.RowBytes(y)
			d := dst.RowBytes(y)
			for i := range width * 4 {
				v := float32(b[i])
				d[i] = clampUint8(v + (float32(o[i])-v)*t)
			}
		}
	})
}

// Sharpen applies an unsharp mask with sigma 1:
// out = orig + (orig - blur(orig)) * amount. Alpha is preserved.
func Sharpen(pool *parallel.WorkerPool, src, dst *image.Buf, amount float32) {
	width, height := src.Bounds()
	blurred := image.MustNewBuf(width, height)
	GaussianBlur(pool, src, blurred, 1)

	pool.Rows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			s := src.RowBytes(y)
			b := blurred.RowBytes(y)
			d := dst.RowBytes(y)
			for i := 0; i < width*4; i += 4 {
				for c := range 3 {
					v := float32(s[i+c])
					d[i+c] = clampUint8(v + (v-float32(b[i+c]))*amount)
				}
				d[i+3] = s[i+3]
			}
		}
	})
}

func copyBuf(src, dst *image.Buf) {
	for y := range src.Height() {
		copy(dst.RowBytes(y), src.RowBytes(y))
	}
}

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

// maxPooledFloats bounds pooled temp buffers (4096x4096 RGBA, 256MB).
const maxPooledFloats = 4096 * 4096 * 4

var tempBufferPool = sync.Pool{
	New: func() any {
		return &floatBuffer{}
	},
}

// getTempBuffer returns a buffer of exactly size elements. Contents are
// undefined; the horizontal pass overwrites every element.
func getTempBuffer(size int) []float32 {
	fb := tempBufferPool.Get().(*floatBuffer)
	if cap(fb.data) < size {
		tempBufferPool.Put(fb)
		return make([]float32, size)
	}
	return fb.data[:size]
}

func putTempBuffer(buf []float32) {
	if cap(buf) <= maxPooledFloats {
		tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
	}
}

// clampInt clamps v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampUint8 clamps a float32 to [0, 255] and converts to uint8.
func clampUint8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5) // Round to nearest
}
