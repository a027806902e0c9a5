package filter

import (
	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/internal/parallel"
)

// ColorMatrix is a 4x5 color transformation matrix in row-major order.
// The transformation is:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// The fifth column provides bias/offset values.
// Color values are straight-alpha in [0, 255] during transformation,
// then rounded and clamped back to valid range.
type ColorMatrix [20]float32

// Rec. 709 luminance weights.
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// IdentityMatrix passes colors through unchanged.
func IdentityMatrix() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0, // R
		0, 1, 0, 0, 0, // G
		0, 0, 1, 0, 0, // B
		0, 0, 0, 1, 0, // A
	}
}

// BrightnessMatrix scales RGB by factor.
// factor: 0.0 = black, 1.0 = unchanged, 2.0 = twice as bright
func BrightnessMatrix(factor float32) ColorMatrix {
	return ColorMatrix{
		factor, 0, 0, 0, 0,
		0, factor, 0, 0, 0,
		0, 0, factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix scales RGB around middle gray (128).
// factor: 0.0 = gray, 1.0 = unchanged, 2.0 = high contrast
func ContrastMatrix(factor float32) ColorMatrix {
	offset := 128 * (1 - factor)
	return ColorMatrix{
		factor, 0, 0, 0, offset,
		0, factor, 0, 0, offset,
		0, 0, factor, 0, offset,
		0, 0, 0, 1, 0,
	}
}

// SaturationMatrix blends between luminance (0) and identity (1).
func SaturationMatrix(factor float32) ColorMatrix {
	inv := 1 - factor
	return ColorMatrix{
		lumR*inv + factor, lumG * inv, lumB * inv, 0, 0,
		lumR * inv, lumG*inv + factor, lumB * inv, 0, 0,
		lumR * inv, lumG * inv, lumB*inv + factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// GrayscaleMatrix converts to Rec. 709 luminance.
func GrayscaleMatrix() ColorMatrix {
	return SaturationMatrix(0)
}

// SepiaMatrix applies the standard sepia tone.
func SepiaMatrix() ColorMatrix {
	return ColorMatrix{
		0.393, 0.769, 0.189, 0, 0,
		0.349, 0.686, 0.168, 0, 0,
		0.272, 0.534, 0.131, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// InvertMatrix inverts RGB and keeps alpha.
func InvertMatrix() ColorMatrix {
	return ColorMatrix{
		-1, 0, 0, 0, 255,
		0, -1, 0, 0, 255,
		0, 0, -1, 0, 255,
		0, 0, 0, 1, 0,
	}
}

// Lerp returns I*(1-t) + m*t. t = 0 yields the identity, t = 1 yields m.
func (m ColorMatrix) Lerp(t float32) ColorMatrix {
	id := IdentityMatrix()
	var r ColorMatrix
	for i := range r {
		r[i] = id[i]*(1-t) + m[i]*t
	}
	return r
}

// IsIdentity reports whether m leaves every pixel unchanged.
func (m ColorMatrix) IsIdentity() bool {
	return m == IdentityMatrix()
}

// Apply transforms every pixel of src into dst. dst may alias src. An
// identity matrix copies src.
func (m ColorMatrix) Apply(pool *parallel.WorkerPool, src, dst *image.Buf) {
	if m.IsIdentity() {
		if src != dst {
			copyBuf(src, dst)
		}
		return
	}
	width := src.Width()
	pool.Rows(src.Height(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			s := src.RowBytes(y)
			d := dst.RowBytes(y)
			for i := 0; i < width*4; i += 4 {
				r := float32(s[i+0])
				g := float32(s[i+1])
				b := float32(s[i+2])
				a := float32(s[i+3])

				d[i+0] = clampUint8(m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4])
				d[i+1] = clampUint8(m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9])
				d[i+2] = clampUint8(m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14])
				d[i+3] = clampUint8(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19])
			}
		}
	})
}
