package filter

import (
	"math"

	"github.com/gogpu/retouch/internal/cache"
)

// GaussianKernel returns a normalized 1D Gaussian kernel with standard
// deviation sigma. The kernel has 2*ceil(3*sigma)+1 taps, covering 99.7%
// of the distribution. For sigma <= 0 it returns the identity kernel [1].
func GaussianKernel(sigma float64) []float32 {
	if sigma <= 0 {
		return []float32{1}
	}

	half := KernelHalfSize(sigma)
	kernel := make([]float32, 2*half+1)

	// exp(-x²/(2σ²)); the 1/(σ√(2π)) factor cancels in normalization.
	twoSigmaSq := 2 * sigma * sigma
	var sum float64
	for i := range kernel {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(v)
		sum += v
	}

	inv := float32(1 / sum)
	for i := range kernel {
		kernel[i] *= inv
	}
	return kernel
}

// KernelHalfSize returns ceil(3*sigma), the number of taps on each side
// of the kernel center.
func KernelHalfSize(sigma float64) int {
	if sigma <= 0 {
		return 0
	}
	return int(math.Ceil(sigma * 3))
}

// kernels memoizes Gaussian kernels by sigma quantized to 0.01. Radii
// repeat heavily during interactive edits. Kernels are shared and must be
// treated as read-only.
var kernels = cache.New[int, []float32](64)

func kernelKey(sigma float64) int {
	return int(math.Round(sigma * 100))
}

// CachedGaussianKernel returns a shared kernel for sigma.
func CachedGaussianKernel(sigma float64) []float32 {
	key := kernelKey(sigma)
	return kernels.GetOrCreate(key, func() []float32 {
		return GaussianKernel(float64(key) / 100)
	})
}
