// Package filter provides the pixel kernels of the render pipeline.
//
// This package contains:
//   - Color matrix transformations (grayscale, sepia, invert, brightness, contrast)
//   - Gaussian blur (separable, O(n) per radius) and unsharp-mask sharpening
//   - HSL saturation and hue rotation
//   - Gamma correction through a lookup table
//
// Every kernel reads src and writes dst, which must have the same size and
// must not alias src unless stated otherwise. Work is split into row bands
// on a parallel.WorkerPool; a nil pool runs on the calling goroutine.
// Pixels are straight-alpha RGBA8 and alpha is preserved by every kernel
// except an explicit alpha row in a color matrix.
//
// Performance targets (1080p):
//   - Blur (r=5): <15ms
//   - Color Matrix: <3ms
package filter
