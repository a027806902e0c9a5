package image

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// FitSize returns the largest size with the aspect ratio of (width, height)
// that fits within (maxWidth, maxHeight). It never upscales. A non-positive
// bound leaves that axis unconstrained.
func FitSize(width, height, maxWidth, maxHeight int) (int, int) {
	if maxWidth <= 0 && maxHeight <= 0 {
		return width, height
	}
	ratio := 1.0
	if maxWidth > 0 && width > maxWidth {
		ratio = float64(maxWidth) / float64(width)
	}
	if maxHeight > 0 && height > maxHeight {
		ratio = min(ratio, float64(maxHeight)/float64(height))
	}
	if ratio >= 1 {
		return width, height
	}
	w := max(1, int(float64(width)*ratio))
	h := max(1, int(float64(height)*ratio))
	return w, h
}

// Resize scales src to exactly (width, height) with a Catmull-Rom filter.
// When the size is unchanged src itself is returned.
func Resize(src *Buf, width, height int) (*Buf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if width == src.width && height == src.height {
		return src, nil
	}
	// x/image/draw only has fast paths for *image.RGBA destinations.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Rect, src.NRGBA(), image.Rect(0, 0, src.width, src.height), xdraw.Src, nil)
	return FromStdImage(dst)
}

// ResizeToFit downsamples src to fit within the given bounds.
func ResizeToFit(src *Buf, maxWidth, maxHeight int) (*Buf, error) {
	w, h := FitSize(src.width, src.height, maxWidth, maxHeight)
	return Resize(src, w, h)
}
