package op

import "math"

// CropForAspect returns the largest crop of a width x height image whose
// width/height equals ratio to within a pixel. The crop is centered when
// centered is true and anchored at the top-left corner otherwise. The
// returned Crop carries the ratio as its aspect lock.
func CropForAspect(width, height int, ratio float64, centered bool) Crop {
	w, h := width, height
	if float64(width)/float64(height) > ratio {
		w = int(float64(height) * ratio)
	} else {
		h = int(float64(width) / ratio)
		w = min(width, int(math.Round(float64(h)*ratio)))
	}
	w, h = max(w, 1), max(h, 1)

	c := Crop{Width: w, Height: h, AspectRatio: Float(ratio)}
	if centered {
		c.X = (width - w) / 2
		c.Y = (height - h) / 2
	}
	return c
}
