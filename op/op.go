// Package op defines the edit operations understood by the retouch engine.
//
// An Operation pairs a caller-chosen ID with one of four parameter payloads:
// Filter, Adjustment, Transform or Crop. The set is closed: Params can only
// be implemented inside this package, so a type switch over the four payload
// types is exhaustive.
//
// Operations are values. New deep-copies the payload, and nothing in the
// engine mutates an Operation after construction, so sequences can be shared
// between the history, the render pipeline and callers without copying.
package op

import "time"

// Kind is the operation discriminant. Its values are the wire names used in
// the "operation_type" field.
type Kind string

// Operation kinds.
const (
	KindFilter     Kind = "Filter"
	KindAdjustment Kind = "Adjustment"
	KindTransform  Kind = "Transform"
	KindCrop       Kind = "Crop"
)

// Params is the closed set of operation payloads.
type Params interface {
	Kind() Kind
	clone() Params
}

// FilterType selects a filter.
type FilterType string

// Filter types.
const (
	FilterGrayscale FilterType = "grayscale"
	FilterSepia     FilterType = "sepia"
	FilterInvert    FilterType = "invert"
	FilterBlur      FilterType = "blur"
	FilterSharpen   FilterType = "sharpen"
)

func (t FilterType) valid() bool {
	switch t {
	case FilterGrayscale, FilterSepia, FilterInvert, FilterBlur, FilterSharpen:
		return true
	}
	return false
}

// Filter is a full-image filter blended with the input by Intensity
// (0 leaves the image unchanged, 1 applies the full effect).
// Radius is the Gaussian sigma in pixels and is used by FilterBlur only.
type Filter struct {
	Type      FilterType `json:"type" validate:"oneof=grayscale sepia invert blur sharpen"`
	Intensity float64    `json:"intensity" validate:"gte=0,lte=1"`
	Radius    float64    `json:"radius,omitempty"`
}

// Kind implements Params.
func (Filter) Kind() Kind { return KindFilter }

func (f Filter) clone() Params { return f }

// Adjustment is a set of independent tonal adjustments. Nil fields are
// absent. Present fields are applied in the order brightness, contrast,
// saturation, hue, gamma.
type Adjustment struct {
	// Brightness scales RGB: 0 is black, 1 unchanged, 2 double.
	Brightness *float64 `json:"brightness,omitempty" validate:"omitnil,gte=0,lte=2"`

	// Contrast scales RGB around middle gray: 0 is flat gray, 1 unchanged.
	Contrast *float64 `json:"contrast,omitempty" validate:"omitnil,gte=0,lte=2"`

	// Saturation scales HSL saturation: 0 is grayscale, 1 unchanged.
	Saturation *float64 `json:"saturation,omitempty" validate:"omitnil,gte=0,lte=2"`

	// Hue rotates HSL hue by whole degrees.
	Hue *int `json:"hue,omitempty" validate:"omitnil,gte=-180,lte=180"`

	// Gamma applies v^(1/gamma): values above 1 brighten midtones.
	Gamma *float64 `json:"gamma,omitempty" validate:"omitnil,gte=0.1,lte=3"`
}

// Kind implements Params.
func (Adjustment) Kind() Kind { return KindAdjustment }

func (a Adjustment) clone() Params {
	return Adjustment{
		Brightness: clonePtr(a.Brightness),
		Contrast:   clonePtr(a.Contrast),
		Saturation: clonePtr(a.Saturation),
		Hue:        clonePtr(a.Hue),
		Gamma:      clonePtr(a.Gamma),
	}
}

// IsEmpty reports whether no adjustment field is present.
func (a Adjustment) IsEmpty() bool {
	return a.Brightness == nil && a.Contrast == nil && a.Saturation == nil &&
		a.Hue == nil && a.Gamma == nil
}

// TransformType selects a lossless geometric transform.
type TransformType string

// Transform types. Rotations are clockwise.
const (
	Rotate90       TransformType = "rotate90"
	Rotate180      TransformType = "rotate180"
	Rotate270      TransformType = "rotate270"
	FlipHorizontal TransformType = "flip_horizontal"
	FlipVertical   TransformType = "flip_vertical"
)

func (t TransformType) valid() bool {
	switch t {
	case Rotate90, Rotate180, Rotate270, FlipHorizontal, FlipVertical:
		return true
	}
	return false
}

// SwapsAxes reports whether the transform exchanges width and height.
func (t TransformType) SwapsAxes() bool {
	return t == Rotate90 || t == Rotate270
}

// Transform is a lossless rotation or flip.
type Transform struct {
	Type TransformType `json:"type" validate:"oneof=rotate90 rotate180 rotate270 flip_horizontal flip_vertical"`
}

// Kind implements Params.
func (Transform) Kind() Kind { return KindTransform }

func (t Transform) clone() Params { return t }

// Crop keeps the rectangle (X, Y, Width, Height). When AspectRatio is set
// the rectangle must honour width/height = AspectRatio to within a pixel.
type Crop struct {
	X           int      `json:"x" validate:"gte=0"`
	Y           int      `json:"y" validate:"gte=0"`
	Width       int      `json:"width" validate:"gte=1"`
	Height      int      `json:"height" validate:"gte=1"`
	AspectRatio *float64 `json:"aspect_ratio,omitempty" validate:"omitnil,gt=0"`
}

// Kind implements Params.
func (Crop) Kind() Kind { return KindCrop }

func (c Crop) clone() Params {
	c.AspectRatio = clonePtr(c.AspectRatio)
	return c
}

// Operation is a single serializable edit.
type Operation struct {
	// ID is unique per operation and chosen by the caller.
	ID string

	// Timestamp is the creation time in unix milliseconds.
	Timestamp int64

	// Params is the payload; nil only in a zero Operation.
	Params Params
}

// New returns an operation with a private copy of p, stamped with the
// current time.
func New(id string, p Params) Operation {
	o := Operation{ID: id, Timestamp: time.Now().UnixMilli()}
	if p != nil {
		o.Params = p.clone()
	}
	return o
}

// Kind returns the payload kind, or "" for a zero Operation.
func (o Operation) Kind() Kind {
	if o.Params == nil {
		return ""
	}
	return o.Params.Kind()
}

// Size is an image size in pixels.
type Size struct {
	Width  int
	Height int
}

// Next returns the image size after p is applied to an image of size s.
func (s Size) Next(p Params) Size {
	switch p := p.(type) {
	case Transform:
		if p.Type.SwapsAxes() {
			return Size{Width: s.Height, Height: s.Width}
		}
	case Crop:
		return Size{Width: p.Width, Height: p.Height}
	}
	return s
}

// Float returns a pointer to v, for Adjustment and Crop literals.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for Adjustment literals.
func Int(v int) *int { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
