package op

import (
	"errors"
	"math"
	"testing"
)

func TestValidateAccepts(t *testing.T) {
	bounds := &Size{Width: 800, Height: 600}

	tests := []struct {
		name string
		p    Params
	}{
		{"grayscale", Filter{Type: FilterGrayscale, Intensity: 1}},
		{"sepia zero intensity", Filter{Type: FilterSepia, Intensity: 0}},
		{"blur", Filter{Type: FilterBlur, Intensity: 0.5, Radius: 2}},
		{"blur max radius", Filter{Type: FilterBlur, Intensity: 1, Radius: 100}},
		{"sharpen", Filter{Type: FilterSharpen, Intensity: 1}},
		{"brightness bounds", Adjustment{Brightness: Float(2)}},
		{"contrast zero", Adjustment{Contrast: Float(0)}},
		{"hue negative", Adjustment{Hue: Int(-180)}},
		{"gamma low", Adjustment{Gamma: Float(0.1)}},
		{"all adjustments", Adjustment{Brightness: Float(1), Contrast: Float(1), Saturation: Float(1), Hue: Int(0), Gamma: Float(1)}},
		{"rotate", Transform{Type: Rotate270}},
		{"flip", Transform{Type: FlipVertical}},
		{"crop full", Crop{X: 0, Y: 0, Width: 800, Height: 600}},
		{"crop aspect", Crop{X: 0, Y: 0, Width: 400, Height: 300, AspectRatio: Float(4.0 / 3)}},
		{"crop aspect off by one", Crop{X: 0, Y: 0, Width: 401, Height: 300, AspectRatio: Float(4.0 / 3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(New("id", tt.p), bounds); err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	bounds := &Size{Width: 800, Height: 600}

	tests := []struct {
		name  string
		id    string
		p     Params
		field string
	}{
		{"empty id", "", Filter{Type: FilterInvert, Intensity: 1}, "id"},
		{"no params", "x", nil, "operation"},
		{"intensity high", "x", Filter{Type: FilterInvert, Intensity: 1.1}, "intensity"},
		{"intensity negative", "x", Filter{Type: FilterSepia, Intensity: -0.1}, "intensity"},
		{"intensity NaN", "x", Filter{Type: FilterSepia, Intensity: math.NaN()}, "intensity"},
		{"unknown filter", "x", Filter{Type: "emboss", Intensity: 1}, "type"},
		{"blur zero radius", "x", Filter{Type: FilterBlur, Intensity: 1}, "radius"},
		{"blur huge radius", "x", Filter{Type: FilterBlur, Intensity: 1, Radius: 101}, "radius"},
		{"brightness 2.5", "x", Adjustment{Brightness: Float(2.5)}, "brightness"},
		{"saturation negative", "x", Adjustment{Saturation: Float(-1)}, "saturation"},
		{"hue 181", "x", Adjustment{Hue: Int(181)}, "hue"},
		{"gamma zero", "x", Adjustment{Gamma: Float(0)}, "gamma"},
		{"empty adjustment", "x", Adjustment{}, "adjustment"},
		{"unknown transform", "x", Transform{Type: "rotate45"}, "type"},
		{"crop zero width", "x", Crop{Width: 0, Height: 10}, "width"},
		{"crop negative x", "x", Crop{X: -1, Width: 10, Height: 10}, "x"},
		{"crop too wide", "x", Crop{X: 700, Width: 101, Height: 10}, "x+width"},
		{"crop too tall", "x", Crop{Y: 1, Width: 10, Height: 600}, "y+height"},
		{"crop 1920x1080 on 800x600", "x", Crop{Width: 1920, Height: 1080}, "x+width"},
		{"crop max x offset", "x", Crop{X: math.MaxInt, Width: 1, Height: 1}, "x+width"},
		{"crop max y offset", "x", Crop{Y: math.MaxInt, Width: 1, Height: 1}, "y+height"},
		{"crop max width", "x", Crop{X: 1, Width: math.MaxInt, Height: 1}, "x+width"},
		{"crop aspect violated", "x", Crop{Width: 400, Height: 400, AspectRatio: Float(4.0 / 3)}, "width"},
		{"crop aspect zero", "x", Crop{Width: 4, Height: 4, AspectRatio: Float(0)}, "aspect_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(New(tt.id, tt.p), bounds)
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %T, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q (err: %v)", verr.Field, tt.field, err)
			}
			if verr.Bound == "" {
				t.Error("Bound should name the violated bound")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Error("errors.Is(err, ErrInvalid) = false")
			}
		})
	}
}

func TestValidateBrightnessReportsValue(t *testing.T) {
	err := Validate(New("b", Adjustment{Brightness: Float(2.5)}), nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() = %v, want *ValidationError", err)
	}
	if verr.OpID != "b" {
		t.Errorf("OpID = %q, want %q", verr.OpID, "b")
	}
	if verr.Value != 2.5 {
		t.Errorf("Value = %v, want 2.5", verr.Value)
	}
	if verr.Bound != "in [0, 2]" {
		t.Errorf("Bound = %q, want %q", verr.Bound, "in [0, 2]")
	}
}

func TestValidateCropWithoutBounds(t *testing.T) {
	if err := Validate(New("c", Crop{X: 5000, Y: 5000, Width: 10, Height: 10}), nil); err != nil {
		t.Errorf("Validate(nil bounds) = %v, want nil", err)
	}
}

func TestValidateSequenceTracksSize(t *testing.T) {
	base := Size{Width: 800, Height: 600}

	// After a 90° rotation the image is 600x800, so a 600x700 crop fits.
	ok := []Operation{
		New("r", Transform{Type: Rotate90}),
		New("c", Crop{Width: 600, Height: 700}),
	}
	if err := ValidateSequence(ok, base); err != nil {
		t.Errorf("ValidateSequence(rotated crop) = %v, want nil", err)
	}

	// A second crop is checked against the first crop's size.
	bad := []Operation{
		New("c1", Crop{Width: 100, Height: 100}),
		New("c2", Crop{Width: 200, Height: 50}),
	}
	err := ValidateSequence(bad, base)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.OpID != "c2" {
		t.Errorf("ValidateSequence(nested crop) = %v, want error for c2", err)
	}
}
