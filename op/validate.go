package op

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid matches every *ValidationError with errors.Is.
var ErrInvalid = errors.New("op: invalid operation")

// MaxBlurRadius is the largest accepted blur sigma.
const MaxBlurRadius = 100

// ValidationError names the offending field and the bound it violated.
type ValidationError struct {
	OpID  string
	Field string
	Bound string
	Value any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("op %q: %s must be %s", e.OpID, e.Field, e.Bound)
	}
	return fmt.Sprintf("op %q: %s = %v, must be %s", e.OpID, e.Field, e.Value, e.Bound)
}

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// fieldBounds maps wire field names to the bound reported when a struct tag
// check fails.
var fieldBounds = map[string]string{
	"intensity":    "in [0, 1]",
	"brightness":   "in [0, 2]",
	"contrast":     "in [0, 2]",
	"saturation":   "in [0, 2]",
	"hue":          "in [-180, 180]",
	"gamma":        "in [0.1, 3]",
	"x":            ">= 0",
	"y":            ">= 0",
	"width":        ">= 1",
	"height":       ">= 1",
	"aspect_ratio": "> 0",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks o without side effects. When bounds is non-nil, a crop
// must lie within an image of that size. Validate never modifies o.
func Validate(o Operation, bounds *Size) error {
	if o.ID == "" {
		return &ValidationError{Field: "id", Bound: "non-empty"}
	}
	if o.Params == nil {
		return &ValidationError{OpID: o.ID, Field: "operation", Bound: "present"}
	}

	if err := validate.Struct(o.Params); err != nil {
		return fromValidator(o.ID, err)
	}

	switch p := o.Params.(type) {
	case Filter:
		if p.Type == FilterBlur && (!(p.Radius > 0) || p.Radius > MaxBlurRadius) {
			return &ValidationError{OpID: o.ID, Field: "radius", Bound: "in (0, 100]", Value: p.Radius}
		}
	case Adjustment:
		if p.IsEmpty() {
			return &ValidationError{OpID: o.ID, Field: "adjustment", Bound: "at least one field"}
		}
	case Transform:
	case Crop:
		return validateCrop(o.ID, p, bounds)
	}
	return nil
}

func validateCrop(id string, c Crop, bounds *Size) error {
	if bounds != nil {
		// Subtraction form: x+width can overflow for hostile offsets.
		if c.Width > bounds.Width || c.X > bounds.Width-c.Width {
			return &ValidationError{
				OpID:  id,
				Field: "x+width",
				Bound: fmt.Sprintf("<= image width %d", bounds.Width),
				Value: fmt.Sprintf("%d+%d", c.X, c.Width),
			}
		}
		if c.Height > bounds.Height || c.Y > bounds.Height-c.Height {
			return &ValidationError{
				OpID:  id,
				Field: "y+height",
				Bound: fmt.Sprintf("<= image height %d", bounds.Height),
				Value: fmt.Sprintf("%d+%d", c.Y, c.Height),
			}
		}
	}
	if c.AspectRatio != nil {
		want := int(math.Round(float64(c.Height) * *c.AspectRatio))
		if abs(c.Width-want) > 1 {
			return &ValidationError{
				OpID:  id,
				Field: "width",
				Bound: fmt.Sprintf("%d±1 for aspect ratio %g", want, *c.AspectRatio),
				Value: c.Width,
			}
		}
	}
	return nil
}

// ValidateSequence validates ops in order against an image that starts at
// size base, tracking the size through every transform and crop.
func ValidateSequence(ops []Operation, base Size) error {
	size := base
	for _, o := range ops {
		if err := Validate(o, &size); err != nil {
			return err
		}
		size = size.Next(o.Params)
	}
	return nil
}

func fromValidator(id string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{OpID: id, Field: "operation", Bound: err.Error()}
	}
	fe := verrs[0]
	bound, ok := fieldBounds[fe.Field()]
	if !ok {
		bound = fe.Tag()
		if fe.Param() != "" {
			bound += " " + fe.Param()
		}
	}
	return &ValidationError{OpID: id, Field: fe.Field(), Bound: bound, Value: indirect(fe.Value())}
}

func indirect(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
