package editstate

import (
	"fmt"
	"math"
	"strings"

	"github.com/example/studio/internal/geom"
)

// Adjustments are the filter parameters applied to the source image.
// Percentages use 100 as neutral for brightness, contrast and saturation.
type Adjustments struct {
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Contrast   float64 `json:"contrast" yaml:"contrast"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
	Grayscale  float64 `json:"grayscale" yaml:"grayscale"`
	Sepia      float64 `json:"sepia" yaml:"sepia"`
	Invert     float64 `json:"invert" yaml:"invert"`
	Blur       float64 `json:"blur" yaml:"blur"`
	HueRotate  float64 `json:"hue_rotate" yaml:"hue_rotate"`
}

// Range describes the valid interval and neutral value of an adjustment.
type Range struct {
	Name     string
	Min, Max float64
	Default  float64
	Unit     string
}

// Ranges lists every adjustment in filter chain order.
var Ranges = []Range{
	{Name: "brightness", Min: 0, Max: 200, Default: 100, Unit: "%"},
	{Name: "contrast", Min: 0, Max: 200, Default: 100, Unit: "%"},
	{Name: "saturation", Min: 0, Max: 200, Default: 100, Unit: "%"},
	{Name: "grayscale", Min: 0, Max: 100, Default: 0, Unit: "%"},
	{Name: "sepia", Min: 0, Max: 100, Default: 0, Unit: "%"},
	{Name: "invert", Min: 0, Max: 100, Default: 0, Unit: "%"},
	{Name: "blur", Min: 0, Max: 20, Default: 0, Unit: "px"},
	{Name: "hue_rotate", Min: 0, Max: 360, Default: 0, Unit: "deg"},
}

// DefaultAdjustments returns the neutral adjustments.
func DefaultAdjustments() Adjustments {
	return Adjustments{Brightness: 100, Contrast: 100, Saturation: 100}
}

func (a *Adjustments) field(name string) (*float64, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "brightness":
		return &a.Brightness, nil
	case "contrast":
		return &a.Contrast, nil
	case "saturation", "saturate":
		return &a.Saturation, nil
	case "grayscale":
		return &a.Grayscale, nil
	case "sepia":
		return &a.Sepia, nil
	case "invert":
		return &a.Invert, nil
	case "blur":
		return &a.Blur, nil
	case "hue_rotate", "hue":
		return &a.HueRotate, nil
	}
	return nil, fmt.Errorf("unknown adjustment %q", name)
}

// Get returns the named adjustment.
func (a Adjustments) Get(name string) (float64, error) {
	p, err := a.field(name)
	if err != nil {
		return 0, err
	}
	return *p, nil
}

// Set returns a copy of a with the named adjustment set and clamped.
func (a Adjustments) Set(name string, v float64) (Adjustments, error) {
	p, err := a.field(name)
	if err != nil {
		return a, err
	}
	*p = v
	return a.Clamped(), nil
}

// Clamped returns a with every value forced into its range.
func (a Adjustments) Clamped() Adjustments {
	for _, r := range Ranges {
		p, _ := a.field(r.Name)
		if math.IsNaN(*p) {
			*p = r.Default
		}
		*p = math.Max(r.Min, math.Min(r.Max, *p))
	}
	return a
}

// IsNeutral reports whether a leaves pixels untouched.
func (a Adjustments) IsNeutral() bool { return a == DefaultAdjustments() }

// Transforms is the geometric orientation applied to the source image.
type Transforms struct {
	Rotation float64 `json:"rotation" yaml:"rotation"`
	FlipH    bool    `json:"flip_h" yaml:"flip_h"`
	FlipV    bool    `json:"flip_v" yaml:"flip_v"`
}

// Normalized returns t with Rotation in [0,360).
func (t Transforms) Normalized() Transforms {
	t.Rotation = geom.NormalizeDegrees(t.Rotation)
	return t
}

// Rotate returns t rotated by deg.
func (t Transforms) Rotate(deg float64) Transforms {
	t.Rotation += deg
	return t.Normalized()
}

// RotateLeft turns counter-clockwise by a quarter.
func (t Transforms) RotateLeft() Transforms { return t.Rotate(-90) }

// RotateRight turns clockwise by a quarter.
func (t Transforms) RotateRight() Transforms { return t.Rotate(90) }

// ToggleFlipH mirrors horizontally.
func (t Transforms) ToggleFlipH() Transforms {
	t.FlipH = !t.FlipH
	return t
}

// ToggleFlipV mirrors vertically.
func (t Transforms) ToggleFlipV() Transforms {
	t.FlipV = !t.FlipV
	return t
}

// IsIdentity reports whether t leaves the image as is.
func (t Transforms) IsIdentity() bool { return t == Transforms{} }
