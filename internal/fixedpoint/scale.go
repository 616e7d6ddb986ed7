package fixedpoint

import (
	"fmt"
	"math"
)

// Defaults applied when a registration does not set width or base.
// Two decimal digits matches currencies stored in cents.
const (
	DefaultWidth = 2
	DefaultBase  = 10
)

// int64 bounds as float64. 2^63 is exact; MaxInt64 is not representable.
const (
	maxStored = 0x1p63
	minStored = -0x1p63
)

// ScaleSpec describes how a decimal value maps onto its stored integer.
// Width is the number of fractional digits in Base.
type ScaleSpec struct {
	Width int   `json:"width"`
	Base  int64 `json:"base"`
}

// DefaultScale returns width 2, base 10.
func DefaultScale() ScaleSpec {
	return ScaleSpec{Width: DefaultWidth, Base: DefaultBase}
}

// NewScale returns a validated ScaleSpec.
func NewScale(width int, base int64) (ScaleSpec, error) {
	s := ScaleSpec{Width: width, Base: base}
	if err := s.Validate(); err != nil {
		return ScaleSpec{}, err
	}
	return s, nil
}

// Validate checks that the scale forms a positive factor that fits in int64.
func (s ScaleSpec) Validate() error {
	if s.Width < 0 {
		return newScaleError("width must be non-negative, got %d", s.Width)
	}
	if s.Base < 2 {
		return newScaleError("base must be at least 2, got %d", s.Base)
	}
	if _, ok := pow(s.Base, s.Width); !ok {
		return newScaleError("factor %d^%d overflows int64", s.Base, s.Width)
	}
	return nil
}

// Factor returns Base^Width. It returns 0 for a scale that fails Validate.
func (s ScaleSpec) Factor() int64 {
	if s.Width < 0 || s.Base < 2 {
		return 0
	}
	f, ok := pow(s.Base, s.Width)
	if !ok {
		return 0
	}
	return f
}

// String formats the scale as "width=W base=B".
func (s ScaleSpec) String() string {
	return fmt.Sprintf("width=%d base=%d", s.Width, s.Base)
}

// pow computes base^exp with overflow detection.
func pow(base int64, exp int) (int64, bool) {
	result := int64(1)
	for i := 0; i < exp; i++ {
		if result > math.MaxInt64/base {
			return 0, false
		}
		result *= base
	}
	return result, true
}

// ToStored scales value into its stored integer form, rounding half away
// from zero. NaN, infinities and results outside the int64 range are
// rejected with INVALID_VALUE.
func ToStored(value float64, scale ScaleSpec) (int64, error) {
	return toStored("", value, scale)
}

func toStored(field string, value float64, scale ScaleSpec) (int64, error) {
	factor := scale.Factor()
	if factor <= 0 {
		err := newScaleError("cannot scale with %s", scale)
		err.Field = field
		return 0, err
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, newValueError(field, "value %v is not finite", value)
	}

	scaled := math.Round(value * float64(factor))
	if scaled >= maxStored || scaled < minStored {
		return 0, newValueError(field, "value %v scaled by %d overflows int64", value, factor)
	}

	return int64(scaled), nil
}

// FromStored converts a stored integer back to its decimal value.
// An absent raw value (ok == false) stays absent.
func FromStored(raw int64, ok bool, scale ScaleSpec) (float64, bool) {
	if !ok {
		return 0, false
	}
	factor := scale.Factor()
	if factor <= 0 {
		return 0, false
	}
	return float64(raw) / float64(factor), true
}
