package domain

import (
	"fmt"
	"math"
)

// Global grid origins. Grids are symmetric around zero, so the upper bound of
// an axis is the absolute value of its origin.
const (
	LatOrigin = -90.0
	LonOrigin = -180.0
)

// Checker applies the grid checks used before coregistration.
//
// The zero value compares floating-point steps and remainders exactly.
// A positive Tolerance accepts absolute deviations up to Tolerance instead,
// which helps with grids whose coordinates were written at reduced precision.
type Checker struct {
	Tolerance float64
}

// IsEquidistant reports whether consecutive values of axis are spaced exactly alike.
func IsEquidistant(axis []float64) bool {
	return Checker{}.IsEquidistant(axis)
}

// IsPixelRegistered reports whether axis values denote pixel centers relative to origin.
func IsPixelRegistered(axis []float64, origin float64) bool {
	return Checker{}.IsPixelRegistered(axis, origin)
}

// IsWithinBounds reports whether axis lies inside [lowBound, |lowBound|].
func IsWithinBounds(axis []float64, lowBound float64) bool {
	if len(axis) == 0 {
		return false
	}
	return axis[0] >= lowBound && axis[len(axis)-1] <= math.Abs(lowBound)
}

// IsValidVariable reports whether v has exactly the dimensions time, lat and lon.
func IsValidVariable(v *Variable) bool {
	if v == nil || len(v.Dims) != 3 {
		return false
	}
	return v.DimIndex(DimTime) >= 0 && v.DimIndex(DimLat) >= 0 && v.DimIndex(DimLon) >= 0
}

// PixelSize returns the distance between the first two values of axis, or 0.
func PixelSize(axis []float64) float64 {
	if len(axis) < 2 {
		return 0
	}
	return math.Abs(axis[1] - axis[0])
}

// IsEquidistant reports whether every step of axis equals its first step.
func (c Checker) IsEquidistant(axis []float64) bool {
	if len(axis) < 2 {
		return false
	}
	step := PixelSize(axis)
	for i := 0; i < len(axis)-1; i++ {
		if !c.equal(math.Abs(axis[i+1]-axis[i]), step) {
			return false
		}
	}
	return true
}

// IsPixelRegistered reports whether (axis[0] - step/2 - origin) is a multiple of step.
func (c Checker) IsPixelRegistered(axis []float64, origin float64) bool {
	step := PixelSize(axis)
	if step == 0 {
		return false
	}
	return c.isMultiple(axis[0]-step/2-origin, step)
}

// ValidateAxis runs the bounds, equidistance and registration checks on one axis,
// in that order. role names the dataset (e.g., "master") for error messages.
func (c Checker) ValidateAxis(role, name string, axis []float64, origin float64) error {
	if len(axis) < 2 {
		return fmt.Errorf("%w: the %s dataset %s grid needs at least two values, got %d",
			ErrGridNotEquidistant, role, name, len(axis))
	}
	if !IsWithinBounds(axis, origin) {
		return fmt.Errorf("%w: the %s dataset %s grid does not fall into required boundaries. "+
			"Required boundaries are (%g, %g), dataset boundaries are (%g, %g). "+
			"Running the normalize operation may help",
			ErrGridBounds, role, name, origin, math.Abs(origin), axis[0], axis[len(axis)-1])
	}
	if !c.IsEquidistant(axis) {
		return fmt.Errorf("%w: the %s dataset %s grid is not equidistant, can not perform coregistration",
			ErrGridNotEquidistant, role, name)
	}
	if !c.IsPixelRegistered(axis, origin) {
		return fmt.Errorf("%w: the %s dataset %s grid is not pixel-registered, can not perform coregistration",
			ErrGridNotPixelRegistered, role, name)
	}
	return nil
}

// ValidateVariable checks that v is a (time, lat, lon) variable.
func ValidateVariable(role string, v *Variable) error {
	if IsValidVariable(v) {
		return nil
	}
	var name string
	var dims []string
	if v != nil {
		name, dims = v.Name, v.Dims
	}
	return fmt.Errorf("%w: %s data array of %s dataset is not valid for coregistration. "+
		"Expected coordinates are (lat, lon, time), received coordinates are %v, "+
		"consider running select_var and/or normalize operations first",
		ErrInvalidVariableShape, name, role, dims)
}

func (c Checker) equal(a, b float64) bool {
	if c.Tolerance <= 0 {
		return a == b
	}
	return math.Abs(a-b) <= c.Tolerance
}

// isMultiple reports whether x mod step is zero.
func (c Checker) isMultiple(x, step float64) bool {
	r := math.Mod(x, step)
	if c.Tolerance <= 0 {
		return r == 0
	}
	r = math.Abs(r)
	return r <= c.Tolerance || step-r <= c.Tolerance
}
