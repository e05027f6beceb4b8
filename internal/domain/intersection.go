package domain

import (
	"fmt"
	"math"
	"sort"
)

// maxSnapSteps bounds the number of finer-pixel steps taken while moving an
// intersection edge onto a shared pixel boundary.
const maxSnapSteps = 100

// Bounds is a closed interval along one spatial axis.
type Bounds struct {
	Min float64
	Max float64
}

// Global bounds of the supported lat/lon grids.
var (
	LatBounds = Bounds{Min: LatOrigin, Max: -LatOrigin}
	LonBounds = Bounds{Min: LonOrigin, Max: -LonOrigin}
)

// Contains reports whether x lies inside the closed interval.
func (b Bounds) Contains(x float64) bool {
	return x >= b.Min && x <= b.Max
}

func (b Bounds) String() string {
	return fmt.Sprintf("(%g, %g)", b.Min, b.Max)
}

// FindIntersection returns the overlap of two pixel-registered axes, with both
// edges moved onto pixel boundaries relative to global.
func FindIntersection(first, second []float64, global Bounds) (Bounds, error) {
	return Checker{}.FindIntersection(first, second, global)
}

// FindIntersection returns the overlap of first and second whose edges fall on a
// pixel boundary of either axis, measured from global.Min for the lower edge and
// from global.Max for the upper edge.
func (c Checker) FindIntersection(first, second []float64, global Bounds) (Bounds, error) {
	if len(first) < 2 || len(second) < 2 {
		return Bounds{}, fmt.Errorf("%w: axes need at least two values (got %d and %d)",
			ErrNoIntersection, len(first), len(second))
	}

	firstPx := PixelSize(first)
	secondPx := PixelSize(second)

	minimum := math.Max(first[0]-firstPx/2, second[0]-secondPx/2)
	maximum := math.Min(first[len(first)-1]+firstPx/2, second[len(second)-1]+secondPx/2)

	if maximum-minimum < math.Max(firstPx, secondPx) {
		return Bounds{}, fmt.Errorf("%w: overlap (%g, %g) is smaller than one pixel (%g)",
			ErrNoIntersection, minimum, maximum, math.Max(firstPx, secondPx))
	}

	// A coarse pixel spans a whole number of finer pixels when both grids share
	// an origin, so stepping by the finer size reaches a common boundary.
	finer := math.Min(firstPx, secondPx)

	for i := 0; !c.isMultiple(minimum-global.Min, firstPx) && !c.isMultiple(minimum-global.Min, secondPx); i++ {
		if i == maxSnapSteps {
			return Bounds{}, fmt.Errorf("%w: lower edge did not reach a pixel boundary after %d steps",
				ErrNoIntersection, maxSnapSteps)
		}
		minimum += finer
	}

	for i := 0; !c.isMultiple(global.Max-maximum, firstPx) && !c.isMultiple(global.Max-maximum, secondPx); i++ {
		if i == maxSnapSteps {
			return Bounds{}, fmt.Errorf("%w: upper edge did not reach a pixel boundary after %d steps",
				ErrNoIntersection, maxSnapSteps)
		}
		maximum -= finer
	}

	// Misaligned grids can snap past each other.
	if maximum <= minimum {
		return Bounds{}, fmt.Errorf("%w: snapped bounds (%g, %g) are empty", ErrNoIntersection, minimum, maximum)
	}
	outer := Bounds{Min: global.Min - c.Tolerance, Max: global.Max + c.Tolerance}
	if !outer.Contains(minimum) || !outer.Contains(maximum) {
		return Bounds{}, fmt.Errorf("%w: snapped bounds (%g, %g) leave the global extent %s",
			ErrNoIntersection, minimum, maximum, global)
	}

	return Bounds{Min: minimum, Max: maximum}, nil
}

// SelectRange returns the half-open index range [start, end) of the ascending
// axis values lying inside b, inclusive of both edges.
func SelectRange(axis []float64, b Bounds) (start, end int) {
	start = sort.SearchFloat64s(axis, b.Min)
	end = sort.Search(len(axis), func(i int) bool { return axis[i] > b.Max })
	if end < start {
		end = start
	}
	return start, end
}
