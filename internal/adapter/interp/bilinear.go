// Package interp implements the 2D raster resampling kernel: interpolation for
// upsampling and area-weighted aggregation for downsampling. Missing values are
// represented as NaN.
package interp

import (
	"fmt"
	"math"
)

// GridCell represents a cell in a regular grid with four corner values.
type GridCell struct {
	// Corner coordinates (forming a rectangle).
	X0, X1 float64 // X boundaries (column positions).
	Y0, Y1 float64 // Y boundaries (row positions).

	// Values at the four corners:
	// V00: value at (X0, Y0).
	// V10: value at (X1, Y0).
	// V01: value at (X0, Y1).
	// V11: value at (X1, Y1).
	V00, V10, V01, V11 float64
}

// BilinearInterpolate performs bilinear interpolation within a grid cell
// Formula:
//
//	f(x,y) ≈ (1-t)(1-u)f(x0,y0) + t(1-u)f(x1,y0) + (1-t)u*f(x0,y1) + tu*f(x1,y1)
//
// where:
//
//	t = (x - x0) / (x1 - x0)
//	u = (y - y0) / (y1 - y0)
//
// NaN corners are left out and the remaining weights renormalized. If every
// corner with a non-zero weight is NaN the result is NaN.
func BilinearInterpolate(cell GridCell, x, y float64) (float64, error) {
	// Validate grid cell.
	if cell.X1 <= cell.X0 {
		return 0, fmt.Errorf("invalid grid cell: X1 must be > X0")
	}
	if cell.Y1 <= cell.Y0 {
		return 0, fmt.Errorf("invalid grid cell: Y1 must be > Y0")
	}

	// Check if point is within cell (with small tolerance for floating point).
	const epsilon = 1e-9
	if x < cell.X0-epsilon || x > cell.X1+epsilon {
		return 0, fmt.Errorf("x coordinate %.6f is outside grid cell [%.6f, %.6f]", x, cell.X0, cell.X1)
	}
	if y < cell.Y0-epsilon || y > cell.Y1+epsilon {
		return 0, fmt.Errorf("y coordinate %.6f is outside grid cell [%.6f, %.6f]", y, cell.Y0, cell.Y1)
	}

	// Calculate normalized coordinates (0 to 1).
	t := (x - cell.X0) / (cell.X1 - cell.X0)
	u := (y - cell.Y0) / (cell.Y1 - cell.Y0)

	// Clamp to [0, 1] to handle edge cases with floating point precision.
	t = math.Max(0, math.Min(1, t))
	u = math.Max(0, math.Min(1, u))

	corners := [4]struct{ w, v float64 }{
		{(1 - t) * (1 - u), cell.V00},
		{t * (1 - u), cell.V10},
		{(1 - t) * u, cell.V01},
		{t * u, cell.V11},
	}

	var sum, weight float64
	for _, c := range corners {
		if c.w == 0 || math.IsNaN(c.v) {
			continue
		}
		sum += c.w * c.v
		weight += c.w
	}
	if weight == 0 {
		return math.NaN(), nil
	}
	return sum / weight, nil
}
