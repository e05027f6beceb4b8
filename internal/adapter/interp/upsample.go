package interp

import (
	"math"

	"go.ngs.io/coreg/internal/domain"
)

// srcPosition maps the center of output pixel o (of n) onto fractional source
// pixel coordinates (of srcN), clamped to the valid center range.
func srcPosition(o, n, srcN int) float64 {
	pos := (float64(o)+0.5)*float64(srcN)/float64(n) - 0.5
	return math.Max(0, math.Min(float64(srcN-1), pos))
}

// cellIndex returns the lower corner index for interpolating at pos.
func cellIndex(pos float64, srcN int) (lo, hi int) {
	lo = int(math.Floor(pos))
	if lo > srcN-2 {
		lo = srcN - 2
	}
	if lo < 0 {
		lo = 0
	}
	hi = lo + 1
	if hi > srcN-1 {
		hi = srcN - 1
	}
	return lo, hi
}

// upsample2D interpolates src onto h rows and w columns. Both target sizes are
// expected to be at least the source sizes.
func upsample2D(src [][]float64, w, h int, method domain.UpsampleMethod) [][]float64 {
	srcH, srcW := len(src), len(src[0])
	out := alloc2D(h, w)

	if method == domain.UpsampleNearest {
		cols := make([]int, w)
		for ox := range cols {
			cols[ox] = nearestIndex(ox, w, srcW)
		}
		for oy := 0; oy < h; oy++ {
			row := src[nearestIndex(oy, h, srcH)]
			for ox, ix := range cols {
				out[oy][ox] = row[ix]
			}
		}
		return out
	}

	for oy := 0; oy < h; oy++ {
		y := srcPosition(oy, h, srcH)
		y0, y1 := cellIndex(y, srcH)
		for ox := 0; ox < w; ox++ {
			x := srcPosition(ox, w, srcW)
			x0, x1 := cellIndex(x, srcW)
			cell := GridCell{
				X0:  float64(x0),
				X1:  float64(x0) + 1,
				Y0:  float64(y0),
				Y1:  float64(y0) + 1,
				V00: src[y0][x0],
				V10: src[y0][x1],
				V01: src[y1][x0],
				V11: src[y1][x1],
			}
			// Single-pixel axes use a unit cell whose corners repeat the one value.
			v, err := BilinearInterpolate(cell, x, y)
			if err != nil {
				v = math.NaN()
			}
			out[oy][ox] = v
		}
	}
	return out
}

func nearestIndex(o, n, srcN int) int {
	i := int(math.Floor((float64(o) + 0.5) * float64(srcN) / float64(n)))
	if i > srcN-1 {
		i = srcN - 1
	}
	return i
}
