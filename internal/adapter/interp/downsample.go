package interp

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"go.ngs.io/coreg/internal/domain"
)

// span is a source pixel with the fraction of it covered by an output pixel.
type span struct {
	index  int
	weight float64
}

// coverage returns the source pixels overlapped by output pixel o of n when
// srcN source pixels are aggregated, with their overlap fractions.
func coverage(o, n, srcN int) []span {
	scale := float64(srcN) / float64(n)
	lo := float64(o) * scale
	hi := float64(o+1) * scale

	first := int(math.Floor(lo))
	last := int(math.Ceil(hi)) - 1
	if last > srcN-1 {
		last = srcN - 1
	}

	spans := make([]span, 0, last-first+1)
	for i := first; i <= last; i++ {
		w := math.Min(hi, float64(i+1)) - math.Max(lo, float64(i))
		if w > 0 {
			spans = append(spans, span{index: i, weight: w})
		}
	}
	return spans
}

// downsample2D aggregates src onto h rows and w columns. Both target sizes are
// expected to be at most the source sizes.
func downsample2D(src [][]float64, w, h int, method domain.DownsampleMethod) [][]float64 {
	srcH, srcW := len(src), len(src[0])
	out := alloc2D(h, w)

	cols := make([][]span, w)
	for ox := range cols {
		cols[ox] = coverage(ox, w, srcW)
	}

	var values, weights []float64
	for oy := 0; oy < h; oy++ {
		rows := coverage(oy, h, srcH)
		for ox := 0; ox < w; ox++ {
			values, weights = values[:0], weights[:0]
			for _, ry := range rows {
				row := src[ry.index]
				for _, cx := range cols[ox] {
					v := row[cx.index]
					if math.IsNaN(v) {
						continue
					}
					values = append(values, v)
					weights = append(weights, ry.weight*cx.weight)
				}
			}
			out[oy][ox] = aggregate(values, weights, method)
		}
	}
	return out
}

// aggregate reduces the valid values of one output pixel. An empty pixel is NaN.
func aggregate(values, weights []float64, method domain.DownsampleMethod) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	switch method {
	case domain.DownsampleFirst:
		return values[0]
	case domain.DownsampleLast:
		return values[len(values)-1]
	case domain.DownsampleMode:
		mode, _ := stat.Mode(values, weights)
		return mode
	case domain.DownsampleVar:
		return stat.PopVariance(values, weights)
	case domain.DownsampleStd:
		return stat.PopStdDev(values, weights)
	default:
		return stat.Mean(values, weights)
	}
}
