package interp

import (
	"fmt"
	"math"

	"go.ngs.io/coreg/internal/domain"
)

// Resample2D resamples src (Values[row][col]) to h rows and w columns.
//
// The direction is decided per axis: an axis that grows is interpolated with
// us, an axis that shrinks is aggregated with ds. When one axis grows and the
// other shrinks, aggregation runs first. NaN cells are treated as missing.
// An unchanged shape returns a copy of src.
func Resample2D(src [][]float64, w, h int, ds domain.DownsampleMethod, us domain.UpsampleMethod) ([][]float64, error) {
	srcH, srcW, err := shape(src)
	if err != nil {
		return nil, err
	}
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("invalid target size %dx%d", w, h)
	}
	if !us.Valid() {
		return nil, fmt.Errorf("%w: upsampling code %d", domain.ErrUnknownMethod, int(us))
	}
	if !ds.Valid() {
		return nil, fmt.Errorf("%w: downsampling code %d", domain.ErrUnknownMethod, int(ds))
	}

	switch {
	case w == srcW && h == srcH:
		return copy2D(src), nil
	case w >= srcW && h >= srcH:
		return upsample2D(src, w, h, us), nil
	case w <= srcW && h <= srcH:
		return downsample2D(src, w, h, ds), nil
	case w > srcW:
		// Rows shrink, columns grow.
		return upsample2D(downsample2D(src, srcW, h, ds), w, h, us), nil
	default:
		// Columns shrink, rows grow.
		return upsample2D(downsample2D(src, w, srcH, ds), w, h, us), nil
	}
}

// MaskInvalid returns a copy of values with every non-finite cell set to NaN.
func MaskInvalid(values [][]float64) [][]float64 {
	out := copy2D(values)
	for _, row := range out {
		for j, v := range row {
			if math.IsInf(v, 0) {
				row[j] = math.NaN()
			}
		}
	}
	return out
}

func shape(src [][]float64) (rows, cols int, err error) {
	if len(src) == 0 || len(src[0]) == 0 {
		return 0, 0, fmt.Errorf("source grid is empty")
	}
	cols = len(src[0])
	for i, row := range src {
		if len(row) != cols {
			return 0, 0, fmt.Errorf("row %d has %d values, expected %d", i, len(row), cols)
		}
	}
	return len(src), cols, nil
}

func copy2D(src [][]float64) [][]float64 {
	out := make([][]float64, len(src))
	for i, row := range src {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func alloc2D(rows, cols int) [][]float64 {
	flat := make([]float64, rows*cols)
	out := make([][]float64, rows)
	for i := range out {
		out[i] = flat[i*cols : (i+1)*cols]
	}
	return out
}
