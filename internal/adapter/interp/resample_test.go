package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/coreg/internal/domain"
)

func constant2D(rows, cols int, v float64) [][]float64 {
	out := alloc2D(rows, cols)
	for _, row := range out {
		for j := range row {
			row[j] = v
		}
	}
	return out
}

func TestResample2D_SameShapeCopies(t *testing.T) {
	src := [][]float64{{1, 2}, {3, 4}}

	got, err := Resample2D(src, 2, 2, domain.DownsampleMean, domain.UpsampleLinear)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	got[0][0] = 99
	assert.Equal(t, 1.0, src[0][0], "result must not alias the source")
}

func TestResample2D_ConstantMeanDownsample(t *testing.T) {
	tests := []struct {
		name       string
		srcH, srcW int
		h, w       int
	}{
		{"half resolution", 360, 720, 180, 360},
		{"third resolution", 9, 12, 3, 4},
		{"non-integer ratio", 7, 10, 3, 4},
		{"single pixel", 5, 5, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resample2D(constant2D(tt.srcH, tt.srcW, 1.0), tt.w, tt.h, domain.DownsampleMean, domain.UpsampleLinear)
			require.NoError(t, err)
			require.Len(t, got, tt.h)
			for i, row := range got {
				require.Len(t, row, tt.w)
				for j, v := range row {
					if v != 1.0 {
						t.Fatalf("cell (%d, %d) = %v, want 1.0", i, j, v)
					}
				}
			}
		})
	}
}

func TestResample2D_DownsampleMethods(t *testing.T) {
	nan := math.NaN()
	src := [][]float64{
		{1, 2, 5, 5},
		{3, 4, 5, 6},
		{1, 1, nan, nan},
		{2, 3, nan, nan},
	}

	tests := []struct {
		method domain.DownsampleMethod
		want   [][]float64
	}{
		{domain.DownsampleFirst, [][]float64{{1, 5}, {1, nan}}},
		{domain.DownsampleLast, [][]float64{{4, 6}, {3, nan}}},
		{domain.DownsampleMean, [][]float64{{2.5, 5.25}, {1.75, nan}}},
		{domain.DownsampleMode, [][]float64{{1, 5}, {1, nan}}},
		{domain.DownsampleVar, [][]float64{{1.25, 0.1875}, {0.6875, nan}}},
		{domain.DownsampleStd, [][]float64{{math.Sqrt(1.25), math.Sqrt(0.1875)}, {math.Sqrt(0.6875), nan}}},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			got, err := Resample2D(src, 2, 2, tt.method, domain.UpsampleLinear)
			require.NoError(t, err)
			for i := range tt.want {
				for j, want := range tt.want[i] {
					if math.IsNaN(want) {
						assert.True(t, math.IsNaN(got[i][j]), "cell (%d, %d) = %v, want NaN", i, j, got[i][j])
						continue
					}
					assert.InDelta(t, want, got[i][j], 1e-12, "cell (%d, %d)", i, j)
				}
			}
		})
	}
}

func TestResample2D_ModeSkipsMaskedCells(t *testing.T) {
	nan := math.NaN()
	src := [][]float64{
		{7, nan},
		{nan, nan},
	}

	// Mode would otherwise be ambiguous between 7 and NaN.
	got, err := Resample2D(src, 1, 1, domain.DownsampleMode, domain.UpsampleNearest)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got[0][0])
}

func TestResample2D_WeightedPartialCoverage(t *testing.T) {
	// Three source columns onto two: each output pixel covers 1.5 source pixels.
	src := [][]float64{{0, 3, 6}}

	got, err := Resample2D(src, 2, 1, domain.DownsampleMean, domain.UpsampleLinear)
	require.NoError(t, err)
	// (0*1 + 3*0.5)/1.5 = 1 and (3*0.5 + 6*1)/1.5 = 5.
	assert.InDelta(t, 1.0, got[0][0], 1e-12)
	assert.InDelta(t, 5.0, got[0][1], 1e-12)
}

func TestResample2D_UpsampleNearest(t *testing.T) {
	src := [][]float64{{1, 2}, {3, 4}}

	got, err := Resample2D(src, 4, 4, domain.DownsampleMean, domain.UpsampleNearest)
	require.NoError(t, err)
	want := [][]float64{
		{1, 1, 2, 2},
		{1, 1, 2, 2},
		{3, 3, 4, 4},
		{3, 3, 4, 4},
	}
	assert.Equal(t, want, got)
}

func TestResample2D_UpsampleLinear(t *testing.T) {
	src := [][]float64{{0, 10}}

	got, err := Resample2D(src, 4, 1, domain.DownsampleMean, domain.UpsampleLinear)
	require.NoError(t, err)
	want := []float64{0, 2.5, 7.5, 10}
	for j, w := range want {
		assert.InDelta(t, w, got[0][j], 1e-12, "column %d", j)
	}
}

func TestResample2D_UpsampleLinearMasked(t *testing.T) {
	nan := math.NaN()
	src := [][]float64{{1, nan}, {1, 1}}

	got, err := Resample2D(src, 4, 4, domain.DownsampleMean, domain.UpsampleLinear)
	require.NoError(t, err)
	for i, row := range got {
		for j, v := range row {
			if i == 0 && j == 3 {
				// Only the masked corner carries weight here.
				assert.True(t, math.IsNaN(v), "cell (%d, %d) = %v", i, j, v)
				continue
			}
			assert.InDelta(t, 1.0, v, 1e-12, "cell (%d, %d)", i, j)
		}
	}
}

func TestResample2D_MixedDirections(t *testing.T) {
	got, err := Resample2D(constant2D(4, 2, 3.0), 4, 2, domain.DownsampleMean, domain.UpsampleLinear)
	require.NoError(t, err)
	assert.Equal(t, constant2D(2, 4, 3.0), got)

	got, err = Resample2D(constant2D(2, 4, 3.0), 2, 4, domain.DownsampleMean, domain.UpsampleNearest)
	require.NoError(t, err)
	assert.Equal(t, constant2D(4, 2, 3.0), got)
}

func TestResample2D_Errors(t *testing.T) {
	src := [][]float64{{1, 2}, {3, 4}}

	_, err := Resample2D(nil, 1, 1, domain.DownsampleMean, domain.UpsampleLinear)
	assert.Error(t, err)

	_, err = Resample2D([][]float64{{1, 2}, {3}}, 1, 1, domain.DownsampleMean, domain.UpsampleLinear)
	assert.Error(t, err)

	_, err = Resample2D(src, 0, 1, domain.DownsampleMean, domain.UpsampleLinear)
	assert.Error(t, err)

	_, err = Resample2D(src, 1, 1, domain.DownsampleMethod(53), domain.UpsampleLinear)
	assert.ErrorIs(t, err, domain.ErrUnknownMethod)

	_, err = Resample2D(src, 1, 1, domain.DownsampleMean, domain.UpsampleMethod(12))
	assert.ErrorIs(t, err, domain.ErrUnknownMethod)
}

func TestMaskInvalid(t *testing.T) {
	src := [][]float64{{math.Inf(1), 1}, {math.Inf(-1), math.NaN()}}

	got := MaskInvalid(src)

	assert.True(t, math.IsNaN(got[0][0]))
	assert.Equal(t, 1.0, got[0][1])
	assert.True(t, math.IsNaN(got[1][0]))
	assert.True(t, math.IsNaN(got[1][1]))
	assert.True(t, math.IsInf(src[0][0], 1), "source must be left untouched")
}
