package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/coreg/internal/domain"
)

func TestGenerate_GlobalIsPixelRegistered(t *testing.T) {
	fill, err := patternFunc("constant", 2, 1)
	require.NoError(t, err)

	ds, err := generate("g.nc", Region{LatMin: -90, LatMax: 90, LonMin: -180, LonMax: 180, Resolution: 1}, 2, []string{"a", "b"}, fill)
	require.NoError(t, err)

	lat, lon := ds.Axis(domain.DimLat), ds.Axis(domain.DimLon)
	require.Len(t, lat, 180)
	require.Len(t, lon, 360)
	assert.Equal(t, -89.5, lat[0])
	assert.Equal(t, 179.5, lon[359])
	assert.True(t, domain.IsEquidistant(lat))
	assert.True(t, domain.IsPixelRegistered(lon, domain.LonOrigin))
	assert.Equal(t, []float64{0, 1}, ds.Axis(domain.DimTime))

	assert.Equal(t, []string{"a", "b"}, ds.VarNames())
	assert.Equal(t, []int{2, 180, 360}, ds.Var("a").Shape)
	assert.Equal(t, 2.0, ds.Var("b").Data[12345])
	assert.Equal(t, "EPSG:4326", ds.Attrs[domain.AttrBoundsCRS])
}

func TestGenerate_Errors(t *testing.T) {
	fill, _ := patternFunc("constant", 1, 1)
	tests := []struct {
		name   string
		region Region
		times  int
		vars   []string
	}{
		{"zero resolution", Region{LatMax: 2, LonMax: 2}, 1, []string{"a"}},
		{"no times", Region{LatMax: 2, LonMax: 2, Resolution: 1}, 0, []string{"a"}},
		{"no vars", Region{LatMax: 2, LonMax: 2, Resolution: 1}, 1, nil},
		{"single pixel", Region{LatMax: 1, LonMax: 2, Resolution: 1}, 1, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := generate("x.nc", tt.region, tt.times, tt.vars, fill)
			assert.Error(t, err)
		})
	}
}

func TestPatternFunc(t *testing.T) {
	checker, err := patternFunc("checker", 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, checker(0.5, 0.5, 0))
	assert.Equal(t, -3.0, checker(0.5, 1.5, 0))
	assert.Equal(t, -3.0, checker(-0.5, 0.5, 0))

	lat, err := patternFunc("lat", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 12.5, lat(10.5, 99, 1))

	_, err = patternFunc("noise", 1, 1)
	assert.Error(t, err)
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"sst", "chl"}, splitNames(" sst, ,chl "))
	assert.Nil(t, splitNames(""))
}
