package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVariable_ShapeMismatch(t *testing.T) {
	_, err := NewVariable("v", []string{DimLat, DimLon}, []int{2, 3}, make([]float64, 5), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs 6 values, got 5")

	_, err = NewVariable("v", []string{DimLat}, []int{2, 3}, make([]float64, 6), nil)
	assert.Error(t, err)
}

func TestVariable_TimeSlice(t *testing.T) {
	// time=2, lat=2, lon=3 with value = 100*t + 10*lat + lon.
	data := make([]float64, 0, 12)
	for ti := 0; ti < 2; ti++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				data = append(data, float64(100*ti+10*y+x))
			}
		}
	}
	v, err := NewVariable("v", []string{DimTime, DimLat, DimLon}, []int{2, 2, 3}, data, nil)
	require.NoError(t, err)

	got, err := v.TimeSlice(1)
	require.NoError(t, err)
	want := [][]float64{{100, 101, 102}, {110, 111, 112}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TimeSlice(1) mismatch (-want +got):\n%s", diff)
	}

	_, err = v.TimeSlice(2)
	assert.Error(t, err)
}

func TestVariable_TimeSlicePermutedDims(t *testing.T) {
	// Stored as (lon=2, time=2, lat=3).
	dims := []string{DimLon, DimTime, DimLat}
	data := make([]float64, 0, 12)
	for x := 0; x < 2; x++ {
		for ti := 0; ti < 2; ti++ {
			for y := 0; y < 3; y++ {
				data = append(data, float64(100*ti+10*y+x))
			}
		}
	}
	v, err := NewVariable("v", dims, []int{2, 2, 3}, data, nil)
	require.NoError(t, err)

	got, err := v.TimeSlice(0)
	require.NoError(t, err)
	want := [][]float64{{0, 1}, {10, 11}, {20, 21}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TimeSlice(0) mismatch (-want +got):\n%s", diff)
	}
}

func TestVariable_Subset(t *testing.T) {
	// Stored as (lat=3, lon=2, time=2) with value = 100*t + 10*lat + lon.
	data := make([]float64, 0, 12)
	for y := 0; y < 3; y++ {
		for x := 0; x < 2; x++ {
			for ti := 0; ti < 2; ti++ {
				data = append(data, float64(100*ti+10*y+x))
			}
		}
	}
	v, err := NewVariable("v", []string{DimLat, DimLon, DimTime}, []int{3, 2, 2}, data, Attrs{"units": "K"})
	require.NoError(t, err)

	sub, err := v.Subset(1, 3, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{DimTime, DimLat, DimLon}, sub.Dims)
	assert.Equal(t, []int{2, 2, 1}, sub.Shape)
	assert.Equal(t, []float64{11, 21, 111, 121}, sub.Data)
	assert.Equal(t, "K", sub.Attrs["units"])

	_, err = v.Subset(0, 4, 0, 2)
	assert.Error(t, err)

	flat, _ := NewVariable("flat", []string{DimLat, DimLon}, []int{1, 1}, []float64{1}, nil)
	_, err = flat.Subset(0, 1, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidVariableShape)
}

func TestVariable_Reverse(t *testing.T) {
	// time=2, lat=3, lon=2.
	data := []float64{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}
	v, err := NewVariable("v", []string{DimTime, DimLat, DimLon}, []int{2, 3, 2}, data, nil)
	require.NoError(t, err)

	require.NoError(t, v.Reverse(DimLat))
	want := []float64{
		5, 6, 3, 4, 1, 2,
		11, 12, 9, 10, 7, 8,
	}
	assert.Equal(t, want, v.Data)

	require.NoError(t, v.Reverse(DimLon))
	assert.Equal(t, []float64{6, 5, 4, 3, 2, 1}, v.Data[:6])

	assert.Error(t, v.Reverse("depth"))
}

func TestDataset_Vars(t *testing.T) {
	ds := NewDataset("test")
	a, _ := NewVariable("a", []string{DimLat}, []int{1}, []float64{1}, nil)
	b, _ := NewVariable("b", []string{DimLat}, []int{1}, []float64{2}, nil)
	b2, _ := NewVariable("b", []string{DimLat}, []int{1}, []float64{3}, nil)

	ds.AddVar(a)
	ds.AddVar(b)
	ds.AddVar(b2)

	assert.Equal(t, []string{"a", "b"}, ds.VarNames())
	assert.Equal(t, []float64{3}, ds.Var("b").Data)
	assert.Nil(t, ds.Var("missing"))
	assert.Nil(t, ds.Axis(DimLat))
}

func TestAttrs_Clone(t *testing.T) {
	orig := Attrs{"units": "K", "valid_range": []float64{0, 400}}
	clone := orig.Clone()
	clone["valid_range"].([]float64)[0] = -1
	clone["units"] = "C"

	assert.Equal(t, "K", orig["units"])
	assert.Equal(t, []float64{0, 400}, orig["valid_range"])
	assert.Equal(t, []string{"units", "valid_range"}, orig.Keys())
	assert.NotNil(t, Attrs(nil).Clone())
}

func TestAdjustSpatialAttrs(t *testing.T) {
	ds := NewDataset("out")
	ds.SetCoord(&Coord{Name: DimLat, Values: regularAxis(-89.5, 1, 180)})
	ds.SetCoord(&Coord{Name: DimLon, Values: regularAxis(10.25, 0.5, 20)})

	AdjustSpatialAttrs(ds)

	want := Attrs{
		AttrLatMin:        -90.0,
		AttrLatMax:        90.0,
		AttrLatResolution: 1.0,
		AttrLatUnits:      "degrees_north",
		AttrLonMin:        10.0,
		AttrLonMax:        20.0,
		AttrLonResolution: 0.5,
		AttrLonUnits:      "degrees_east",
		AttrBounds:        "POLYGON((10 -90, 10 90, 20 90, 20 -90, 10 -90))",
		AttrBoundsCRS:     "EPSG:4326",
	}
	if diff := cmp.Diff(want, ds.Attrs); diff != "" {
		t.Errorf("spatial attrs mismatch (-want +got):\n%s", diff)
	}
}

func TestAdjustSpatialAttrs_MissingAxis(t *testing.T) {
	ds := NewDataset("out")
	ds.SetCoord(&Coord{Name: DimLat, Values: regularAxis(-89.5, 1, 180)})

	AdjustSpatialAttrs(ds)

	assert.Contains(t, ds.Attrs, AttrLatMin)
	assert.NotContains(t, ds.Attrs, AttrLonMin)
	assert.NotContains(t, ds.Attrs, AttrBounds)
}
