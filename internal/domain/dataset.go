package domain

import (
	"fmt"
	"sort"
)

// Dimension names recognized by the coregistration engine.
const (
	DimTime = "time"
	DimLat  = "lat"
	DimLon  = "lon"
)

// Attrs holds attribute metadata attached to a dataset, coordinate or variable.
// Values are strings, float64, int or []float64.
type Attrs map[string]any

// Clone returns a shallow copy of the attribute map. A nil map clones to an empty one.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		if vals, ok := v.([]float64); ok {
			v = append([]float64(nil), vals...)
		}
		out[k] = v
	}
	return out
}

// Keys returns the attribute names in sorted order.
func (a Attrs) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Coord is a one-dimensional coordinate axis (e.g., lat, lon or time).
type Coord struct {
	Name   string
	Values []float64
	Attrs  Attrs
}

// Variable is an n-dimensional raster variable stored row-major in Data.
type Variable struct {
	Name  string
	Dims  []string // Dimension names, outermost first.
	Shape []int    // Length of each dimension in Dims.
	Data  []float64
	Attrs Attrs

	// Chunks is the preferred storage chunk shape, aligned with Dims.
	// Nil means a single chunk.
	Chunks []int
}

// NewVariable creates a variable after checking that data matches the shape.
func NewVariable(name string, dims []string, shape []int, data []float64, attrs Attrs) (*Variable, error) {
	if len(dims) != len(shape) {
		return nil, fmt.Errorf("variable %s: %d dimensions but %d shape entries", name, len(dims), len(shape))
	}
	for i, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("variable %s: negative length %d for dimension %s", name, n, dims[i])
		}
	}
	if attrs == nil {
		attrs = Attrs{}
	}
	v := &Variable{
		Name:  name,
		Dims:  append([]string(nil), dims...),
		Shape: append([]int(nil), shape...),
		Data:  data,
		Attrs: attrs,
	}
	if size := v.Size(); len(data) != size {
		return nil, fmt.Errorf("variable %s: shape %v needs %d values, got %d", name, shape, size, len(data))
	}
	return v, nil
}

// Size returns the number of elements in the variable.
func (v *Variable) Size() int {
	size := 1
	for _, n := range v.Shape {
		size *= n
	}
	return size
}

// DimIndex returns the position of the named dimension, or -1.
func (v *Variable) DimIndex(name string) int {
	for i, d := range v.Dims {
		if d == name {
			return i
		}
	}
	return -1
}

// Len returns the length of the named dimension, or 0 if absent.
func (v *Variable) Len(name string) int {
	if i := v.DimIndex(name); i >= 0 {
		return v.Shape[i]
	}
	return 0
}

func (v *Variable) strides() []int {
	strides := make([]int, len(v.Shape))
	step := 1
	for i := len(v.Shape) - 1; i >= 0; i-- {
		strides[i] = step
		step *= v.Shape[i]
	}
	return strides
}

// TimeSlice extracts the 2D lat/lon plane at time index t as Values[lat][lon],
// independent of the order of the variable's dimensions.
func (v *Variable) TimeSlice(t int) ([][]float64, error) {
	ti, yi, xi := v.DimIndex(DimTime), v.DimIndex(DimLat), v.DimIndex(DimLon)
	if ti < 0 || yi < 0 || xi < 0 || len(v.Dims) != 3 {
		return nil, fmt.Errorf("%w: variable %s has dimensions %v", ErrInvalidVariableShape, v.Name, v.Dims)
	}
	if t < 0 || t >= v.Shape[ti] {
		return nil, fmt.Errorf("time index %d out of range [0, %d) for variable %s", t, v.Shape[ti], v.Name)
	}

	strides := v.strides()
	nLat, nLon := v.Shape[yi], v.Shape[xi]
	base := t * strides[ti]

	values := make([][]float64, nLat)
	for i := 0; i < nLat; i++ {
		row := make([]float64, nLon)
		off := base + i*strides[yi]
		for j := 0; j < nLon; j++ {
			row[j] = v.Data[off+j*strides[xi]]
		}
		values[i] = row
	}
	return values, nil
}

// Subset returns a (time, lat, lon) ordered copy of v restricted to the index
// ranges [latStart, latEnd) and [lonStart, lonEnd).
func (v *Variable) Subset(latStart, latEnd, lonStart, lonEnd int) (*Variable, error) {
	if !IsValidVariable(v) {
		return nil, fmt.Errorf("%w: variable %s has dimensions %v", ErrInvalidVariableShape, v.Name, v.Dims)
	}
	nLat, nLon := v.Len(DimLat), v.Len(DimLon)
	if latStart < 0 || latEnd > nLat || latStart > latEnd || lonStart < 0 || lonEnd > nLon || lonStart > lonEnd {
		return nil, fmt.Errorf("subset [%d:%d, %d:%d] out of range for variable %s of shape %v",
			latStart, latEnd, lonStart, lonEnd, v.Name, v.Shape)
	}

	strides := v.strides()
	ts, ys, xs := strides[v.DimIndex(DimTime)], strides[v.DimIndex(DimLat)], strides[v.DimIndex(DimLon)]
	nTime := v.Len(DimTime)
	h, w := latEnd-latStart, lonEnd-lonStart

	data := make([]float64, 0, nTime*h*w)
	for t := 0; t < nTime; t++ {
		for i := latStart; i < latEnd; i++ {
			off := t*ts + i*ys
			for j := lonStart; j < lonEnd; j++ {
				data = append(data, v.Data[off+j*xs])
			}
		}
	}
	return NewVariable(v.Name, []string{DimTime, DimLat, DimLon}, []int{nTime, h, w}, data, v.Attrs.Clone())
}

// Reverse flips the variable in place along the named dimension.
func (v *Variable) Reverse(name string) error {
	d := v.DimIndex(name)
	if d < 0 {
		return fmt.Errorf("variable %s has no dimension %s", v.Name, name)
	}
	n := v.Shape[d]
	if n < 2 {
		return nil
	}
	stride := v.strides()[d]
	block := stride * n
	for base := 0; base < len(v.Data); base += block {
		for inner := 0; inner < stride; inner++ {
			lo, hi := base+inner, base+inner+(n-1)*stride
			for lo < hi {
				v.Data[lo], v.Data[hi] = v.Data[hi], v.Data[lo]
				lo += stride
				hi -= stride
			}
		}
	}
	return nil
}

// Dataset is a named collection of variables sharing coordinate axes.
type Dataset struct {
	Name   string
	Coords map[string]*Coord
	Vars   []*Variable // Data variables in file order.
	Attrs  Attrs
}

// NewDataset creates an empty dataset.
func NewDataset(name string) *Dataset {
	return &Dataset{
		Name:   name,
		Coords: make(map[string]*Coord),
		Attrs:  Attrs{},
	}
}

// Coord returns the named coordinate, or nil.
func (d *Dataset) Coord(name string) *Coord {
	if d == nil {
		return nil
	}
	return d.Coords[name]
}

// Axis returns the values of the named coordinate, or nil.
func (d *Dataset) Axis(name string) []float64 {
	if c := d.Coord(name); c != nil {
		return c.Values
	}
	return nil
}

// SetCoord adds or replaces a coordinate.
func (d *Dataset) SetCoord(c *Coord) {
	if d.Coords == nil {
		d.Coords = make(map[string]*Coord)
	}
	d.Coords[c.Name] = c
}

// Var returns the named data variable, or nil.
func (d *Dataset) Var(name string) *Variable {
	for _, v := range d.Vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// AddVar appends a data variable, replacing any variable of the same name in place.
func (d *Dataset) AddVar(v *Variable) {
	for i, existing := range d.Vars {
		if existing.Name == v.Name {
			d.Vars[i] = v
			return
		}
	}
	d.Vars = append(d.Vars, v)
}

// VarNames returns the data variable names in order.
func (d *Dataset) VarNames() []string {
	names := make([]string, len(d.Vars))
	for i, v := range d.Vars {
		names[i] = v.Name
	}
	return names
}
