// Package netcdf reads and writes gridded datasets stored as NetCDF files.
package netcdf

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	cdf "github.com/fhs/go-netcdf/netcdf"
	"go.uber.org/zap"

	"go.ngs.io/coreg/internal/domain"
)

// Attribute names consumed while unpacking variable data.
const (
	attrFillValue    = "_FillValue"
	attrMissingValue = "missing_value"
	attrScaleFactor  = "scale_factor"
	attrAddOffset    = "add_offset"
)

// axisCandidates lists the variable names tried for each coordinate axis.
var axisCandidates = []struct {
	canonical string
	names     []string
}{
	{domain.DimTime, []string{"time", "t"}},
	{domain.DimLat, []string{"lat", "latitude", "y"}},
	{domain.DimLon, []string{"lon", "longitude", "x"}},
}

// Open reads a NetCDF file into a dataset.
func Open(path string) (*domain.Dataset, error) {
	return openFile(path, zap.NewNop())
}

//nolint:gocyclo // NetCDF loading walks coordinates, variables and attributes.
func openFile(path string, logger *zap.Logger) (*domain.Dataset, error) {
	nc, err := cdf.OpenFile(path, cdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	defer func() { _ = nc.Close() }()

	ds := domain.NewDataset(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	ds.Attrs, err = readGlobalAttrs(nc, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read global attributes: %w", err)
	}

	// Map file names of coordinate variables onto canonical axis names.
	canonical := make(map[string]string)
	for _, axis := range axisCandidates {
		for _, name := range axis.names {
			v, err := nc.Var(name)
			if err != nil {
				continue
			}
			dims, err := v.Dims()
			if err != nil || len(dims) != 1 {
				continue
			}
			values, err := readValues(v)
			if err != nil {
				return nil, fmt.Errorf("failed to read coordinate %s: %w", name, err)
			}
			attrs, err := readVarAttrs(v, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to read attributes of %s: %w", name, err)
			}
			unpack(values, attrs)
			ds.SetCoord(&domain.Coord{Name: axis.canonical, Values: values, Attrs: attrs})
			canonical[name] = axis.canonical
			if dimName, err := dims[0].Name(); err == nil {
				canonical[dimName] = axis.canonical
			}
			break
		}
	}

	nvars, err := nc.NVars()
	if err != nil {
		return nil, fmt.Errorf("failed to count variables: %w", err)
	}
	for i := 0; i < nvars; i++ {
		v := nc.VarN(i)
		name, err := v.Name()
		if err != nil {
			return nil, fmt.Errorf("failed to read name of variable %d: %w", i, err)
		}
		if _, isCoord := canonical[name]; isCoord {
			continue
		}

		variable, err := readVariable(v, name, canonical, logger)
		if err != nil {
			return nil, err
		}
		if variable != nil {
			ds.AddVar(variable)
		}
	}

	if err := ascendLat(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// readVariable reads a data variable. Non-numeric variables are skipped and
// reported as nil.
func readVariable(v cdf.Var, name string, canonical map[string]string, logger *zap.Logger) (*domain.Variable, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get type of %s: %w", name, err)
	}
	if !isNumeric(t) {
		logger.Warn("skipping non-numeric variable", zap.String("variable", name), zap.Any("type", t))
		return nil, nil
	}

	ncDims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	dims := make([]string, len(ncDims))
	shape := make([]int, len(ncDims))
	for j, d := range ncDims {
		dimName, err := d.Name()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension name of %s: %w", name, err)
		}
		if c, ok := canonical[dimName]; ok {
			dimName = c
		}
		n, err := d.Len()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension length of %s: %w", name, err)
		}
		dims[j] = dimName
		shape[j] = int(n)
	}

	data, err := readValues(v)
	if err != nil {
		return nil, fmt.Errorf("failed to read variable %s: %w", name, err)
	}
	attrs, err := readVarAttrs(v, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read attributes of %s: %w", name, err)
	}
	unpack(data, attrs)

	return domain.NewVariable(name, dims, shape, data, attrs)
}

// ascendLat flips a descending latitude axis, and every variable along it, to
// ascending order.
func ascendLat(ds *domain.Dataset) error {
	lat := ds.Coord(domain.DimLat)
	if lat == nil || len(lat.Values) < 2 || lat.Values[0] < lat.Values[len(lat.Values)-1] {
		return nil
	}
	for i, j := 0, len(lat.Values)-1; i < j; i, j = i+1, j-1 {
		lat.Values[i], lat.Values[j] = lat.Values[j], lat.Values[i]
	}
	for _, v := range ds.Vars {
		if v.DimIndex(domain.DimLat) < 0 {
			continue
		}
		if err := v.Reverse(domain.DimLat); err != nil {
			return err
		}
	}
	return nil
}

// unpack replaces fill values with NaN and applies scale_factor/add_offset.
// The consumed attributes are removed from attrs.
func unpack(values []float64, attrs domain.Attrs) {
	var fills []float64
	for _, name := range []string{attrFillValue, attrMissingValue} {
		if fv, ok := scalarAttr(attrs, name); ok {
			fills = append(fills, fv)
		}
		delete(attrs, name)
	}
	scale, hasScale := scalarAttr(attrs, attrScaleFactor)
	offset, hasOffset := scalarAttr(attrs, attrAddOffset)
	delete(attrs, attrScaleFactor)
	delete(attrs, attrAddOffset)
	if !hasScale {
		scale = 1
	}

	for i, v := range values {
		for _, fv := range fills {
			if v == fv {
				v = math.NaN()
				break
			}
		}
		if hasScale || hasOffset {
			v = v*scale + offset
		}
		values[i] = v
	}
}

func scalarAttr(attrs domain.Attrs, name string) (float64, bool) {
	switch v := attrs[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	}
	return 0, false
}

func isNumeric(t cdf.Type) bool {
	switch t {
	case cdf.DOUBLE, cdf.FLOAT, cdf.INT, cdf.SHORT, cdf.BYTE:
		return true
	default:
		return false
	}
}

// readValues reads all values of a NetCDF variable as float64.
func readValues(v cdf.Var) ([]float64, error) {
	length, err := v.Len()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return []float64{}, nil
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case cdf.DOUBLE:
		data := make([]float64, length)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case cdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case cdf.INT:
		tmp := make([]int32, length)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case cdf.SHORT:
		tmp := make([]int16, length)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case cdf.BYTE:
		tmp := make([]int8, length)
		if err := v.ReadInt8s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

func readVarAttrs(v cdf.Var, logger *zap.Logger) (domain.Attrs, error) {
	n, err := v.NAttrs()
	if err != nil {
		return nil, err
	}
	attrs := make(domain.Attrs, n)
	for i := 0; i < n; i++ {
		a, err := v.AttrN(i)
		if err != nil {
			return nil, err
		}
		readAttrInto(attrs, a, logger)
	}
	return attrs, nil
}

func readGlobalAttrs(nc cdf.Dataset, logger *zap.Logger) (domain.Attrs, error) {
	n, err := nc.NAttrs()
	if err != nil {
		return nil, err
	}
	attrs := make(domain.Attrs, n)
	for i := 0; i < n; i++ {
		a, err := nc.AttrN(i)
		if err != nil {
			return nil, err
		}
		readAttrInto(attrs, a, logger)
	}
	return attrs, nil
}

// readAttrInto stores a text or numeric attribute. Single numeric values are
// stored as float64 (or int for integer types), longer ones as []float64.
func readAttrInto(attrs domain.Attrs, a cdf.Attr, logger *zap.Logger) {
	name := a.Name()
	value, err := readAttr(a)
	if err != nil {
		logger.Warn("skipping attribute", zap.String("attribute", name), zap.Error(err))
		return
	}
	attrs[name] = value
}

func readAttr(a cdf.Attr) (any, error) {
	t, err := a.Type()
	if err != nil {
		return nil, err
	}
	n, err := a.Len()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if t == cdf.CHAR {
			return "", nil
		}
		return nil, fmt.Errorf("empty attribute of type %v", t)
	}

	var nums []float64
	integer := false
	switch t {
	case cdf.CHAR:
		buf := make([]byte, n)
		if err := a.ReadBytes(buf); err != nil {
			return nil, err
		}
		return strings.TrimRight(string(buf), "\x00"), nil
	case cdf.DOUBLE:
		nums = make([]float64, n)
		if err := a.ReadFloat64s(nums); err != nil {
			return nil, err
		}
	case cdf.FLOAT:
		buf := make([]float32, n)
		if err := a.ReadFloat32s(buf); err != nil {
			return nil, err
		}
		for _, v := range buf {
			nums = append(nums, float64(v))
		}
	case cdf.INT:
		buf := make([]int32, n)
		if err := a.ReadInt32s(buf); err != nil {
			return nil, err
		}
		for _, v := range buf {
			nums = append(nums, float64(v))
		}
		integer = true
	case cdf.SHORT:
		buf := make([]int16, n)
		if err := a.ReadInt16s(buf); err != nil {
			return nil, err
		}
		for _, v := range buf {
			nums = append(nums, float64(v))
		}
		integer = true
	case cdf.BYTE:
		buf := make([]int8, n)
		if err := a.ReadInt8s(buf); err != nil {
			return nil, err
		}
		for _, v := range buf {
			nums = append(nums, float64(v))
		}
		integer = true
	default:
		return nil, fmt.Errorf("unsupported attribute type: %v", t)
	}

	switch {
	case len(nums) != 1:
		return nums, nil
	case integer:
		return int(nums[0]), nil
	default:
		return nums[0], nil
	}
}
