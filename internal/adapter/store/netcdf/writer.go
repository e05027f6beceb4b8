package netcdf

import (
	"fmt"
	"math"
	"sort"

	cdf "github.com/fhs/go-netcdf/netcdf"
	"go.uber.org/zap"

	"go.ngs.io/coreg/internal/domain"
)

// Write stores ds as a NetCDF file at path, replacing any existing file.
// Coordinates and data variables are written as DOUBLE; data variables carry
// a NaN _FillValue.
func Write(path string, ds *domain.Dataset) error {
	return writeFile(path, ds, zap.NewNop())
}

//nolint:gocyclo // Define mode covers dimensions, variables and attributes.
func writeFile(path string, ds *domain.Dataset, logger *zap.Logger) (err error) {
	nc, err := cdf.CreateFile(path, cdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create NetCDF file %s: %w", path, err)
	}
	defer func() {
		if cerr := nc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close NetCDF file %s: %w", path, cerr)
		}
	}()

	dims := make(map[string]cdf.Dim)
	addDim := func(name string, n int) (cdf.Dim, error) {
		if d, ok := dims[name]; ok {
			return d, nil
		}
		d, err := nc.AddDim(name, uint64(n))
		if err != nil {
			return cdf.Dim{}, fmt.Errorf("failed to add dimension %s: %w", name, err)
		}
		dims[name] = d
		return d, nil
	}

	type pending struct {
		v    cdf.Var
		data []float64
	}
	var writes []pending

	for _, name := range coordOrder(ds) {
		c := ds.Coords[name]
		d, err := addDim(name, len(c.Values))
		if err != nil {
			return err
		}
		v, err := nc.AddVar(name, cdf.DOUBLE, []cdf.Dim{d})
		if err != nil {
			return fmt.Errorf("failed to add coordinate %s: %w", name, err)
		}
		writeAttrs(v.Attr, c.Attrs, name, logger)
		writes = append(writes, pending{v, c.Values})
	}

	for _, variable := range ds.Vars {
		vdims := make([]cdf.Dim, len(variable.Dims))
		for i, name := range variable.Dims {
			d, err := addDim(name, variable.Shape[i])
			if err != nil {
				return err
			}
			vdims[i] = d
		}
		v, err := nc.AddVar(variable.Name, cdf.DOUBLE, vdims)
		if err != nil {
			return fmt.Errorf("failed to add variable %s: %w", variable.Name, err)
		}
		if err := v.Attr(attrFillValue).WriteFloat64s([]float64{math.NaN()}); err != nil {
			return fmt.Errorf("failed to write %s of %s: %w", attrFillValue, variable.Name, err)
		}
		writeAttrs(v.Attr, variable.Attrs, variable.Name, logger)
		writes = append(writes, pending{v, variable.Data})
	}

	writeAttrs(nc.Attr, ds.Attrs, "global", logger)

	if err := nc.EndDef(); err != nil {
		return fmt.Errorf("failed to leave define mode: %w", err)
	}

	for _, w := range writes {
		if len(w.data) == 0 {
			continue
		}
		if err := w.v.WriteFloat64s(w.data); err != nil {
			name, _ := w.v.Name()
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// coordOrder returns coordinate names as time, lat, lon, then any others sorted.
func coordOrder(ds *domain.Dataset) []string {
	rank := map[string]int{domain.DimTime: 0, domain.DimLat: 1, domain.DimLon: 2}
	names := make([]string, 0, len(ds.Coords))
	for name := range ds.Coords {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, iok := rank[names[i]]
		rj, jok := rank[names[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
	return names
}

// writeAttrs writes every supported attribute through attr. Packing and fill
// attributes are dropped since data is written unpacked.
func writeAttrs(attr func(string) cdf.Attr, attrs domain.Attrs, owner string, logger *zap.Logger) {
	for _, name := range attrs.Keys() {
		switch name {
		case attrFillValue, attrMissingValue, attrScaleFactor, attrAddOffset:
			continue
		}
		if err := writeAttr(attr(name), attrs[name]); err != nil {
			logger.Warn("skipping attribute",
				zap.String("owner", owner),
				zap.String("attribute", name),
				zap.Error(err))
		}
	}
}

func writeAttr(a cdf.Attr, value any) error {
	switch v := value.(type) {
	case string:
		if v == "" {
			return fmt.Errorf("empty text attribute")
		}
		return a.WriteBytes([]byte(v))
	case []float64:
		if len(v) == 0 {
			return fmt.Errorf("empty numeric attribute")
		}
		return a.WriteFloat64s(v)
	case float64:
		return a.WriteFloat64s([]float64{v})
	case float32:
		return a.WriteFloat32s([]float32{v})
	case int:
		return a.WriteInt32s([]int32{int32(v)})
	case int32:
		return a.WriteInt32s([]int32{v})
	default:
		return fmt.Errorf("unsupported attribute type %T", value)
	}
}
