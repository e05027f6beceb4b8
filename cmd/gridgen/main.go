// Command gridgen writes synthetic pixel-registered lat/lon NetCDF datasets
// for demos and fixtures.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"go.ngs.io/coreg/internal/adapter/store/netcdf"
	"go.ngs.io/coreg/internal/domain"
)

// Region defines the geographic pixel-edge bounds and resolution.
type Region struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
}

// Size returns the number of pixels along lat and lon.
func (r Region) Size() (nLat, nLon int) {
	nLat = int(math.Round((r.LatMax - r.LatMin) / r.Resolution))
	nLon = int(math.Round((r.LonMax - r.LonMin) / r.Resolution))
	return nLat, nLon
}

func main() {
	// Command line flags
	outPath := flag.String("out", "./data/grid.nc", "Output NetCDF file")
	region := flag.String("region", "global", "Region: global or custom")
	latMin := flag.Float64("lat-min", -90, "Southern pixel edge (custom region)")
	latMax := flag.Float64("lat-max", 90, "Northern pixel edge (custom region)")
	lonMin := flag.Float64("lon-min", -180, "Western pixel edge (custom region)")
	lonMax := flag.Float64("lon-max", 180, "Eastern pixel edge (custom region)")
	resolution := flag.Float64("res", 1.0, "Pixel size in degrees")
	times := flag.Int("times", 1, "Number of time steps")
	vars := flag.String("vars", "sst", "Comma-separated variable names")
	value := flag.Float64("value", 1.0, "Base value of every variable")
	pattern := flag.String("pattern", "constant", "Value pattern: constant, lat, lon or checker")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	r := Region{LatMin: -90, LatMax: 90, LonMin: -180, LonMax: 180, Resolution: *resolution}
	switch *region {
	case "global":
	case "custom":
		r.LatMin, r.LatMax, r.LonMin, r.LonMax = *latMin, *latMax, *lonMin, *lonMax
	default:
		logger.Fatal("unknown region (use global or custom)", zap.String("region", *region))
	}

	fill, err := patternFunc(*pattern, *value, r.Resolution)
	if err != nil {
		logger.Fatal("invalid pattern", zap.Error(err))
	}

	ds, err := generate(filepath.Base(*outPath), r, *times, splitNames(*vars), fill)
	if err != nil {
		logger.Fatal("failed to generate dataset", zap.Error(err))
	}

	if dir := filepath.Dir(*outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("failed to create output directory", zap.Error(err))
		}
	}
	if err := netcdf.Write(*outPath, ds); err != nil {
		logger.Fatal("failed to write dataset", zap.Error(err))
	}

	nLat, nLon := r.Size()
	logger.Info("dataset written",
		zap.String("path", *outPath),
		zap.Strings("vars", ds.VarNames()),
		zap.Int("times", *times),
		zap.Int("lat", nLat),
		zap.Int("lon", nLon),
		zap.Float64("res", r.Resolution))
}

// generate builds a (time, lat, lon) dataset whose variables are filled by fill.
func generate(name string, r Region, times int, names []string, fill func(lat, lon float64, t int) float64) (*domain.Dataset, error) {
	if r.Resolution <= 0 {
		return nil, fmt.Errorf("resolution must be positive, got %g", r.Resolution)
	}
	if times < 1 {
		return nil, fmt.Errorf("times must be at least 1, got %d", times)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no variable names given")
	}
	nLat, nLon := r.Size()
	if nLat < 2 || nLon < 2 {
		return nil, fmt.Errorf("region must span at least 2x2 pixels, got %dx%d", nLat, nLon)
	}

	lat := pixelCenters(nLat, r.LatMin, r.Resolution)
	lon := pixelCenters(nLon, r.LonMin, r.Resolution)
	t := make([]float64, times) // Day offsets; Span needs at least two points.
	if times > 1 {
		floats.Span(t, 0, float64(times-1))
	}

	ds := domain.NewDataset(name)
	ds.SetCoord(&domain.Coord{Name: domain.DimTime, Values: t, Attrs: domain.Attrs{"units": "days since 2000-01-01"}})
	ds.SetCoord(&domain.Coord{Name: domain.DimLat, Values: lat, Attrs: domain.Attrs{"units": "degrees_north"}})
	ds.SetCoord(&domain.Coord{Name: domain.DimLon, Values: lon, Attrs: domain.Attrs{"units": "degrees_east"}})
	ds.Attrs["title"] = "synthetic grid"

	for _, v := range names {
		data := make([]float64, 0, times*nLat*nLon)
		for k := 0; k < times; k++ {
			for _, y := range lat {
				for _, x := range lon {
					data = append(data, fill(y, x, k))
				}
			}
		}
		variable, err := domain.NewVariable(v,
			[]string{domain.DimTime, domain.DimLat, domain.DimLon},
			[]int{times, nLat, nLon}, data, domain.Attrs{"long_name": v})
		if err != nil {
			return nil, err
		}
		ds.AddVar(variable)
	}

	domain.AdjustSpatialAttrs(ds)
	return ds, nil
}

// pixelCenters returns n centers of res-wide pixels starting at edge.
func pixelCenters(n int, edge, res float64) []float64 {
	out := make([]float64, n)
	floats.Span(out, edge+res/2, edge+res/2+float64(n-1)*res)
	return out
}

func patternFunc(name string, base, res float64) (func(lat, lon float64, t int) float64, error) {
	switch name {
	case "constant":
		return func(float64, float64, int) float64 { return base }, nil
	case "lat":
		return func(lat, _ float64, t int) float64 { return base + lat + float64(t) }, nil
	case "lon":
		return func(_, lon float64, t int) float64 { return base + lon + float64(t) }, nil
	case "checker":
		return func(lat, lon float64, _ int) float64 {
			i := int(math.Floor(lat / res))
			j := int(math.Floor(lon / res))
			if (i+j)&1 == 0 {
				return base
			}
			return -base
		}, nil
	default:
		return nil, fmt.Errorf("unknown pattern %q (use constant, lat, lon or checker)", name)
	}
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
