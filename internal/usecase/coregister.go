package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go.ngs.io/coreg/internal/adapter/interp"
	"go.ngs.io/coreg/internal/domain"
	"go.ngs.io/coreg/internal/progress"
)

// Kernel resamples a 2D raster (Values[row][col], NaN = missing) onto h rows
// and w columns.
type Kernel interface {
	Resample2D(src [][]float64, w, h int, ds domain.DownsampleMethod, us domain.UpsampleMethod) ([][]float64, error)
}

// KernelFunc adapts a function to the Kernel interface.
type KernelFunc func(src [][]float64, w, h int, ds domain.DownsampleMethod, us domain.UpsampleMethod) ([][]float64, error)

// Resample2D calls f.
func (f KernelFunc) Resample2D(src [][]float64, w, h int, ds domain.DownsampleMethod, us domain.UpsampleMethod) ([][]float64, error) {
	return f(src, w, h, ds, us)
}

// Options tunes a Coregistrator.
type Options struct {
	// Parallelism is the number of time slices resampled concurrently.
	// Values below 2 resample sequentially.
	Parallelism int

	// Tolerance is the absolute deviation accepted by the grid checks.
	// Zero compares exactly.
	Tolerance float64
}

// Coregistrator resamples the variables of a slave dataset onto the grid of a
// master dataset.
type Coregistrator struct {
	opts    Options
	checker domain.Checker
	kernel  Kernel
	logger  *zap.Logger
}

// NewCoregistrator creates a coregistrator using the interp resampling kernel.
func NewCoregistrator(opts Options, logger *zap.Logger) *Coregistrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coregistrator{
		opts:    opts,
		checker: domain.Checker{Tolerance: opts.Tolerance},
		kernel:  KernelFunc(interp.Resample2D),
		logger:  logger,
	}
}

// WithKernel returns a copy of c that resamples with k.
func (c *Coregistrator) WithKernel(k Kernel) *Coregistrator {
	cp := *c
	cp.kernel = k
	return &cp
}

// Coregister resamples every slave variable onto the master grid, restricted to
// the area both datasets cover.
//
// All grid and variable checks run before any resampling. The result carries
// the slave's time axis, the subset master lat/lon axes, the slave variables
// with their attributes, and freshly computed geospatial attributes; other
// dataset-level attributes are dropped.
func (c *Coregistrator) Coregister(master, slave *domain.Dataset, us domain.UpsampleMethod, ds domain.DownsampleMethod, monitor progress.Monitor) (*domain.Dataset, error) {
	if monitor == nil {
		monitor = progress.None
	}
	if master == nil || slave == nil {
		return nil, fmt.Errorf("%w: master and slave datasets are required", ErrMissingInput)
	}
	if err := c.validate(master, slave); err != nil {
		return nil, err
	}

	latBounds, err := c.checker.FindIntersection(master.Axis(domain.DimLat), slave.Axis(domain.DimLat), domain.LatBounds)
	if err != nil {
		return nil, fmt.Errorf("lat: %w", err)
	}
	lonBounds, err := c.checker.FindIntersection(master.Axis(domain.DimLon), slave.Axis(domain.DimLon), domain.LonBounds)
	if err != nil {
		return nil, fmt.Errorf("lon: %w", err)
	}

	masterLat, err := subsetCoord(master, domain.DimLat, latBounds)
	if err != nil {
		return nil, err
	}
	masterLon, err := subsetCoord(master, domain.DimLon, lonBounds)
	if err != nil {
		return nil, err
	}
	latStart, latEnd := domain.SelectRange(slave.Axis(domain.DimLat), latBounds)
	lonStart, lonEnd := domain.SelectRange(slave.Axis(domain.DimLon), lonBounds)
	if latStart == latEnd || lonStart == lonEnd {
		return nil, fmt.Errorf("%w: slave grid has no pixels inside lat %s, lon %s",
			domain.ErrNoIntersection, latBounds, lonBounds)
	}

	c.logger.Info("coregistering dataset",
		zap.String("master", master.Name),
		zap.String("slave", slave.Name),
		zap.Stringer("lat_bounds", latBounds),
		zap.Stringer("lon_bounds", lonBounds),
		zap.Int("height", len(masterLat.Values)),
		zap.Int("width", len(masterLon.Values)),
		zap.Int("variables", len(slave.Vars)),
		zap.Stringer("method_us", us),
		zap.Stringer("method_ds", ds))

	out := domain.NewDataset(slave.Name)
	out.SetCoord(masterLat)
	out.SetCoord(masterLon)
	if t := slave.Coord(domain.DimTime); t != nil {
		out.SetCoord(&domain.Coord{
			Name:   t.Name,
			Values: append([]float64(nil), t.Values...),
			Attrs:  t.Attrs.Clone(),
		})
	}

	span := progress.Starting(monitor, "coregister dataset", float64(len(slave.Vars)))
	defer span.End()

	for _, v := range slave.Vars {
		if err := progress.Check(monitor); err != nil {
			return nil, err
		}
		sub, err := v.Subset(latStart, latEnd, lonStart, lonEnd)
		if err != nil {
			return nil, err
		}
		resampled, err := c.ResampleArray(sub, masterLon.Values, masterLat.Values, us, ds, monitor.Child(1))
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.Name, err)
		}
		out.AddVar(resampled)
		c.logger.Debug("coregistered variable", zap.String("variable", v.Name), zap.Ints("shape", resampled.Shape))
	}

	domain.AdjustSpatialAttrs(out)

	c.logger.Info("coregistration finished", zap.String("slave", slave.Name), zap.Strings("variables", out.VarNames()))
	return out, nil
}

// validate checks the slave axes, the master axes and every slave variable, in
// that order.
func (c *Coregistrator) validate(master, slave *domain.Dataset) error {
	axes := []struct {
		role   string
		ds     *domain.Dataset
		name   string
		origin float64
	}{
		{"slave", slave, domain.DimLat, domain.LatOrigin},
		{"slave", slave, domain.DimLon, domain.LonOrigin},
		{"master", master, domain.DimLat, domain.LatOrigin},
		{"master", master, domain.DimLon, domain.LonOrigin},
	}
	for _, a := range axes {
		if err := c.checker.ValidateAxis(a.role, a.name, a.ds.Axis(a.name), a.origin); err != nil {
			return err
		}
	}

	nLat, nLon := len(slave.Axis(domain.DimLat)), len(slave.Axis(domain.DimLon))
	for _, v := range slave.Vars {
		if err := domain.ValidateVariable("slave", v); err != nil {
			return err
		}
		if v.Len(domain.DimLat) != nLat || v.Len(domain.DimLon) != nLon {
			return fmt.Errorf("%w: %s data array of slave dataset has shape %v, expected %d lat and %d lon values",
				domain.ErrInvalidVariableShape, v.Name, v.Shape, nLat, nLon)
		}
	}
	return nil
}

func subsetCoord(ds *domain.Dataset, name string, b domain.Bounds) (*domain.Coord, error) {
	c := ds.Coord(name)
	start, end := domain.SelectRange(c.Values, b)
	if start == end {
		return nil, fmt.Errorf("%w: master %s grid has no pixels inside %s", domain.ErrNoIntersection, name, b)
	}
	return &domain.Coord{
		Name:   name,
		Values: append([]float64(nil), c.Values[start:end]...),
		Attrs:  c.Attrs.Clone(),
	}, nil
}

// ResampleArray resamples every time slice of a (time, lat, lon) variable onto
// the target axes. The result keeps the variable's name and attributes, is
// ordered (time, lat, lon) and is chunked one time step per chunk.
func (c *Coregistrator) ResampleArray(v *domain.Variable, lon, lat []float64, us domain.UpsampleMethod, ds domain.DownsampleMethod, monitor progress.Monitor) (*domain.Variable, error) {
	if monitor == nil {
		monitor = progress.None
	}
	if err := domain.ValidateVariable("slave", v); err != nil {
		return nil, err
	}
	w, h := len(lon), len(lat)
	steps := v.Len(domain.DimTime)

	span := progress.Starting(monitor, "coregister dataarray", float64(steps))
	defer span.End()

	slices := make([][][]float64, steps)
	resample := func(t int) error {
		if err := progress.Check(monitor); err != nil {
			return err
		}
		src, err := v.TimeSlice(t)
		if err != nil {
			return err
		}
		out, err := c.ResampleSlice(src, w, h, ds, us, monitor.Child(1))
		if err != nil {
			return fmt.Errorf("time step %d: %w", t, err)
		}
		slices[t] = out
		return nil
	}

	if c.opts.Parallelism > 1 {
		// The first failing slice cancels gctx; nothing is scheduled after it
		// and queued slices return without touching the kernel.
		g, gctx := errgroup.WithContext(context.Background())
		g.SetLimit(c.opts.Parallelism)
		for t := 0; t < steps && gctx.Err() == nil; t++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return resample(t)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for t := 0; t < steps; t++ {
			if err := resample(t); err != nil {
				return nil, err
			}
		}
	}

	data := make([]float64, 0, steps*h*w)
	for _, slice := range slices {
		for _, row := range slice {
			data = append(data, row...)
		}
	}
	out, err := domain.NewVariable(v.Name, []string{domain.DimTime, domain.DimLat, domain.DimLon}, []int{steps, h, w}, data, v.Attrs.Clone())
	if err != nil {
		return nil, err
	}
	out.Chunks = []int{1, h, w}
	return out, nil
}

// ResampleSlice masks non-finite cells of one time slice and resamples it to h
// rows and w columns, reported as a single unit of work on monitor.
func (c *Coregistrator) ResampleSlice(values [][]float64, w, h int, ds domain.DownsampleMethod, us domain.UpsampleMethod, monitor progress.Monitor) ([][]float64, error) {
	var out [][]float64
	err := progress.Observing(monitor, "resample time slice", func() error {
		var err error
		out, err = c.kernel.Resample2D(interp.MaskInvalid(values), w, h, ds, us)
		if err != nil {
			return err
		}
		for _, row := range out {
			if len(row) != w {
				return fmt.Errorf("kernel returned a row of %d values, expected %d", len(row), w)
			}
		}
		if len(out) != h {
			return fmt.Errorf("kernel returned %d rows, expected %d", len(out), h)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
