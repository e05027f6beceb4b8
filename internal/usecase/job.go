package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go.ngs.io/coreg/internal/adapter/store"
	"go.ngs.io/coreg/internal/domain"
	"go.ngs.io/coreg/internal/progress"
)

// CoregisterRequest names the datasets of a coregistration job.
type CoregisterRequest struct {
	Master   string `json:"master"`
	Slave    string `json:"slave"`
	Output   string `json:"output,omitempty"` // Defaults to "coreg_<job id>.nc".
	MethodUS string `json:"method_us,omitempty"`
	MethodDS string `json:"method_ds,omitempty"`
}

// Validate checks that the request names both input datasets.
func (r *CoregisterRequest) Validate() error {
	if r.Master == "" {
		return fmt.Errorf("%w: master dataset name is required", ErrMissingInput)
	}
	if r.Slave == "" {
		return fmt.Errorf("%w: slave dataset name is required", ErrMissingInput)
	}
	return nil
}

// CoregisterResponse describes a finished coregistration job.
type CoregisterResponse struct {
	JobID     string       `json:"job_id"`
	Output    string       `json:"output"`
	Variables []string     `json:"variables"`
	Shape     []int        `json:"shape"` // time, lat, lon.
	Attrs     domain.Attrs `json:"attrs"`
	ElapsedMS int64        `json:"elapsed_ms"`
}

// CoregisterUseCase loads datasets from a store, coregisters them and saves
// the result.
type CoregisterUseCase struct {
	store    store.DatasetStore
	registry *Registry
	logger   *zap.Logger
}

// NewCoregisterUseCase creates a new coregistration job use case.
func NewCoregisterUseCase(s store.DatasetStore, registry *Registry, logger *zap.Logger) *CoregisterUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoregisterUseCase{store: s, registry: registry, logger: logger}
}

// Registry returns the operation registry used by the use case.
func (u *CoregisterUseCase) Registry() *Registry {
	return u.registry
}

// Datasets lists the datasets available to jobs.
func (u *CoregisterUseCase) Datasets(ctx context.Context) ([]string, error) {
	names, err := u.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetIO, err)
	}
	return names, nil
}

// Execute runs one coregistration job. Cancelling ctx stops the job at the
// next slice boundary and nothing is written.
func (u *CoregisterUseCase) Execute(ctx context.Context, req CoregisterRequest) (*CoregisterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	jobID := uuid.NewString()
	if req.Output == "" {
		req.Output = fmt.Sprintf("coreg_%s.nc", jobID)
	}
	logger := u.logger.With(zap.String("job_id", jobID))

	master, err := u.store.Load(ctx, req.Master)
	if err != nil {
		return nil, fmt.Errorf("%w: master: %v", ErrDatasetIO, err)
	}
	slave, err := u.store.Load(ctx, req.Slave)
	if err != nil {
		return nil, fmt.Errorf("%w: slave: %v", ErrDatasetIO, err)
	}

	args := CoregisterArgs{Master: master, Slave: slave, MethodUS: req.MethodUS, MethodDS: req.MethodDS}
	monitor := progress.NewLogMonitor(ctx, logger)
	out, err := u.registry.Invoke(OpCoregister, args.Inputs(), monitor)
	if err != nil {
		logger.Warn("coregistration failed", zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", progress.ErrCancelled, err)
	}

	path, err := u.store.Save(ctx, req.Output, out)
	if err != nil {
		return nil, fmt.Errorf("%w: output: %v", ErrDatasetIO, err)
	}

	shape := []int{
		len(out.Axis(domain.DimTime)),
		len(out.Axis(domain.DimLat)),
		len(out.Axis(domain.DimLon)),
	}
	logger.Info("coregistration job finished", zap.String("output", path), zap.Duration("elapsed", time.Since(started)))

	return &CoregisterResponse{
		JobID:     jobID,
		Output:    path,
		Variables: out.VarNames(),
		Shape:     shape,
		Attrs:     out.Attrs,
		ElapsedMS: time.Since(started).Milliseconds(),
	}, nil
}
