package store

import (
	"context"

	"go.ngs.io/coreg/internal/domain"
)

// DatasetStore is the interface for loading and saving gridded datasets.
type DatasetStore interface {
	// Load reads the named dataset (e.g., "sst_1deg.nc").
	Load(ctx context.Context, name string) (*domain.Dataset, error)

	// Save writes ds under the given name and returns the path it was written to.
	Save(ctx context.Context, name string, ds *domain.Dataset) (string, error)

	// List returns the names of the datasets available for loading.
	List(ctx context.Context) ([]string, error)
}
