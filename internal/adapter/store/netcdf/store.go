package netcdf

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"go.ngs.io/coreg/internal/adapter/store"
	"go.ngs.io/coreg/internal/domain"
)

var _ store.DatasetStore = (*Store)(nil)

// Store loads datasets from a data directory and saves results to an output
// directory. Names are resolved relative to those directories and may not
// escape them.
type Store struct {
	dataDir   string
	outputDir string
	logger    *zap.Logger
}

// NewStore creates a new NetCDF dataset store.
func NewStore(dataDir, outputDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dataDir:   dataDir,
		outputDir: outputDir,
		logger:    logger.Named("netcdf"),
	}
}

// Load reads the named dataset from the data directory.
func (s *Store) Load(_ context.Context, name string) (*domain.Dataset, error) {
	path, err := resolve(s.dataDir, name)
	if err != nil {
		return nil, err
	}
	ds, err := openFile(path, s.logger)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded dataset",
		zap.String("path", path),
		zap.Strings("variables", ds.VarNames()),
		zap.Int("lat", len(ds.Axis(domain.DimLat))),
		zap.Int("lon", len(ds.Axis(domain.DimLon))))
	return ds, nil
}

// Save writes ds to the output directory, creating it if needed.
func (s *Store) Save(_ context.Context, name string, ds *domain.Dataset) (string, error) {
	path, err := resolve(s.outputDir, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writeFile(path, ds, s.logger); err != nil {
		return "", err
	}
	s.logger.Debug("saved dataset", zap.String("path", path), zap.Strings("variables", ds.VarNames()))
	return path, nil
}

// List returns the NetCDF files under the data directory, relative to it.
func (s *Store) List(_ context.Context) ([]string, error) {
	if _, err := os.Stat(s.dataDir); err != nil {
		return nil, fmt.Errorf("data directory is not accessible: %w", err)
	}

	var names []string
	err := filepath.WalkDir(s.dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".nc") {
			return nil
		}
		rel, err := filepath.Rel(s.dataDir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk data directory: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// resolve joins name onto dir. An empty dir leaves name untouched.
func resolve(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("dataset name is empty")
	}
	if dir == "" {
		return name, nil
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("dataset name %q escapes %s", name, dir)
	}
	return filepath.Join(dir, clean), nil
}
