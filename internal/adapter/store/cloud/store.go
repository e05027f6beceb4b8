// Package cloud stores NetCDF datasets in blob storage buckets (local
// directories, S3 or Google Cloud Storage) addressed by URL.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/gcsblob"  // gs:// buckets
	_ "gocloud.dev/blob/s3blob"   // s3:// buckets

	"go.ngs.io/coreg/internal/adapter/store"
	"go.ngs.io/coreg/internal/adapter/store/netcdf"
	"go.ngs.io/coreg/internal/domain"
)

var _ store.DatasetStore = (*Store)(nil)

// Store copies datasets between buckets and a local scratch directory, where
// they are decoded and encoded by a NetCDF store.
type Store struct {
	data    *blob.Bucket
	output  *blob.Bucket
	scratch string
	local   *netcdf.Store
	logger  *zap.Logger
}

// IsBucketURL reports whether s looks like a bucket URL such as
// "s3://bucket?region=eu-west-1" rather than a local path.
func IsBucketURL(s string) bool {
	return strings.Contains(s, "://")
}

// NewStore opens the data and output buckets. Close releases them together
// with the scratch directory.
func NewStore(ctx context.Context, dataURL, outputURL string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := blob.OpenBucket(ctx, dataURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open data bucket %s: %w", dataURL, err)
	}
	output, err := blob.OpenBucket(ctx, outputURL)
	if err != nil {
		_ = data.Close()
		return nil, fmt.Errorf("failed to open output bucket %s: %w", outputURL, err)
	}
	scratch, err := os.MkdirTemp("", "coreg-")
	if err != nil {
		_ = data.Close()
		_ = output.Close()
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	logger = logger.Named("cloud")
	return &Store{
		data:    data,
		output:  output,
		scratch: scratch,
		local:   netcdf.NewStore(scratch, scratch, logger),
		logger:  logger,
	}, nil
}

// Close closes both buckets and removes the scratch directory.
func (s *Store) Close() error {
	return errors.Join(s.data.Close(), s.output.Close(), os.RemoveAll(s.scratch))
}

// Load downloads the named object and decodes it.
func (s *Store) Load(ctx context.Context, name string) (*domain.Dataset, error) {
	key, err := objectKey(name)
	if err != nil {
		return nil, err
	}
	local, err := s.stage(key)
	if err != nil {
		return nil, err
	}
	defer os.Remove(filepath.Join(s.scratch, local))

	if err := s.download(ctx, key, filepath.Join(s.scratch, local)); err != nil {
		return nil, err
	}
	return s.local.Load(ctx, local)
}

// Save encodes ds and uploads it under name. The returned location is the
// object key within the output bucket.
func (s *Store) Save(ctx context.Context, name string, ds *domain.Dataset) (string, error) {
	key, err := objectKey(name)
	if err != nil {
		return "", err
	}
	local, err := s.stage(key)
	if err != nil {
		return "", err
	}
	defer os.Remove(filepath.Join(s.scratch, local))

	file, err := s.local.Save(ctx, local, ds)
	if err != nil {
		return "", err
	}
	if err := s.upload(ctx, file, key); err != nil {
		return "", err
	}
	s.logger.Debug("uploaded dataset", zap.String("key", key))
	return key, nil
}

// List returns the keys of the NetCDF objects in the data bucket.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.data.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list data bucket: %w", err)
		}
		if !obj.IsDir && strings.HasSuffix(obj.Key, ".nc") {
			names = append(names, obj.Key)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) download(ctx context.Context, key, dst string) (err error) {
	r, err := s.data.NewReader(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("failed to read object %s: %w", key, err)
	}
	defer r.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close scratch file: %w", cerr)
		}
	}()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to download object %s: %w", key, err)
	}
	return nil
}

func (s *Store) upload(ctx context.Context, src, key string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open scratch file: %w", err)
	}
	defer f.Close()

	w, err := s.output.NewWriter(ctx, key, &blob.WriterOptions{ContentType: "application/x-netcdf"})
	if err != nil {
		return fmt.Errorf("failed to open writer for %s: %w", key, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// stage returns a unique scratch-relative file name for key.
func (s *Store) stage(key string) (string, error) {
	f, err := os.CreateTemp(s.scratch, "*-"+path.Base(key))
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	name := filepath.Base(f.Name())
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// objectKey cleans name into a bucket key that stays inside the bucket.
func objectKey(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("dataset name is empty")
	}
	key := path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "/"))
	if key == "." || key == ".." || strings.HasPrefix(key, "../") {
		return "", fmt.Errorf("dataset name %q escapes the bucket", name)
	}
	return key, nil
}
