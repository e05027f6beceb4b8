package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/coreg/internal/domain"
	"go.ngs.io/coreg/internal/progress"
)

// memoryStore is an in-memory DatasetStore.
type memoryStore struct {
	datasets map[string]*domain.Dataset
	saved    map[string]*domain.Dataset
}

func newMemoryStore() *memoryStore {
	return &memoryStore{datasets: map[string]*domain.Dataset{}, saved: map[string]*domain.Dataset{}}
}

func (s *memoryStore) Load(_ context.Context, name string) (*domain.Dataset, error) {
	ds, ok := s.datasets[name]
	if !ok {
		return nil, fmt.Errorf("dataset %s not found", name)
	}
	return ds, nil
}

func (s *memoryStore) Save(_ context.Context, name string, ds *domain.Dataset) (string, error) {
	s.saved[name] = ds
	return "/out/" + name, nil
}

func (s *memoryStore) List(context.Context) ([]string, error) {
	names := make([]string, 0, len(s.datasets))
	for name := range s.datasets {
		names = append(names, name)
	}
	return names, nil
}

func newJobFixture(t *testing.T) (*CoregisterUseCase, *memoryStore) {
	t.Helper()
	s := newMemoryStore()
	s.datasets["master.nc"] = globalDataset(t, "master", 2, 1, constant(0), "sst")
	s.datasets["slave.nc"] = globalDataset(t, "slave", 1, 2, constant(4), "chl")
	uc := NewCoregisterUseCase(s, NewRegistry(NewCoregistrator(Options{}, nil)), nil)
	return uc, s
}

func TestCoregisterUseCase_Execute(t *testing.T) {
	uc, s := newJobFixture(t)

	resp, err := uc.Execute(context.Background(), CoregisterRequest{Master: "master.nc", Slave: "slave.nc", MethodDS: "first"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "/out/coreg_"+resp.JobID+".nc", resp.Output)
	assert.Equal(t, []string{"chl"}, resp.Variables)
	assert.Equal(t, []int{2, 90, 180}, resp.Shape)
	assert.Contains(t, resp.Attrs["history"], "method_ds=first")

	saved := s.saved["coreg_"+resp.JobID+".nc"]
	require.NotNil(t, saved)
	assert.Equal(t, 4.0, saved.Var("chl").Data[0])
}

func TestCoregisterUseCase_ExecuteErrors(t *testing.T) {
	uc, s := newJobFixture(t)

	_, err := uc.Execute(context.Background(), CoregisterRequest{Master: "master.nc"})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = uc.Execute(context.Background(), CoregisterRequest{Master: "master.nc", Slave: "missing.nc"})
	assert.ErrorIs(t, err, ErrDatasetIO)

	_, err = uc.Execute(context.Background(), CoregisterRequest{Master: "master.nc", Slave: "slave.nc", MethodUS: "bicubic"})
	assert.ErrorIs(t, err, domain.ErrUnknownMethod)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = uc.Execute(ctx, CoregisterRequest{Master: "master.nc", Slave: "slave.nc", Output: "cancelled.nc"})
	assert.True(t, errors.Is(err, progress.ErrCancelled), "got %v", err)
	assert.NotContains(t, s.saved, "cancelled.nc")
}

func TestCoregisterUseCase_Datasets(t *testing.T) {
	uc, _ := newJobFixture(t)

	names, err := uc.Datasets(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 2)
	for _, n := range names {
		assert.True(t, strings.HasSuffix(n, ".nc"))
	}
}
