package usecase

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"go.ngs.io/coreg/internal/domain"
	"go.ngs.io/coreg/internal/progress"
)

// Errors raised while resolving and invoking registered operations.
var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingInput     = errors.New("missing input")
	ErrDatasetIO        = errors.New("dataset I/O failed")
)

// Name, version and inputs of the coregistration operation.
const (
	OpCoregister      = "coregister"
	coregisterVersion = "1.0"

	InputMaster   = "ds_master"
	InputSlave    = "ds_slave"
	InputMethodUS = "method_us"
	InputMethodDS = "method_ds"
)

// InputKind tells whether an operation input is a dataset or a parameter.
type InputKind string

// Input kinds.
const (
	KindDataset InputKind = "dataset"
	KindParam   InputKind = "param"
)

// Input describes one operation input.
type Input struct {
	Name        string    `json:"name"`
	Kind        InputKind `json:"kind"`
	Description string    `json:"description"`
	Default     string    `json:"default,omitempty"`
	ValueSet    []string  `json:"value_set,omitempty"`
}

// Operation describes a registered operation.
type Operation struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Inputs      []Input  `json:"inputs"`

	run func(in Inputs, monitor progress.Monitor) (*domain.Dataset, error)
}

// Inputs carries the dataset and parameter arguments of one invocation.
type Inputs struct {
	Datasets map[string]*domain.Dataset
	Params   map[string]string
}

// CoregisterArgs are the arguments of the coregister operation. Empty methods
// fall back to linear upsampling and mean downsampling.
type CoregisterArgs struct {
	Master   *domain.Dataset
	Slave    *domain.Dataset
	MethodUS string
	MethodDS string
}

// Inputs converts the arguments to registry inputs.
func (a CoregisterArgs) Inputs() Inputs {
	params := make(map[string]string)
	if a.MethodUS != "" {
		params[InputMethodUS] = a.MethodUS
	}
	if a.MethodDS != "" {
		params[InputMethodDS] = a.MethodDS
	}
	return Inputs{
		Datasets: map[string]*domain.Dataset{InputMaster: a.Master, InputSlave: a.Slave},
		Params:   params,
	}
}

// Registry is the table of operations exposed to the HTTP and CLI front ends.
type Registry struct {
	ops map[string]Operation
	now func() time.Time
}

// NewRegistry creates a registry exposing the operations of c.
func NewRegistry(c *Coregistrator) *Registry {
	r := &Registry{
		ops: make(map[string]Operation),
		now: time.Now,
	}
	r.register(coregisterOperation(c))
	return r
}

func (r *Registry) register(op Operation) {
	r.ops[op.Name] = op
}

func coregisterOperation(c *Coregistrator) Operation {
	return Operation{
		Name:    OpCoregister,
		Version: coregisterVersion,
		Description: "Perform coregistration of two datasets by resampling the slave dataset " +
			"onto the grid of the master dataset",
		Tags: []string{"geometric", "coregistration", "geom", "global", "resampling"},
		Inputs: []Input{
			{Name: InputMaster, Kind: KindDataset, Description: "The master dataset"},
			{Name: InputSlave, Kind: KindDataset, Description: "The slave dataset"},
			{
				Name:        InputMethodUS,
				Kind:        KindParam,
				Description: "Interpolation method to use for upsampling",
				Default:     domain.DefaultUpsampleMethod,
				ValueSet:    domain.UpsampleMethodNames(),
			},
			{
				Name:        InputMethodDS,
				Kind:        KindParam,
				Description: "Aggregation method to use for downsampling",
				Default:     domain.DefaultDownsampleMethod,
				ValueSet:    domain.DownsampleMethodNames(),
			},
		},
		run: func(in Inputs, monitor progress.Monitor) (*domain.Dataset, error) {
			us, err := domain.ParseUpsampleMethod(in.Params[InputMethodUS])
			if err != nil {
				return nil, err
			}
			ds, err := domain.ParseDownsampleMethod(in.Params[InputMethodDS])
			if err != nil {
				return nil, err
			}
			return c.Coregister(in.Datasets[InputMaster], in.Datasets[InputSlave], us, ds, monitor)
		},
	}
}

// Operations returns the registered operations sorted by name.
func (r *Registry) Operations() []Operation {
	ops := make([]Operation, 0, len(r.ops))
	for _, op := range r.ops {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// Operation returns the named operation.
func (r *Registry) Operation(name string) (Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Invoke runs the named operation. Parameters are checked against their value
// sets and defaulted before the operation starts, and the result gets a
// history line recording the invocation.
func (r *Registry) Invoke(name string, in Inputs, monitor progress.Monitor) (*domain.Dataset, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}

	resolved := Inputs{
		Datasets: in.Datasets,
		Params:   make(map[string]string),
	}
	for _, input := range op.Inputs {
		switch input.Kind {
		case KindDataset:
			if in.Datasets[input.Name] == nil {
				return nil, fmt.Errorf("%w: %s requires dataset %s", ErrMissingInput, op.Name, input.Name)
			}
		case KindParam:
			value := in.Params[input.Name]
			if value == "" {
				value = input.Default
			}
			if len(input.ValueSet) > 0 && !slices.Contains(input.ValueSet, value) {
				return nil, fmt.Errorf("%w: %s must be one of %v, got %q",
					domain.ErrUnknownMethod, input.Name, input.ValueSet, value)
			}
			resolved.Params[input.Name] = value
		}
	}

	ds, err := op.run(resolved, monitor)
	if err != nil {
		return nil, err
	}
	appendHistory(ds, r.now(), op, resolved.Params)
	return ds, nil
}

// appendHistory adds a line describing the invocation to the history attribute.
func appendHistory(ds *domain.Dataset, at time.Time, op Operation, params map[string]string) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	args := make([]string, len(names))
	for i, name := range names {
		args[i] = name + "=" + params[name]
	}

	line := fmt.Sprintf("%s: %s %s (%s)", at.UTC().Format(time.RFC3339), op.Name, op.Version, strings.Join(args, ", "))
	if prev, ok := ds.Attrs["history"].(string); ok && prev != "" {
		line = prev + "\n" + line
	}
	ds.Attrs["history"] = line
}
