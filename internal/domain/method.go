package domain

import (
	"fmt"
	"sort"
)

// UpsampleMethod is the resampling kernel code for interpolation.
type UpsampleMethod int

// DownsampleMethod is the resampling kernel code for aggregation.
type DownsampleMethod int

// Kernel method codes. The numeric values are part of the kernel contract.
const (
	UpsampleNearest UpsampleMethod = 10
	UpsampleLinear  UpsampleMethod = 11

	DownsampleFirst DownsampleMethod = 50
	DownsampleLast  DownsampleMethod = 51
	DownsampleMean  DownsampleMethod = 54
	DownsampleMode  DownsampleMethod = 56
	DownsampleVar   DownsampleMethod = 57
	DownsampleStd   DownsampleMethod = 58
)

// Default method names of the coregister operation.
const (
	DefaultUpsampleMethod   = "linear"
	DefaultDownsampleMethod = "mean"
)

var upsampleMethods = map[string]UpsampleMethod{
	"nearest": UpsampleNearest,
	"linear":  UpsampleLinear,
}

var downsampleMethods = map[string]DownsampleMethod{
	"first": DownsampleFirst,
	"last":  DownsampleLast,
	"mean":  DownsampleMean,
	"mode":  DownsampleMode,
	"var":   DownsampleVar,
	"std":   DownsampleStd,
}

// ParseUpsampleMethod maps an upsampling method name to its kernel code.
func ParseUpsampleMethod(name string) (UpsampleMethod, error) {
	m, ok := upsampleMethods[name]
	if !ok {
		return 0, fmt.Errorf("%w: upsampling method %q (expected one of %v)", ErrUnknownMethod, name, UpsampleMethodNames())
	}
	return m, nil
}

// ParseDownsampleMethod maps a downsampling method name to its kernel code.
func ParseDownsampleMethod(name string) (DownsampleMethod, error) {
	m, ok := downsampleMethods[name]
	if !ok {
		return 0, fmt.Errorf("%w: downsampling method %q (expected one of %v)", ErrUnknownMethod, name, DownsampleMethodNames())
	}
	return m, nil
}

// UpsampleMethodNames returns the recognized upsampling names ordered by code.
func UpsampleMethodNames() []string {
	names := make([]string, 0, len(upsampleMethods))
	for n := range upsampleMethods {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return upsampleMethods[names[i]] < upsampleMethods[names[j]] })
	return names
}

// DownsampleMethodNames returns the recognized downsampling names ordered by code.
func DownsampleMethodNames() []string {
	names := make([]string, 0, len(downsampleMethods))
	for n := range downsampleMethods {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return downsampleMethods[names[i]] < downsampleMethods[names[j]] })
	return names
}

// Valid reports whether m is a known upsampling code.
func (m UpsampleMethod) Valid() bool {
	for _, code := range upsampleMethods {
		if code == m {
			return true
		}
	}
	return false
}

// Valid reports whether m is a known downsampling code.
func (m DownsampleMethod) Valid() bool {
	for _, code := range downsampleMethods {
		if code == m {
			return true
		}
	}
	return false
}

func (m UpsampleMethod) String() string {
	for n, code := range upsampleMethods {
		if code == m {
			return n
		}
	}
	return fmt.Sprintf("UpsampleMethod(%d)", int(m))
}

func (m DownsampleMethod) String() string {
	for n, code := range downsampleMethods {
		if code == m {
			return n
		}
	}
	return fmt.Sprintf("DownsampleMethod(%d)", int(m))
}
