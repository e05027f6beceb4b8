package domain

import "errors"

// Error kinds raised by grid validation and intersection. Callers match them
// with errors.Is; the wrapping error carries dataset, axis and bound details.
var (
	ErrGridBounds             = errors.New("grid out of bounds")
	ErrGridNotEquidistant     = errors.New("grid not equidistant")
	ErrGridNotPixelRegistered = errors.New("grid not pixel-registered")
	ErrInvalidVariableShape   = errors.New("invalid variable shape")
	ErrNoIntersection         = errors.New("no valid intersection")
	ErrUnknownMethod          = errors.New("unknown resampling method")
)
