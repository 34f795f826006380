package psd

import "errors"

var (
	// ErrUnsupportedConfiguration reports a cadence and classification pair
	// with no frequency limit.
	ErrUnsupportedConfiguration = errors.New("psd: unsupported configuration")

	// ErrTooFewSamples reports a series too short to define a frequency grid.
	ErrTooFewSamples = errors.New("psd: too few samples")
)
