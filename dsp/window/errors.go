package window

import "errors"

// ErrUnknownType is returned by [Parse] for an unrecognised window name.
var ErrUnknownType = errors.New("window: unknown type")

var (
	errEmptyCoeffs      = errors.New("window coefficients must not be empty")
	errZeroGain         = errors.New("window gain is zero")
	errMismatchedLength = errors.New("samples and coefficients must have same length")
)
