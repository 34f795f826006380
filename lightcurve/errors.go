package lightcurve

import "errors"

// ErrLengthMismatch is returned when time and flux columns differ in length.
var ErrLengthMismatch = errors.New("time and flux must have the same length")
