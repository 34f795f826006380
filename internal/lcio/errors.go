package lcio

import "errors"

// ErrMalformedInput reports a file that cannot be read as time and flux
// columns: a row with too few fields or a field that is not a number.
var ErrMalformedInput = errors.New("lcio: malformed input")
