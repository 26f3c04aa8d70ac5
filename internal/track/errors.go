package track

import "errors"

// ErrInvalidInput indicates a bad forecast window, sample interval, or
// instant list. The track computation is aborted; no partial result exists.
var ErrInvalidInput = errors.New("invalid input")

// ErrPropagation indicates the propagator rejected an instant or element set.
// The underlying propagator error remains reachable through errors.Is/As.
var ErrPropagation = errors.New("propagation failed")
