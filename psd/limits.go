package psd

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// ClassRGB marks a red-giant-branch star selected from the colour-magnitude
// diagram.
const ClassRGB = "RGB_CMD"

// Unit conversions applied by [Prepare]. Time goes from days to megaseconds
// so that frequencies come out in microhertz.
const (
	FluxScale = 1e6
	TimeScale = 0.0864
)

// MaxFrequency returns the upper frequency limit in microhertz for a cadence
// in seconds and a target class.
//
// Red giants are limited by the cadence's usable band. Any other class uses
// 4000 µHz for cadences up to two minutes and 280 µHz otherwise.
func MaxFrequency(cadence int, class string) (float64, error) {
	if class != ClassRGB {
		if cadence <= 120 {
			return 4000, nil
		}

		return 280, nil
	}

	switch cadence {
	case 1800:
		return 280, nil
	case 60, 120:
		return 900, nil
	case 20:
		return 4000, nil
	default:
		return 0, fmt.Errorf("%w: cadence %ds for %s", ErrUnsupportedConfiguration, cadence, class)
	}
}

// Prepare drops samples with a missing time or flux, converts flux to parts
// per million and time to megaseconds. The inputs are not modified.
func Prepare(time, flux []float64) (t, f []float64) {
	n := min(len(time), len(flux))

	t = make([]float64, 0, n)
	f = make([]float64, 0, n)

	for i := range n {
		if math.IsNaN(time[i]) || math.IsNaN(flux[i]) {
			continue
		}

		t = append(t, time[i])
		f = append(f, flux[i])
	}

	vecmath.ScaleBlockInPlace(t, TimeScale)
	vecmath.ScaleBlockInPlace(f, FluxScale)

	return t, f
}
