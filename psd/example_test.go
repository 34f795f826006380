package psd_test

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-lightcurve/psd"
)

func ExampleMaxFrequency() {
	for _, cadence := range []int{20, 120, 1800, 600} {
		fmax, err := psd.MaxFrequency(cadence, psd.ClassRGB)
		if errors.Is(err, psd.ErrUnsupportedConfiguration) {
			fmt.Println(cadence, "unsupported")
			continue
		}

		fmt.Println(cadence, fmax)
	}
	// Output:
	// 20 4000
	// 120 900
	// 1800 280
	// 600 unsupported
}
