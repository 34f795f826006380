package robust_test

import (
	"fmt"

	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

func ExampleMedianStep() {
	step, _ := robust.MedianStep([]float64{0, 0.5, 1, 3, 3.5})
	fmt.Printf("step=%.1f\n", step)

	// Output:
	// step=0.5
}

func ExampleStd() {
	fmt.Printf("%.3f\n", robust.Std([]float64{1, 2, 3, 4}, 1))

	// Output:
	// 1.291
}
