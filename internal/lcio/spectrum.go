package lcio

import (
	"fmt"
	"strings"
)

// SpectrumLayout is the header and number format of a spectrum file.
var SpectrumLayout = Layout{Header: "Frequency,Power", Precision: -1}

// WriteSpectrum writes a frequency and power column pair to path atomically.
func WriteSpectrum(path string, freq, power []float64) error {
	if len(freq) != len(power) {
		return fmt.Errorf("spectrum: %d frequencies, %d powers", len(freq), len(power))
	}

	return writeColumns(path, SpectrumLayout, freq, power)
}

// SpectrumName is the output name for the spectrum of a concatenated file.
func SpectrumName(fileName string) string {
	base := fileName
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}

	return base + "_psd.csv"
}
