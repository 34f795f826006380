package window

import (
	"errors"
	"math"
	"testing"
)

func TestGenerateAllTypes(t *testing.T) {
	for typ := range names {
		t.Run(typ.String(), func(t *testing.T) {
			w := Generate(typ, 64)
			if len(w) != 64 {
				t.Fatalf("len=%d, want 64", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) || v < -1e-12 || v > 1+1e-12 {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
			}

			for i := range w {
				if !almostEqual(w[i], w[len(w)-1-i], 1e-12) {
					t.Fatalf("not symmetric at %d", i)
				}
			}
		})
	}
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	a := Generate(TypeHann, 16)

	b := Generate(TypeHann, 16, WithPeriodic())
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("unexpected lengths: %d %d", len(a), len(b))
	}

	if almostEqual(a[15], b[15], 1e-12) {
		t.Fatal("expected different end coefficient for periodic form")
	}
}

func TestTukeyAlpha(t *testing.T) {
	rect := Generate(TypeTukey, 32, WithAlpha(0))
	for i, v := range rect {
		if v != 1 {
			t.Fatalf("alpha 0 index %d: %v", i, v)
		}
	}

	checkGolden(t, Generate(TypeTukey, 32, WithAlpha(1)), Generate(TypeHann, 32), 1e-12)

	w := Generate(TypeTukey, 101, WithAlpha(0.2))
	if w[0] != 0 || w[50] != 1 {
		t.Fatalf("edge %v centre %v", w[0], w[50])
	}
}

func TestApplyInPlaceByType(t *testing.T) {
	buf := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	Apply(TypeRectangular, buf)

	for i, v := range buf {
		if v != float64(i+1) {
			t.Fatalf("rectangular should be passthrough at %d: %v", i, v)
		}
	}

	Apply(TypeHann, buf)

	if buf[0] != 0 {
		t.Fatalf("hann first sample should be 0, got %v", buf[0])
	}
}

func TestApplyCoefficients(t *testing.T) {
	out, err := ApplyCoefficients([]float64{1, 2, 3}, []float64{0.5, 0.5, 0.5})
	if err != nil {
		t.Fatal(err)
	}

	if !almostEqual(out[2], 1.5, 1e-12) {
		t.Fatalf("out[2]=%v", out[2])
	}

	if _, err := ApplyCoefficients([]float64{1, 2}, []float64{1}); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestGains(t *testing.T) {
	w := Generate(TypeHann, 4096, WithPeriodic())

	enbw, err := EquivalentNoiseBandwidth(w)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(enbw, 1.5, 1e-3) {
		t.Fatalf("hann ENBW=%v, want 1.5", enbw)
	}

	pg, err := PowerGain(w)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(pg, 0.375, 1e-3) {
		t.Fatalf("hann power gain=%v, want 0.375", pg)
	}

	if pg, _ := PowerGain(Generate(TypeRectangular, 10)); pg != 1 {
		t.Fatalf("rectangular power gain=%v", pg)
	}
}

func TestGoldenVectors(t *testing.T) {
	hannExpected := []float64{
		0.0, 0.1882550990706332, 0.6112604669781572, 0.9504844339512095,
		0.9504844339512095, 0.6112604669781573, 0.1882550990706333, 0.0,
	}
	hammingExpected := []float64{
		0.08, 0.25319469114498255, 0.6423596296199047, 0.9544456792351128,
		0.9544456792351128, 0.6423596296199048, 0.25319469114498266, 0.08,
	}

	checkGolden(t, Generate(TypeHann, 8), hannExpected, 1e-10)
	checkGolden(t, Generate(TypeHamming, 8), hammingExpected, 1e-10)
}

func TestParse(t *testing.T) {
	for typ, name := range names {
		got, err := Parse(" " + name + " ")
		if err != nil || got != typ {
			t.Fatalf("Parse(%q) = %v, %v", name, got, err)
		}
	}

	if got, err := Parse("Hann"); err != nil || got != TypeHann {
		t.Fatalf("Parse(Hann) = %v, %v", got, err)
	}

	if _, err := Parse("kaiser"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v", err)
	}
}

func TestValidationAndEdgeCases(t *testing.T) {
	if got := Generate(TypeHann, 0); got != nil {
		t.Fatalf("expected nil for zero length, got %v", got)
	}

	if got := Generate(TypeHann, 1); got[0] != 1 {
		t.Fatalf("single-sample window = %v", got)
	}

	if _, err := EquivalentNoiseBandwidth(nil); err == nil {
		t.Fatal("expected empty coeffs error")
	}

	if _, err := EquivalentNoiseBandwidth([]float64{0, 0, 0}); err == nil {
		t.Fatal("expected zero gain error")
	}

	if _, err := PowerGain([]float64{0, 0}); err == nil {
		t.Fatal("expected zero gain error")
	}
}

func checkGolden(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len mismatch got=%d want=%d", len(got), len(want))
	}

	for i := range got {
		if !almostEqual(got[i], want[i], tol) {
			t.Fatalf("index %d: got=%.16f want=%.16f", i, got[i], want[i])
		}
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestTypesCoversNames(t *testing.T) {
	types := Types()
	if len(types) != len(names) {
		t.Fatalf("Types() has %d entries, names has %d", len(types), len(names))
	}

	for _, typ := range types {
		if _, ok := names[typ]; !ok {
			t.Fatalf("type %d has no name", typ)
		}
	}
}
