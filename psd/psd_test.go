package psd

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-lightcurve/dsp/window"
	"github.com/cwbudde/algo-lightcurve/internal/testutil"
)

func TestMaxFrequency(t *testing.T) {
	tests := []struct {
		cadence int
		class   string
		want    float64
		err     bool
	}{
		{1800, ClassRGB, 280, false},
		{120, ClassRGB, 900, false},
		{60, ClassRGB, 900, false},
		{20, ClassRGB, 4000, false},
		{200, ClassRGB, 0, true},
		{120, "DWARF", 4000, false},
		{20, "", 4000, false},
		{1800, "DWARF", 280, false},
		{600, "", 280, false},
	}

	for _, tt := range tests {
		got, err := MaxFrequency(tt.cadence, tt.class)
		if tt.err {
			if !errors.Is(err, ErrUnsupportedConfiguration) {
				t.Errorf("%d/%s: err = %v", tt.cadence, tt.class, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%d/%s: got %v, %v want %v", tt.cadence, tt.class, got, err, tt.want)
		}
	}
}

func TestPrepare(t *testing.T) {
	tm := []float64{1, 2, math.NaN(), 4}
	fl := []float64{1, math.NaN(), 3, 0.5}

	gotT, gotF := Prepare(tm, fl)

	testutil.RequireSliceNearlyEqual(t, gotT, []float64{0.0864, 4 * 0.0864}, 1e-15)
	testutil.RequireSliceNearlyEqual(t, gotF, []float64{1e6, 5e5}, 1e-9)
	if tm[0] != 1 || fl[3] != 0.5 {
		t.Fatal("input modified")
	}
}

func TestAutoGrid(t *testing.T) {
	g, err := AutoGrid(10, 10, 1.0025)
	if err != nil {
		t.Fatal(err)
	}

	if !almostEqual(g.Step, 0.01, 1e-15) || !almostEqual(g.Start, 0.005, 1e-15) || g.N != 101 {
		t.Fatalf("grid %+v", g)
	}
	if !almostEqual(g.Max(), 1.005, 1e-12) {
		t.Fatalf("max %v", g.Max())
	}

	if g, _ := AutoGrid(10, 0, 0); g.N != 1 || !almostEqual(g.Step, 0.01, 1e-15) {
		t.Fatalf("grid %+v", g)
	}

	if _, err := AutoGrid(0, 10, 1); !errors.Is(err, ErrTooFewSamples) {
		t.Fatalf("err = %v", err)
	}
}

// directLombScargle evaluates the periodogram one frequency at a time with
// an explicitly computed τ.
func directLombScargle(t, y []float64, freqs []float64) []float64 {
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	out := make([]float64, len(freqs))
	for k, f := range freqs {
		w := 2 * math.Pi * f

		var s2, c2 float64
		for _, ti := range t {
			s2 += math.Sin(2 * w * ti)
			c2 += math.Cos(2 * w * ti)
		}
		tau := math.Atan2(s2, c2) / (2 * w)

		var yc, ys, cc, ss float64
		for i, ti := range t {
			c := math.Cos(w * (ti - tau))
			s := math.Sin(w * (ti - tau))
			yc += (y[i] - mean) * c
			ys += (y[i] - mean) * s
			cc += c * c
			ss += s * s
		}
		out[k] = 0.5 * (yc*yc/cc + ys*ys/ss)
	}

	return out
}

func randomSeries(seed int64, n int, span, freq float64) (tm, fl []float64) {
	rng := rand.New(rand.NewSource(seed))
	tm = make([]float64, n)
	for i := range tm {
		tm[i] = rng.Float64() * span
	}
	fl = testutil.Add(testutil.DeterministicSine(tm, freq, 1, 3), testutil.DeterministicNoise(seed, 0.3, n))
	return tm, fl
}

func TestLombScargleMatchesDirect(t *testing.T) {
	tm, fl := randomSeries(11, 60, 40, 0.21)
	g := Grid{Start: 0.0125, Step: 0.0125, N: 97}

	for _, chunk := range []int{1, 7, 1000} {
		got, err := LombScargle{Workers: 3, ChunkSize: chunk}.Estimate(context.Background(), tm, fl, g)
		if err != nil {
			t.Fatal(err)
		}

		want := directLombScargle(tm, fl, g.Frequencies())
		for i := range want {
			if math.Abs(got[i]-want[i]) > 1e-8*math.Max(1, want[i]) {
				t.Fatalf("chunk %d, freq %d: got %v want %v", chunk, i, got[i], want[i])
			}
		}
	}
}

func TestLombScargleIgnoresOffset(t *testing.T) {
	tm, fl := randomSeries(3, 80, 30, 0.4)
	g := Grid{Start: 0.01, Step: 0.01, N: 120}

	shifted := make([]float64, len(fl))
	for i, v := range fl {
		shifted[i] = v + 100
	}

	a, err := LombScargle{}.Estimate(context.Background(), tm, fl, g)
	if err != nil {
		t.Fatal(err)
	}

	b, err := LombScargle{}.Estimate(context.Background(), tm, shifted, g)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-8*math.Max(1, a[i]) {
			t.Fatalf("freq %d: %v with offset, %v without", i, b[i], a[i])
		}
	}
}

func TestLombScarglePeak(t *testing.T) {
	const f0 = 0.37

	tm, fl := randomSeries(5, 300, 100, f0)
	g, err := AutoGrid(100, 10, 1)
	if err != nil {
		t.Fatal(err)
	}

	p, err := LombScargle{}.Estimate(context.Background(), tm, fl, g)
	if err != nil {
		t.Fatal(err)
	}

	if peak := g.At(argmax(p)); math.Abs(peak-f0) > 0.01 {
		t.Fatalf("peak at %v, want %v", peak, f0)
	}
}

func TestFFTPeak(t *testing.T) {
	const f0 = 0.37

	n := 1000
	tm := testutil.Ramp(0, 0.1, n)
	fl := testutil.DeterministicSine(tm, f0, 1, 10)
	g, err := AutoGrid(tm[n-1], 10, 2)
	if err != nil {
		t.Fatal(err)
	}

	p, err := FFT{Window: window.TypeHann}.Estimate(context.Background(), tm, fl, g)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireFinite(t, p)
	if peak := g.At(argmax(p)); math.Abs(peak-f0) > 0.01 {
		t.Fatalf("peak at %v, want %v", peak, f0)
	}
}

func TestFFTAboveNyquistIsZero(t *testing.T) {
	tm := testutil.Ramp(0, 1, 64)
	fl := testutil.DeterministicNoise(2, 1, 64)

	p, err := FFT{}.Estimate(context.Background(), tm, fl, Grid{Start: 0.01, Step: 0.01, N: 100})
	if err != nil {
		t.Fatal(err)
	}

	for i := 51; i < 100; i++ {
		if p[i] != 0 {
			t.Fatalf("freq index %d above Nyquist: %v", i, p[i])
		}
	}
}

func TestFFTSize(t *testing.T) {
	e := FFT{MaxSize: 1 << 10}

	if got := e.size(100, 1, 0.001); got != 1<<10 {
		t.Fatalf("capped size %d", got)
	}
	if got := e.size(5000, 1, 0.1); got != 8192 {
		t.Fatalf("frame-bound size %d", got)
	}
	if got := (FFT{}).size(100, 1, 0.002); got != 512 {
		t.Fatalf("oversampled size %d", got)
	}
}

func TestComputeNormalization(t *testing.T) {
	// 200 two-minute samples of a 300 µHz oscillation.
	n := 200
	tm := testutil.Ramp(1000, 2.0/60/24, n)
	fl := testutil.Add(testutil.DC(1, n), testutil.DeterministicSine(scaled(tm, TimeScale), 300, 1e-4, 0))

	for _, est := range []Estimator{LombScargle{}, FFT{Window: window.TypeHann}} {
		spec, err := Compute(context.Background(), tm, fl, 120, ClassRGB, Options{Estimator: est})
		if err != nil {
			t.Fatalf("%s: %v", est.Name(), err)
		}

		if spec.Samples != n || len(spec.Frequency) != len(spec.Power) {
			t.Fatalf("%s: spectrum shape %d/%d/%d", est.Name(), spec.Samples, len(spec.Frequency), len(spec.Power))
		}
		if spec.Frequency[len(spec.Frequency)-1] > 900+spec.Frequency[0]*2 {
			t.Fatalf("%s: grid exceeds limit: %v", est.Name(), spec.Frequency[len(spec.Frequency)-1])
		}

		df := spec.Frequency[1] - spec.Frequency[0]
		var total float64
		for _, p := range spec.Power {
			total += p
		}
		if math.Abs(total*df-2*spec.Variance) > 1e-9*spec.Variance {
			t.Fatalf("%s: integral %v, want %v", est.Name(), total*df, 2*spec.Variance)
		}

		if peak := spec.Frequency[argmax(spec.Power)]; math.Abs(peak-300) > 3*df {
			t.Fatalf("%s: peak at %v µHz", est.Name(), peak)
		}
	}
}

func TestComputeErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := Compute(ctx, []float64{1, 2}, []float64{1, 2}, 120, ClassRGB, Options{}); !errors.Is(err, ErrTooFewSamples) {
		t.Fatalf("short series: %v", err)
	}

	tm := []float64{1, 2, 3, math.NaN()}
	fl := []float64{1, math.NaN(), 3, 4}
	if _, err := Compute(ctx, tm, fl, 120, "", Options{}); !errors.Is(err, ErrTooFewSamples) {
		t.Fatalf("missing values: %v", err)
	}

	if _, err := Compute(ctx, []float64{1, 2, 3}, []float64{1, 2, 3}, 200, ClassRGB, Options{}); !errors.Is(err, ErrUnsupportedConfiguration) {
		t.Fatalf("unsupported cadence: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	tm, fl = randomSeries(1, 50, 10, 0.5)
	if _, err := Compute(cancelled, tm, fl, 120, "", Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled: %v", err)
	}
}

func TestNewEstimator(t *testing.T) {
	for name, want := range map[string]string{"": "lomb-scargle", "Lomb-Scargle": "lomb-scargle", "fft": "fft"} {
		est, err := NewEstimator(name, window.TypeHann, 2)
		if err != nil || est.Name() != want {
			t.Fatalf("%q: %v, %v", name, est, err)
		}
	}

	if _, err := NewEstimator("welch", window.TypeHann, 1); !errors.Is(err, ErrUnsupportedConfiguration) {
		t.Fatalf("err = %v", err)
	}
}

func TestNormalizeZeroPower(t *testing.T) {
	p := []float64{0, 0, 0}
	Normalize(p, 1, 0.1)
	testutil.RequireSliceNearlyEqual(t, p, []float64{0, 0, 0}, 0)
}

func BenchmarkLombScargle(b *testing.B) {
	tm, fl := randomSeries(3, 4000, 27, 1.3)
	g, err := AutoGrid(27, 10, 50)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		if _, err := (LombScargle{}).Estimate(context.Background(), tm, fl, g); err != nil {
			b.Fatal(err)
		}
	}
}

func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

func scaled(x []float64, k float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v * k
	}
	return out
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
