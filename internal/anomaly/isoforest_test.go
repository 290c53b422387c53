package anomaly

import (
	"testing"
)

func TestIsolationForest_FlagsObviousOutlier(t *testing.T) {
	f := NewIsolationForest(0.1)

	// A tight cluster around the origin plus one far point.
	var features [][]float64
	for i := 0; i < 29; i++ {
		features = append(features, []float64{float64(i%3) * 0.1, float64(i % 2), float64(i % 7)})
	}
	features = append(features, []float64{50, 0, 3})

	flags, err := f.Detect(features)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !flags[len(flags)-1] {
		t.Error("the far point should be flagged")
	}

	flagged := 0
	for _, fl := range flags {
		if fl {
			flagged++
		}
	}
	// ceil(0.1 * 30) = 3
	if flagged != 3 {
		t.Errorf("flagged %d points, want 3", flagged)
	}
}

func TestIsolationForest_Deterministic(t *testing.T) {
	var features [][]float64
	for i := 0; i < 20; i++ {
		features = append(features, []float64{float64(i), float64(i % 4), float64(i % 7)})
	}

	a, err := NewIsolationForest(0.1).Detect(features)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	b, err := NewIsolationForest(0.1).Detect(features)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatal("seeded forest must produce identical flags on identical input")
		}
	}
}

func TestIsolationForest_InvalidInput(t *testing.T) {
	f := NewIsolationForest(0.1)

	if _, err := f.Detect(nil); err == nil {
		t.Error("empty input should error")
	}
	if _, err := f.Detect([][]float64{{1, 2}, {1}}); err == nil {
		t.Error("ragged feature matrix should error")
	}
}

func TestNewIsolationForest_ClampsContamination(t *testing.T) {
	for _, c := range []float64{0, -1, 1, 2} {
		f := NewIsolationForest(c)
		if f.Contamination != 0.1 {
			t.Errorf("contamination %v should clamp to 0.1, got %v", c, f.Contamination)
		}
	}
}
