package testutil

import (
	"math"
	"testing"
)

// AssertFloatsEqual compares two float slices treating NaN == NaN.
func AssertFloatsEqual(t *testing.T, got, want []float64, label string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d values, want %d", label, len(got), len(want))
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("%s[%d]: got %v, want NaN", label, i, got[i])
			}
			continue
		}
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%s[%d]: got %v, want %v", label, i, got[i], want[i])
		}
	}
}

// AssertIndices compares an index slice against the expected members.
func AssertIndices(t *testing.T, got, want []int, label string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %v, want %v", label, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: got %v, want %v", label, got, want)
		}
	}
}

// AssertNonNegative checks every finite value is >= 0.
func AssertNonNegative(t *testing.T, values []float64, label string) {
	t.Helper()
	for i, v := range values {
		if !math.IsNaN(v) && v < 0 {
			t.Errorf("%s[%d] = %v, want >= 0", label, i, v)
		}
	}
}
