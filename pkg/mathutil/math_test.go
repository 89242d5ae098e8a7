package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Large number", 12345.678, 12345.68},
		{"Negative number round up", -1.235, -1.24},
		{"Zero", 0.0, 0.0},
		{"Very small positive", 0.001, 0.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSafeDivide(t *testing.T) {
	tests := []struct {
		name        string
		numerator   float64
		denominator float64
		expected    float64
	}{
		{"Normal division", 600.0, 1000.0, 0.6},
		{"Zero denominator", 600.0, 0.0, 0.0},
		{"Near-zero denominator", 600.0, 0.005, 0.0},
		{"Zero numerator", 0.0, 1000.0, 0.0},
		{"Negative numerator", -320.0, 1000.0, -0.32},
		{"Both zero", 0.0, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SafeDivide(tt.numerator, tt.denominator)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("SafeDivide(%v, %v) = %v, expected %v", tt.numerator, tt.denominator, result, tt.expected)
			}
		})
	}
}

func TestCompound(t *testing.T) {
	tests := []struct {
		name     string
		base     float64
		rate     float64
		periods  int
		expected float64
	}{
		{"Single period 10 percent", 1000.0, 10.0, 1, 1100.0},
		{"Two periods 10 percent", 1000.0, 10.0, 2, 1210.0},
		{"Zero rate", 1000.0, 0.0, 5, 1000.0},
		{"Zero periods", 1000.0, 10.0, 0, 1000.0},
		{"Negative rate", 1000.0, -50.0, 1, 500.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Compound(tt.base, tt.rate, tt.periods)
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("Compound(%v, %v, %v) = %v, expected %v", tt.base, tt.rate, tt.periods, result, tt.expected)
			}
		})
	}
}

func TestPct(t *testing.T) {
	if got := Pct(40.0); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("Pct(40) = %v, expected 0.4", got)
	}
	if got := Pct(0.0); got != 0.0 {
		t.Errorf("Pct(0) = %v, expected 0", got)
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		val1      float64
		val2      float64
		tolerance float64
		expected  bool
	}{
		{"Identical values", 100.0, 100.0, 0.01, true},
		{"Within tolerance", 100.0, 100.005, 0.01, true},
		{"Outside tolerance", 100.0, 100.02, 0.01, false},
		{"Negative values within", -50.0, -50.001, 0.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WithinTolerance(tt.val1, tt.val2, tt.tolerance)
			if result != tt.expected {
				t.Errorf("WithinTolerance(%v, %v, %v) = %v, expected %v", tt.val1, tt.val2, tt.tolerance, result, tt.expected)
			}
		})
	}
}
