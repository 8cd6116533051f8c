package numfmt

import (
	"math"
	"testing"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{6, "6.0"},
		{0.5, "0.5"},
		{-1.25, "-1.25"},
		{1234567, "1234567.0"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{1e16, "1e+16"},
		{1.42002584, "1.42002584"},
		{math.Inf(1), "inf"},
	}
	for _, tt := range tests {
		if got := Float(tt.in); got != tt.want {
			t.Errorf("Float(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join([]float64{1, 0.5, -2}, " "); got != "1.0 0.5 -2.0" {
		t.Errorf("Join = %q", got)
	}
	if got := Int(-3); got != "-3" {
		t.Errorf("Int = %q", got)
	}
}
