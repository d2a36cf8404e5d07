// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestFloat32ToInt16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input float32
		want  int16
	}{
		{"zero", 0, 0},
		{"full scale", 1, math.MaxInt16},
		{"negative full scale", -1, -math.MaxInt16},
		{"half", 0.5, 16383},
		{"clamped high", 3, math.MaxInt16},
		{"clamped low", -3, -math.MaxInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Float32ToInt16(tt.input); got != tt.want {
				t.Errorf("Float32ToInt16(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIntToFloat32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v        int
		bitDepth int
		want     float32
	}{
		{-128, 8, -1},
		{64, 8, 0.5},
		{-32768, 16, -1},
		{8388608 / 4, 24, 0.25},
		{math.MinInt32, 32, -1},
		{16384, 12, 0.5}, // unknown depth falls back to 16 bit
	}

	for _, tt := range tests {
		if got := IntToFloat32(tt.v, tt.bitDepth); got != tt.want {
			t.Errorf("IntToFloat32(%d, %d) = %v, want %v", tt.v, tt.bitDepth, got, tt.want)
		}
	}

	if got := Int16ToFloat32(math.MinInt16); got != -1 {
		t.Errorf("Int16ToFloat32(MinInt16) = %v, want -1", got)
	}
}
