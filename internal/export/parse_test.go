package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTruthy(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Да", true},
		{"да", true},
		{" ДА ", true},
		{"YES", true},
		{"yes", true},
		{"y", true},
		{"Y", true},
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"0", false},
		{"", false},
		{"   ", false},
		{"no", false},
		{"нет", false},
		{"false", false},
		{"maybe", false},
		{"2", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTruthy(tt.in), "ParseTruthy(%q)", tt.in)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"30", 30, true},
		{"30%", 30, true},
		{"1 500,50", 1500.5, true},
		{"1,500.50", 1500.5, true},
		{"12.5", 12.5, true},
		{"1 000 ₽", 1000, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"1.500,50", 1500.5, true},
		{"1,500", 1500, true},
		{"1.500", 1500, true},
		{"1,500,000", 1500000, true},
		{"1.500.000,25", 1500000.25, true},
		{"1,5", 1.5, true},
		{"0,125", 0.125, true},
		{"-2,50", -2.5, true},
		{"NaN", 0, false},
		{"inf", 0, false},
		{"-Infinity", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseAmount(tt.in)
		assert.Equal(t, tt.wantOK, ok, "parseAmount(%q) ok", tt.in)
		assert.InDelta(t, tt.want, got, 0.0001, "parseAmount(%q)", tt.in)
	}
}
