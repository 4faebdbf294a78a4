package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1500", 1500},
		{"1500.50", 1500.5},
		{" 42abc", 42},
		{".5", 0.5},
		{"+.5", 0.5},
		{"5.", 5},
		{"-250", -250},
		{"1e3", 1000},
		{"1e", 1},
		{"2E-1x", 0.2},
		{"abc", 0},
		{"", 0},
		{"-", 0},
		{".", 0},
		{"NaN", 0},
		{"Infinity", 0},
		{"1e400", 0},
		{"₹1500", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.in))
		})
	}
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1500.0, ParseAmount("1500"))
	assert.Equal(t, 0.0, ParseAmount("-5"))
	assert.Equal(t, 0.0, ParseAmount("abc"))
	assert.Equal(t, 0.0, ParseAmount("1e400"))
}
