package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"2024-11-11", "Nov 11, 2024"},
		{"2024-11-05", "Nov 5, 2024"},
		{"11/11/2024", "Nov 11, 2024"},
		{"11-11-2024", "Nov 11, 2024"},
		{"12-25-2024", "Dec 25, 2024"},
		{"13-45-2024", "13-45-2024"},
		{"Nov 11, 2024", "Nov 11, 2024"},
		{"2024-01-31 18:30:00", "Jan 31, 2024"},
		{"not a date", "not a date"},
		{"TBD", "TBD"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.raw))
		})
	}
}
