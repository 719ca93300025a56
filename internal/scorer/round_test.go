package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundMatchScore(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{9.5, 9},
		{9.6, 10},
		{8.0, 8},
		{8.59, 8},
		{8.6, 9},
		{0, 0},
		{10, 10},
		{7.99, 8},
		{9.599999999999, 10}, // float noise below 1e-9 counts as 0.6
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundMatchScore(tt.in), "RoundMatchScore(%v)", tt.in)
	}
}
