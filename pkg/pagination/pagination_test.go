package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClampsValues(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
		wantOffset          int
	}{
		{0, 0, 1, DefaultLimit, 0},
		{-5, -5, 1, DefaultLimit, 0},
		{2, 10, 2, 10, 10},
		{3, 500, 3, MaxLimit, 400},
	}

	for _, tt := range tests {
		got := Normalize(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, got.Page)
		assert.Equal(t, tt.wantLimit, got.Limit)
		assert.Equal(t, tt.wantOffset, got.Offset)
	}
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, Pages(0, 50))
	assert.Equal(t, 1, Pages(1, 50))
	assert.Equal(t, 1, Pages(50, 50))
	assert.Equal(t, 2, Pages(51, 50))
	assert.Equal(t, 0, Pages(10, 0))
}
