package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		page, limit string
		want        Page
	}{
		{"", "", Page{1, 10}},
		{"3", "20", Page{3, 20}},
		{"abc", "-5", Page{1, 10}},
		{"0", "0", Page{1, 10}},
		{"2", "1000", Page{2, MaxLimit}},
		{"9223372036854775807", "10", Page{math.MaxInt64 / 10, 10}},
		{"9223372036854775807", "100", Page{math.MaxInt64 / 100, 100}},
	}
	for _, tt := range tests {
		got := ParsePage(tt.page, tt.limit)
		assert.Equal(t, tt.want, got, "page=%q limit=%q", tt.page, tt.limit)
		assert.GreaterOrEqual(t, got.Skip(), int64(0), "page=%q limit=%q", tt.page, tt.limit)
	}
}

func TestPageSkipSaturates(t *testing.T) {
	assert.Equal(t, int64(0), Page{Page: 0, Limit: 10}.Skip())
	assert.Equal(t, int64(math.MaxInt64), Page{Page: math.MaxInt64, Limit: 10}.Skip())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), TotalPages(0, 10))
	assert.Equal(t, int64(1), TotalPages(10, 10))
	assert.Equal(t, int64(2), TotalPages(11, 10))
	assert.Equal(t, int64(20), Page{Page: 3, Limit: 10}.Skip())
}
