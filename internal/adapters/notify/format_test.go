package notify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{12.345, "$12.35"},
		{-12.5, "-$12.50"},
		{1234567.891, "$1,234,567.89"},
		{100, "$100.00"},
		{math.Inf(1), "+Inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money(tt.in), "in=%v", tt.in)
	}
}

func TestAmountAndPrice(t *testing.T) {
	assert.Equal(t, "8,000.00", amount(8000))
	assert.Equal(t, "-150.25", amount(-150.25))
	assert.Equal(t, "0.490", price(0.49))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Will it...", truncate("Will it rain tomorrow?", 10))
}
