package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyBps_HalfUp(t *testing.T) {
	// 1.9% of 1050 = 19.95 -> 20
	assert.Equal(t, int64(20), ApplyBps(1050, 190))
	// 19% of 999 = 189.81 -> 190
	assert.Equal(t, int64(190), ApplyBps(999, 1900))
	// exact half rounds up: 5% of 10 = 0.5 -> 1
	assert.Equal(t, int64(1), ApplyBps(10, 500))
}

func TestApplyBps_Zeroes(t *testing.T) {
	assert.Equal(t, int64(0), ApplyBps(0, 1900))
	assert.Equal(t, int64(0), ApplyBps(1000, 0))
	assert.Equal(t, int64(0), ApplyBps(-50, 1900))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, int64(100), Percent(1000, 10))
	assert.Equal(t, int64(333), Percent(3333, 10))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "€12.34", Format("EUR", 1234))
	assert.Equal(t, "$0.05", Format("USD", 5))
	assert.Equal(t, "12.34 SEK", Format("SEK", 1234))
}
