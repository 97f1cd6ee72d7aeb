package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	number := generateOrderNumber(now)
	assert.Len(t, number, 14)
	assert.Equal(t, "250901", number[:6])
	for _, r := range number {
		assert.True(t, r >= '0' && r <= '9', "unexpected character %q in %s", r, number)
	}
}

func TestGeneratePONumber(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	number := generatePONumber(now)
	assert.Len(t, number, 12)
	assert.Equal(t, "PO2509", number[:6])
}

func TestNumericSuffixLength(t *testing.T) {
	for _, n := range []int{6, 8} {
		suffix := numericSuffix(n)
		assert.Len(t, suffix, n)
	}
}
