package tradein

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewReferenceNumber(t *testing.T) {
	at := time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ref := NewReferenceNumber(at)
		assert.True(t, IsReferenceNumber(ref), ref)
		assert.Equal(t, "TI-20261019-", ref[:12])
		seen[ref] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestIsReferenceNumber(t *testing.T) {
	assert.True(t, IsReferenceNumber("TI-20261019-0a1b2c"))
	assert.False(t, IsReferenceNumber("TI-2026101-0a1b2c"))
	assert.False(t, IsReferenceNumber("TI-20261019-0A1B2C"))
	assert.False(t, IsReferenceNumber("TI-20261019-0a1b2c3"))
	assert.False(t, IsReferenceNumber(""))
}
