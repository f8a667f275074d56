package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceBalance(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"123", "123"},
		{"150 tℏ", "150"},
		{"1.5 ℏ", "150000000"},
		{" 0 ", "0"},
	}
	for _, tt := range tests {
		got, err := coerceBalance(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got.String(), tt.raw)
	}

	_, err := coerceBalance("lots")
	assert.Error(t, err)
}

func TestFormatHbar(t *testing.T) {
	assert.Equal(t, "1 ℏ", formatHbar(100_000_000))
	assert.Equal(t, "0.00000005 ℏ", formatHbar(5))
}
