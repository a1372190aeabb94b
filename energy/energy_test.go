package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	assert.InDelta(t, 0.06, Estimate(50, 1.5, 0.08), 1e-12)
	assert.Equal(t, 0.0, Estimate(0, 2.5, 0.08))
	assert.InDelta(t, 0.2, Estimate(100, 2.5, 0.08), 1e-12)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    Size
		mult    float64
		wantErr bool
	}{
		{"small", SizeSmall, 0.8, false},
		{"Medium", SizeMedium, 1.5, false},
		{" LARGE ", SizeLarge, 2.5, false},
		{"huge", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			m, ok := got.Multiplier()
			assert.True(t, ok)
			assert.Equal(t, tt.mult, m)
			assert.NotEmpty(t, got.Description())
		})
	}
}

func TestCompare(t *testing.T) {
	calc := NewCalculator(0.08)

	cmp, err := calc.Compare(50, 25, SizeMedium)
	require.NoError(t, err)
	assert.InDelta(t, 0.06, cmp.OriginalKWh, 1e-12)
	assert.InDelta(t, 0.03, cmp.OptimizedKWh, 1e-12)
	assert.InDelta(t, 0.03, cmp.SavingsKWh, 1e-12)
	assert.InDelta(t, 50.0, cmp.SavingsPercent, 1e-9)
	assert.Equal(t, 1.5, cmp.Multiplier)
}

func TestCompareZeroOriginal(t *testing.T) {
	cmp, err := NewCalculator(0).Compare(0, 10, SizeSmall)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cmp.SavingsPercent)
	assert.Less(t, cmp.SavingsKWh, 0.0)
}

func TestCompareUnknownSize(t *testing.T) {
	_, err := NewCalculator(DefaultBase).Compare(10, 5, Size("tiny"))
	assert.Error(t, err)
}

func TestNewCalculatorDefaultsBase(t *testing.T) {
	assert.Equal(t, DefaultBase, NewCalculator(-1).Base)
	assert.Len(t, Sizes(), 3)
}
