package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEarningsSumsExactly(t *testing.T) {
	cases := []struct {
		amount int64
		rate   float64
	}{
		{10000, 10},
		{9999, 10},
		{1, 10},
		{333, 33.33},
		{5250, 12.5},
		{1000000, 0},
	}
	for _, c := range cases {
		commission, earnings := SplitEarnings(c.amount, c.rate)
		assert.Equal(t, c.amount, commission+earnings,
			"amount=%d rate=%.2f", c.amount, c.rate)
		assert.GreaterOrEqual(t, commission, int64(0))
		assert.GreaterOrEqual(t, earnings, int64(0))
	}
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, int64(20), RoundPercent(1000, 2))
	assert.Equal(t, int64(100), RoundPercent(1000, 10))
	assert.Equal(t, int64(0), RoundPercent(4, 10))  // 0.4 rounds down
	assert.Equal(t, int64(1), RoundPercent(5, 10))  // 0.5 rounds up
	assert.Equal(t, int64(1), RoundPercent(14, 10)) // 1.4 rounds down
}

func TestBuildPricingRecomputesFinalAmount(t *testing.T) {
	rates := RateSnapshot{CommissionRate: 10}

	p, err := BuildPricing(5000, 500, 250, 100, rates)
	require.NoError(t, err)
	assert.Equal(t, int64(4850), p.FinalAmount)
	assert.Equal(t, int64(485), p.PlatformCommission)
	assert.Equal(t, int64(4365), p.ProviderEarnings)
	assert.Equal(t, 10.0, p.CommissionRate)
}

func TestBuildPricingRejectsBadInput(t *testing.T) {
	rates := RateSnapshot{CommissionRate: 10}
	var vErr *ValidationError

	_, err := BuildPricing(0, 0, 0, 0, rates)
	require.ErrorAs(t, err, &vErr)

	_, err = BuildPricing(1000, -1, 0, 0, rates)
	require.ErrorAs(t, err, &vErr)

	_, err = BuildPricing(1000, 2000, 0, 0, rates)
	require.ErrorAs(t, err, &vErr, "discount beyond base yields non-positive total")
}
