package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeSchedule_FallsBackToDefaultTier(t *testing.T) {
	fs := NewFeeSchedule(FeeScheduleConfig{
		QuoteCurrency: "USD",
		Tiers: map[string]TierRates{
			"":    {MakerRate: 0.0001, TakerRate: 0.0005},
			"vip": {MakerRate: 0, TakerRate: 0.0002},
		},
	})

	assert.Equal(t, 0.0005, fs.Lookup("BTC-USD", Taker, "unknown-tier").Rate)
	assert.Equal(t, 0.0002, fs.Lookup("BTC-USD", Taker, "vip").Rate)
	assert.Equal(t, "USD", fs.Lookup("BTC-USD", Maker, "").Currency)
}

func TestFeeSchedule_SymbolOverrideWinsOverGlobalDefault(t *testing.T) {
	fs := NewFeeSchedule(FeeScheduleConfig{
		QuoteCurrency: "USD",
		Tiers: map[string]TierRates{
			"": {MakerRate: 0.0001, TakerRate: 0.0005},
		},
		SymbolOverrides: map[string]map[string]TierRates{
			"ETH-USD": {"": {MakerRate: 0.0002, TakerRate: 0.0006}},
		},
	})

	assert.Equal(t, 0.0002, fs.Lookup("ETH-USD", Maker, "").Rate)
	assert.Equal(t, 0.0001, fs.Lookup("BTC-USD", Maker, "").Rate)
}
