package domain

import (
	"testing"

	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComposeRateBaseOnly(t *testing.T) {
	agreement := &agreementdomain.Agreement{
		RateType: agreementdomain.RateTypePercentage,
		BaseRate: rate("0.10"),
	}

	b := ComposeRate(agreement, hoteldomain.PartnerStatusStandard, 0)

	assert.True(t, b.TotalRate.Equal(rate("0.10")))
	assert.False(t, b.PreferredApplied())
	assert.False(t, b.TierApplied())
	assert.Nil(t, b.MatchedTierRule)
}

func TestComposeRatePreferredBonus(t *testing.T) {
	bonus := rate("0.02")
	agreement := &agreementdomain.Agreement{
		RateType:           agreementdomain.RateTypePercentage,
		BaseRate:           rate("0.10"),
		PreferredBonusRate: &bonus,
	}

	preferred := ComposeRate(agreement, hoteldomain.PartnerStatusPreferred, 0)
	assert.True(t, preferred.TotalRate.Equal(rate("0.12")))
	assert.True(t, preferred.PreferredApplied())

	standard := ComposeRate(agreement, hoteldomain.PartnerStatusStandard, 0)
	assert.True(t, standard.TotalRate.Equal(rate("0.10")))
	assert.False(t, standard.PreferredApplied())
}

func TestComposeRatePreferredWithoutBonusRate(t *testing.T) {
	agreement := &agreementdomain.Agreement{
		RateType: agreementdomain.RateTypePercentage,
		BaseRate: rate("0.10"),
	}

	b := ComposeRate(agreement, hoteldomain.PartnerStatusPreferred, 0)
	assert.True(t, b.TotalRate.Equal(rate("0.10")))
	assert.False(t, b.PreferredApplied())
}

func TestComposeRateTieredFirstMatch(t *testing.T) {
	maxFirst := 10
	agreement := &agreementdomain.Agreement{
		RateType: agreementdomain.RateTypeTiered,
		BaseRate: rate("0.08"),
		TierRules: []agreementdomain.TierRule{
			{MinBookings: 5, MaxBookings: &maxFirst, BonusRate: rate("0.01")},
			{MinBookings: 11, BonusRate: rate("0.02")},
		},
	}

	below := ComposeRate(agreement, hoteldomain.PartnerStatusStandard, 3)
	assert.True(t, below.TotalRate.Equal(rate("0.08")))
	assert.False(t, below.TierApplied())

	first := ComposeRate(agreement, hoteldomain.PartnerStatusStandard, 5)
	assert.True(t, first.TotalRate.Equal(rate("0.09")))
	assert.True(t, first.TierApplied())
	assert.NotNil(t, first.MatchedTierRule)

	second := ComposeRate(agreement, hoteldomain.PartnerStatusStandard, 15)
	assert.True(t, second.TotalRate.Equal(rate("0.10")))
}

func TestComposeRateTierRulesIgnoredForNonTiered(t *testing.T) {
	agreement := &agreementdomain.Agreement{
		RateType: agreementdomain.RateTypePercentage,
		BaseRate: rate("0.10"),
		TierRules: []agreementdomain.TierRule{
			{MinBookings: 0, BonusRate: rate("0.05")},
		},
	}

	b := ComposeRate(agreement, hoteldomain.PartnerStatusStandard, 100)
	assert.True(t, b.TotalRate.Equal(rate("0.10")))
	assert.False(t, b.TierApplied())
}

func TestComposeRateStacksPreferredAndTier(t *testing.T) {
	bonus := rate("0.02")
	agreement := &agreementdomain.Agreement{
		RateType:           agreementdomain.RateTypeTiered,
		BaseRate:           rate("0.08"),
		PreferredBonusRate: &bonus,
		TierRules: []agreementdomain.TierRule{
			{MinBookings: 5, BonusRate: rate("0.01")},
		},
	}

	b := ComposeRate(agreement, hoteldomain.PartnerStatusPreferred, 7)
	assert.True(t, b.TotalRate.Equal(rate("0.11")))
	assert.True(t, b.PreferredApplied())
	assert.True(t, b.TierApplied())
}

func TestTierRuleMatchesBoundaries(t *testing.T) {
	max := 10
	bounded := agreementdomain.TierRule{MinBookings: 5, MaxBookings: &max}

	assert.False(t, bounded.Matches(4))
	assert.True(t, bounded.Matches(5))
	assert.True(t, bounded.Matches(10))
	assert.False(t, bounded.Matches(11))

	open := agreementdomain.TierRule{MinBookings: 11}
	assert.False(t, open.Matches(10))
	assert.True(t, open.Matches(11))
	assert.True(t, open.Matches(10_000))
}
