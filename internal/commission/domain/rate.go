package domain

import (
	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/shopspring/decimal"
)

// RateBreakdown is the composed rate and its components, kept for the audit
// snapshot.
type RateBreakdown struct {
	BaseRate        decimal.Decimal
	PreferredBonus  decimal.Decimal
	TierBonus       decimal.Decimal
	TotalRate       decimal.Decimal
	MatchedTierRule *agreementdomain.TierRule
}

func (b RateBreakdown) PreferredApplied() bool {
	return !b.PreferredBonus.IsZero()
}

func (b RateBreakdown) TierApplied() bool {
	return !b.TierBonus.IsZero()
}

// ComposeRate derives the effective rate for one calculation. Pure: every
// input combination yields a defined breakdown.
//
// The preferred bonus applies only when the hotel is a PREFERRED partner and
// the agreement carries a bonus rate. The tier bonus applies only to TIERED
// agreements: rules are scanned in stored order and the first rule whose
// inclusive range contains completedBookingCount wins. Rules are authored
// non-overlapping by the agreement owner; overlap is not validated here.
func ComposeRate(agreement *agreementdomain.Agreement, hotelStatus hoteldomain.PartnerStatus, completedBookingCount int) RateBreakdown {
	breakdown := RateBreakdown{
		BaseRate:       agreement.BaseRate,
		PreferredBonus: decimal.Zero,
		TierBonus:      decimal.Zero,
	}

	if hotelStatus == hoteldomain.PartnerStatusPreferred && agreement.PreferredBonusRate != nil {
		breakdown.PreferredBonus = *agreement.PreferredBonusRate
	}

	if agreement.RateType == agreementdomain.RateTypeTiered {
		for i := range agreement.TierRules {
			rule := agreement.TierRules[i]
			if rule.Matches(completedBookingCount) {
				breakdown.TierBonus = rule.BonusRate
				breakdown.MatchedTierRule = &agreement.TierRules[i]
				break
			}
		}
	}

	breakdown.TotalRate = breakdown.BaseRate.Add(breakdown.PreferredBonus).Add(breakdown.TierBonus)
	return breakdown
}
