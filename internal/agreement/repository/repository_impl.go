package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() agreementdomain.Repository {
	return &repo{}
}

// FindActiveAgreement selects the agreement in force for the hotel at asOf:
// active flag set, effective window containing asOf, newest created_at wins
// when windows overlap. Tier rules are loaded eagerly in stored order.
func (r *repo) FindActiveAgreement(ctx context.Context, tx *gorm.DB, hotelID snowflake.ID, asOf time.Time) (*agreementdomain.Agreement, error) {
	var agreement agreementdomain.Agreement
	err := tx.WithContext(ctx).Raw(
		`SELECT id, hotel_id, rate_type, base_rate, preferred_bonus_rate,
		 effective_from, effective_until, is_active, created_at, updated_at
		 FROM commission_agreements
		 WHERE hotel_id = ?
		 AND is_active = ?
		 AND effective_from <= ?
		 AND (effective_until IS NULL OR effective_until >= ?)
		 ORDER BY created_at DESC
		 LIMIT 1`,
		hotelID,
		true,
		asOf,
		asOf,
	).Scan(&agreement).Error
	if err != nil {
		return nil, err
	}
	if agreement.ID == 0 {
		return nil, nil
	}

	var rules []agreementdomain.TierRule
	err = tx.WithContext(ctx).Raw(
		`SELECT id, agreement_id, min_bookings, max_bookings, bonus_rate, created_at
		 FROM tier_rules
		 WHERE agreement_id = ?
		 ORDER BY created_at ASC, id ASC`,
		agreement.ID,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}
	agreement.TierRules = rules

	return &agreement, nil
}
