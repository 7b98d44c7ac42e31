package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RateType string

const (
	RateTypeFlat       RateType = "FLAT"
	RateTypePercentage RateType = "PERCENTAGE"
	RateTypeTiered     RateType = "TIERED"
)

func (t RateType) Valid() bool {
	switch t {
	case RateTypeFlat, RateTypePercentage, RateTypeTiered:
		return true
	default:
		return false
	}
}

type Agreement struct {
	ID                 snowflake.ID     `json:"id" gorm:"primaryKey"`
	HotelID            snowflake.ID     `json:"hotel_id" gorm:"column:hotel_id;not null;index"`
	RateType           RateType         `json:"rate_type" gorm:"type:text;not null"`
	BaseRate           decimal.Decimal  `json:"base_rate" gorm:"type:numeric(10,4);not null"`
	PreferredBonusRate *decimal.Decimal `json:"preferred_bonus_rate,omitempty" gorm:"type:numeric(10,4)"`
	EffectiveFrom      time.Time        `json:"effective_from" gorm:"not null"`
	EffectiveUntil     *time.Time       `json:"effective_until,omitempty"`
	IsActive           bool             `json:"is_active" gorm:"not null;default:true"`
	CreatedAt          time.Time        `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time        `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	TierRules          []TierRule       `json:"tier_rules" gorm:"foreignKey:AgreementID;constraint:OnDelete:CASCADE"`
}

func (Agreement) TableName() string { return "commission_agreements" }

// TierRule grants a bonus rate when a hotel's completed booking count falls
// inside [MinBookings, MaxBookings]; a nil MaxBookings is open-ended.
type TierRule struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	AgreementID snowflake.ID    `json:"agreement_id" gorm:"column:agreement_id;not null;index"`
	MinBookings int             `json:"min_bookings" gorm:"not null"`
	MaxBookings *int            `json:"max_bookings,omitempty"`
	BonusRate   decimal.Decimal `json:"bonus_rate" gorm:"type:numeric(10,4);not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TierRule) TableName() string { return "tier_rules" }

// Matches reports whether completedCount falls inside the rule's inclusive range.
func (r TierRule) Matches(completedCount int) bool {
	if completedCount < r.MinBookings {
		return false
	}
	return r.MaxBookings == nil || *r.MaxBookings >= completedCount
}

var (
	ErrNotFound          = errors.New("agreement_not_found")
	ErrHotelNotFound     = errors.New("agreement_hotel_not_found")
	ErrInvalidRateType   = errors.New("invalid_rate_type")
	ErrInvalidBaseRate   = errors.New("invalid_base_rate")
	ErrTieredNeedsRules  = errors.New("tiered_agreement_needs_tier_rules")
	ErrInvalidTierRange  = errors.New("invalid_tier_range")
	ErrInvalidEffectives = errors.New("invalid_effective_window")
)

type TierRuleInput struct {
	MinBookings int             `json:"min_bookings"`
	MaxBookings *int            `json:"max_bookings"`
	BonusRate   decimal.Decimal `json:"bonus_rate"`
}

type CreateAgreementRequest struct {
	HotelID            snowflake.ID     `json:"hotel_id"`
	RateType           RateType         `json:"rate_type"`
	BaseRate           decimal.Decimal  `json:"base_rate"`
	PreferredBonusRate *decimal.Decimal `json:"preferred_bonus_rate"`
	EffectiveFrom      time.Time        `json:"effective_from"`
	EffectiveUntil     *time.Time       `json:"effective_until"`
	IsActive           *bool            `json:"is_active"`
	TierRules          []TierRuleInput  `json:"tier_rules"`
}

type ListAgreementsRequest struct {
	HotelID snowflake.ID
	Limit   int
	Offset  int
}

type Service interface {
	Create(ctx context.Context, req CreateAgreementRequest) (*Agreement, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Agreement, error)
	List(ctx context.Context, req ListAgreementsRequest) ([]*Agreement, error)
	Deactivate(ctx context.Context, id snowflake.ID) (*Agreement, error)
}

// Repository is the read surface the commission engine depends on. Absence
// of an active agreement is a normal outcome, returned as (nil, nil).
type Repository interface {
	FindActiveAgreement(ctx context.Context, tx *gorm.DB, hotelID snowflake.ID, asOf time.Time) (*Agreement, error)
}
