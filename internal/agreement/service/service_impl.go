package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	"github.com/roomledger/roomledger/internal/clock"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/roomledger/roomledger/pkg/db/option"
	"github.com/roomledger/roomledger/pkg/db/pagination"
	"github.com/roomledger/roomledger/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	genID     *snowflake.Node
	repo      repository.Repository[agreementdomain.Agreement]
	hotelRepo repository.Repository[hoteldomain.Hotel]
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
}

func NewService(p ServiceParam) agreementdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("agreement.service"),
		clock:     p.Clock,
		genID:     p.GenID,
		repo:      repository.ProvideStore[agreementdomain.Agreement](p.DB),
		hotelRepo: repository.ProvideStore[hoteldomain.Hotel](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req agreementdomain.CreateAgreementRequest) (*agreementdomain.Agreement, error) {
	hotel, err := s.hotelRepo.FindOne(ctx, &hoteldomain.Hotel{ID: req.HotelID})
	if err != nil {
		return nil, err
	}
	if hotel == nil {
		return nil, agreementdomain.ErrHotelNotFound
	}

	if !req.RateType.Valid() {
		return nil, agreementdomain.ErrInvalidRateType
	}
	if req.BaseRate.IsNegative() {
		return nil, agreementdomain.ErrInvalidBaseRate
	}
	if req.RateType == agreementdomain.RateTypeTiered && len(req.TierRules) == 0 {
		return nil, agreementdomain.ErrTieredNeedsRules
	}

	effectiveFrom := req.EffectiveFrom
	if effectiveFrom.IsZero() {
		effectiveFrom = s.clock.Now()
	}
	if req.EffectiveUntil != nil && req.EffectiveUntil.Before(effectiveFrom) {
		return nil, agreementdomain.ErrInvalidEffectives
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	agreement := &agreementdomain.Agreement{
		ID:                 s.genID.Generate(),
		HotelID:            hotel.ID,
		RateType:           req.RateType,
		BaseRate:           req.BaseRate,
		PreferredBonusRate: req.PreferredBonusRate,
		EffectiveFrom:      effectiveFrom.UTC(),
		EffectiveUntil:     req.EffectiveUntil,
		IsActive:           isActive,
	}

	for _, rule := range req.TierRules {
		if rule.MinBookings < 0 || (rule.MaxBookings != nil && *rule.MaxBookings < rule.MinBookings) {
			return nil, agreementdomain.ErrInvalidTierRange
		}
		agreement.TierRules = append(agreement.TierRules, agreementdomain.TierRule{
			ID:          s.genID.Generate(),
			AgreementID: agreement.ID,
			MinBookings: rule.MinBookings,
			MaxBookings: rule.MaxBookings,
			BonusRate:   rule.BonusRate,
		})
	}

	// Tier rules ride along through the association so agreement and rules
	// land in one transaction.
	if err := s.db.WithContext(ctx).Create(agreement).Error; err != nil {
		return nil, err
	}

	s.log.Info("agreement created",
		zap.String("agreement_id", agreement.ID.String()),
		zap.String("hotel_id", agreement.HotelID.String()),
		zap.String("rate_type", string(agreement.RateType)),
		zap.Int("tier_rules", len(agreement.TierRules)),
	)
	return agreement, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
	agreement, err := s.repo.FindOne(ctx, &agreementdomain.Agreement{ID: id},
		option.WithPreload("TierRules", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}),
	)
	if err != nil {
		return nil, err
	}
	if agreement == nil {
		return nil, agreementdomain.ErrNotFound
	}
	return agreement, nil
}

func (s *Service) List(ctx context.Context, req agreementdomain.ListAgreementsRequest) ([]*agreementdomain.Agreement, error) {
	page := pagination.Normalize(req.Limit, req.Offset)
	return s.repo.Find(ctx, &agreementdomain.Agreement{HotelID: req.HotelID},
		option.WithPreload("TierRules", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}),
		option.WithOrderBy("created_at DESC"),
		option.WithLimit(page.Limit),
		option.WithOffset(page.Offset),
	)
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
	agreement, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !agreement.IsActive {
		return agreement, nil
	}

	updates := map[string]any{"is_active": false, "updated_at": s.clock.Now()}
	if err := s.repo.Update(ctx, id.String(), updates); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}
