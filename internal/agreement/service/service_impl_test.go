package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	"github.com/roomledger/roomledger/internal/clock"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAgreementService(t *testing.T, fake *clock.FakeClock) (agreementdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	err = db.AutoMigrate(&hoteldomain.Hotel{}, &agreementdomain.Agreement{}, &agreementdomain.TierRule{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	service := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		GenID: node,
	})

	return service, db, node
}

func seedHotel(t *testing.T, db *gorm.DB, node *snowflake.Node) *hoteldomain.Hotel {
	t.Helper()
	hotel := &hoteldomain.Hotel{
		ID:     node.Generate(),
		Name:   fmt.Sprintf("hotel-%s", node.Generate()),
		Slug:   "test-hotel",
		Status: hoteldomain.PartnerStatusStandard,
	}
	if err := db.Create(hotel).Error; err != nil {
		t.Fatalf("seed hotel: %v", err)
	}
	return hotel
}

func TestCreateAgreementDefaults(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	service, db, node := setupAgreementService(t, fake)
	hotel := seedHotel(t, db, node)

	agreement, err := service.Create(context.Background(), agreementdomain.CreateAgreementRequest{
		HotelID:  hotel.ID,
		RateType: agreementdomain.RateTypePercentage,
		BaseRate: decimal.RequireFromString("0.10"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !agreement.IsActive {
		t.Fatalf("expected agreement active by default")
	}
	if !agreement.EffectiveFrom.Equal(fake.Now()) {
		t.Fatalf("expected effective_from defaulted to now, got %v", agreement.EffectiveFrom)
	}
}

func TestCreateAgreementValidation(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	service, db, node := setupAgreementService(t, fake)
	hotel := seedHotel(t, db, node)

	until := fake.Now().AddDate(0, -1, 0)
	badMax := 3

	cases := []struct {
		name string
		req  agreementdomain.CreateAgreementRequest
		want error
	}{
		{
			name: "missing hotel",
			req: agreementdomain.CreateAgreementRequest{
				HotelID:  node.Generate(),
				RateType: agreementdomain.RateTypeFlat,
				BaseRate: decimal.RequireFromString("10"),
			},
			want: agreementdomain.ErrHotelNotFound,
		},
		{
			name: "invalid rate type",
			req: agreementdomain.CreateAgreementRequest{
				HotelID:  hotel.ID,
				RateType: "PROGRESSIVE",
				BaseRate: decimal.RequireFromString("0.10"),
			},
			want: agreementdomain.ErrInvalidRateType,
		},
		{
			name: "negative base rate",
			req: agreementdomain.CreateAgreementRequest{
				HotelID:  hotel.ID,
				RateType: agreementdomain.RateTypePercentage,
				BaseRate: decimal.RequireFromString("-0.10"),
			},
			want: agreementdomain.ErrInvalidBaseRate,
		},
		{
			name: "tiered without rules",
			req: agreementdomain.CreateAgreementRequest{
				HotelID:  hotel.ID,
				RateType: agreementdomain.RateTypeTiered,
				BaseRate: decimal.RequireFromString("0.08"),
			},
			want: agreementdomain.ErrTieredNeedsRules,
		},
		{
			name: "tier max below min",
			req: agreementdomain.CreateAgreementRequest{
				HotelID:  hotel.ID,
				RateType: agreementdomain.RateTypeTiered,
				BaseRate: decimal.RequireFromString("0.08"),
				TierRules: []agreementdomain.TierRuleInput{
					{MinBookings: 5, MaxBookings: &badMax, BonusRate: decimal.RequireFromString("0.01")},
				},
			},
			want: agreementdomain.ErrInvalidTierRange,
		},
		{
			name: "effective until before from",
			req: agreementdomain.CreateAgreementRequest{
				HotelID:        hotel.ID,
				RateType:       agreementdomain.RateTypePercentage,
				BaseRate:       decimal.RequireFromString("0.10"),
				EffectiveFrom:  fake.Now(),
				EffectiveUntil: &until,
			},
			want: agreementdomain.ErrInvalidEffectives,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.Create(context.Background(), tc.req); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateTieredAgreementPersistsRules(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	service, db, node := setupAgreementService(t, fake)
	hotel := seedHotel(t, db, node)

	max := 10
	created, err := service.Create(context.Background(), agreementdomain.CreateAgreementRequest{
		HotelID:  hotel.ID,
		RateType: agreementdomain.RateTypeTiered,
		BaseRate: decimal.RequireFromString("0.08"),
		TierRules: []agreementdomain.TierRuleInput{
			{MinBookings: 5, MaxBookings: &max, BonusRate: decimal.RequireFromString("0.01")},
			{MinBookings: 11, BonusRate: decimal.RequireFromString("0.02")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := service.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if len(loaded.TierRules) != 2 {
		t.Fatalf("expected 2 tier rules, got %d", len(loaded.TierRules))
	}
	if loaded.TierRules[0].MinBookings != 5 || loaded.TierRules[1].MinBookings != 11 {
		t.Fatalf("expected rules in stored order, got %+v", loaded.TierRules)
	}
}

func TestDeactivateAgreement(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	service, db, node := setupAgreementService(t, fake)
	hotel := seedHotel(t, db, node)

	created, err := service.Create(context.Background(), agreementdomain.CreateAgreementRequest{
		HotelID:  hotel.ID,
		RateType: agreementdomain.RateTypePercentage,
		BaseRate: decimal.RequireFromString("0.10"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deactivated, err := service.Deactivate(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.IsActive {
		t.Fatalf("expected agreement inactive")
	}

	// Deactivating twice is a no-op.
	again, err := service.Deactivate(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("deactivate again: %v", err)
	}
	if again.IsActive {
		t.Fatalf("expected agreement to stay inactive")
	}
}

func TestGetAgreementNotFound(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	service, _, node := setupAgreementService(t, fake)

	if _, err := service.GetByID(context.Background(), node.Generate()); err != agreementdomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
