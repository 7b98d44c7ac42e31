package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	bookingdomain "github.com/roomledger/roomledger/internal/booking/domain"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EnsureDemoData seeds a small demo portfolio on an empty database: one
// standard hotel on a percentage agreement, one preferred hotel on a tiered
// agreement, and a couple of bookings to calculate against. Existing data is
// never touched.
func EnsureDemoData(conn *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := conn.Model(&hoteldomain.Hotel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		from := now.AddDate(0, -1, 0)

		seaside := &hoteldomain.Hotel{
			ID:     node.Generate(),
			Name:   "Seaside Grand",
			Slug:   "seaside-grand",
			Status: hoteldomain.PartnerStatusStandard,
		}
		harbor := &hoteldomain.Hotel{
			ID:     node.Generate(),
			Name:   "Harbor View",
			Slug:   "harbor-view",
			Status: hoteldomain.PartnerStatusPreferred,
		}
		if err := tx.Create([]*hoteldomain.Hotel{seaside, harbor}).Error; err != nil {
			return err
		}

		preferredBonus := decimal.RequireFromString("0.02")
		tierMax := 10
		agreements := []*agreementdomain.Agreement{
			{
				ID:            node.Generate(),
				HotelID:       seaside.ID,
				RateType:      agreementdomain.RateTypePercentage,
				BaseRate:      decimal.RequireFromString("0.10"),
				EffectiveFrom: from,
				IsActive:      true,
			},
			{
				ID:                 node.Generate(),
				HotelID:            harbor.ID,
				RateType:           agreementdomain.RateTypeTiered,
				BaseRate:           decimal.RequireFromString("0.08"),
				PreferredBonusRate: &preferredBonus,
				EffectiveFrom:      from,
				IsActive:           true,
				TierRules: []agreementdomain.TierRule{
					{
						ID:          node.Generate(),
						MinBookings: 5,
						MaxBookings: &tierMax,
						BonusRate:   decimal.RequireFromString("0.01"),
					},
					{
						ID:          node.Generate(),
						MinBookings: 11,
						BonusRate:   decimal.RequireFromString("0.02"),
					},
				},
			},
		}
		if err := tx.Create(agreements).Error; err != nil {
			return err
		}

		bookings := []*bookingdomain.Booking{
			{
				ID:          node.Generate(),
				HotelID:     seaside.ID,
				Reference:   "DEMO-0001",
				Amount:      decimal.RequireFromString("1500.00"),
				Currency:    "USD",
				Status:      bookingdomain.StatusCompleted,
				BookingDate: now.AddDate(0, 0, -7),
				CompletedAt: &now,
			},
			{
				ID:          node.Generate(),
				HotelID:     harbor.ID,
				Reference:   "DEMO-0002",
				Amount:      decimal.RequireFromString("820.50"),
				Currency:    "USD",
				Status:      bookingdomain.StatusPending,
				BookingDate: now.AddDate(0, 0, -2),
			},
		}
		return tx.Create(bookings).Error
	})
}
