package migration

import (
	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	bookingdomain "github.com/roomledger/roomledger/internal/booking/domain"
	commissiondomain "github.com/roomledger/roomledger/internal/commission/domain"
	"github.com/roomledger/roomledger/internal/config"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/roomledger/roomledger/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Versioned migrations target postgres; other dialects are for
			// local development and get the gorm schema directly.
			err := conn.AutoMigrate(
				&hoteldomain.Hotel{},
				&bookingdomain.Booking{},
				&agreementdomain.Agreement{},
				&agreementdomain.TierRule{},
				&commissiondomain.Record{},
			)
			if err != nil {
				return err
			}
		}

		if cfg.SeedDemoData && !cfg.IsProduction() {
			return seed.EnsureDemoData(conn, node)
		}
		return nil
	}),
)
