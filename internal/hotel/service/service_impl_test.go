package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupHotelService(t *testing.T) (hoteldomain.Service, *snowflake.Node) {
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

	if err := db.AutoMigrate(&hoteldomain.Hotel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	service := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})

	return service, node
}

func TestCreateHotel(t *testing.T) {
	service, _ := setupHotelService(t)

	hotel, err := service.Create(context.Background(), hoteldomain.CreateHotelRequest{
		Name: "Seaside Grand Hotel",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if hotel.Status != hoteldomain.PartnerStatusStandard {
		t.Fatalf("expected STANDARD default, got %s", hotel.Status)
	}
	if hotel.Slug != "seaside-grand-hotel" {
		t.Fatalf("unexpected slug %q", hotel.Slug)
	}
}

func TestCreateHotelValidation(t *testing.T) {
	service, _ := setupHotelService(t)

	if _, err := service.Create(context.Background(), hoteldomain.CreateHotelRequest{Name: "  "}); err != hoteldomain.ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := service.Create(context.Background(), hoteldomain.CreateHotelRequest{Name: "Ok", Status: "GOLD"}); err != hoteldomain.ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestCreateHotelDuplicateName(t *testing.T) {
	service, _ := setupHotelService(t)

	if _, err := service.Create(context.Background(), hoteldomain.CreateHotelRequest{Name: "Harbor View"}); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := service.Create(context.Background(), hoteldomain.CreateHotelRequest{Name: "Harbor View"}); err != hoteldomain.ErrNameTaken {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestUpdateHotelStatus(t *testing.T) {
	service, node := setupHotelService(t)

	hotel, err := service.Create(context.Background(), hoteldomain.CreateHotelRequest{Name: "Harbor View"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	preferred := hoteldomain.PartnerStatusPreferred
	updated, err := service.Update(context.Background(), hotel.ID, hoteldomain.UpdateHotelRequest{Status: &preferred})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != hoteldomain.PartnerStatusPreferred {
		t.Fatalf("expected PREFERRED, got %s", updated.Status)
	}

	if _, err := service.Update(context.Background(), node.Generate(), hoteldomain.UpdateHotelRequest{Status: &preferred}); err != hoteldomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
