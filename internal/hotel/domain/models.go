package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type PartnerStatus string

const (
	PartnerStatusStandard  PartnerStatus = "STANDARD"
	PartnerStatusPreferred PartnerStatus = "PREFERRED"
)

func (s PartnerStatus) Valid() bool {
	switch s {
	case PartnerStatusStandard, PartnerStatusPreferred:
		return true
	default:
		return false
	}
}

type Hotel struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	Name      string        `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Slug      string        `json:"slug" gorm:"type:text;not null"`
	Status    PartnerStatus `json:"status" gorm:"type:text;not null;default:'STANDARD'"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Hotel) TableName() string { return "hotels" }

var (
	ErrNotFound      = errors.New("hotel_not_found")
	ErrNameTaken     = errors.New("hotel_name_taken")
	ErrInvalidName   = errors.New("invalid_hotel_name")
	ErrInvalidStatus = errors.New("invalid_hotel_status")
)

type CreateHotelRequest struct {
	Name   string        `json:"name"`
	Status PartnerStatus `json:"status"`
}

type UpdateHotelRequest struct {
	Name   *string        `json:"name"`
	Status *PartnerStatus `json:"status"`
}

type ListHotelsRequest struct {
	Limit  int
	Offset int
}

type Service interface {
	Create(ctx context.Context, req CreateHotelRequest) (*Hotel, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateHotelRequest) (*Hotel, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Hotel, error)
	List(ctx context.Context, req ListHotelsRequest) ([]*Hotel, error)
}
