package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// CanTransitionTo encodes the one-way state machine: PENDING may move to
// COMPLETED or CANCELLED; both of those are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusCompleted || next == StatusCancelled
}

type Booking struct {
	ID          snowflake.ID       `json:"id" gorm:"primaryKey"`
	HotelID     snowflake.ID       `json:"hotel_id" gorm:"column:hotel_id;not null;index"`
	Reference   string             `json:"reference" gorm:"type:text;not null;uniqueIndex"`
	Amount      decimal.Decimal    `json:"amount" gorm:"type:numeric(14,2);not null"`
	Currency    string             `json:"currency" gorm:"type:text;not null"`
	Status      Status             `json:"status" gorm:"type:text;not null;default:'PENDING'"`
	BookingDate time.Time          `json:"booking_date" gorm:"not null"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time          `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	Hotel       *hoteldomain.Hotel `json:"hotel,omitempty" gorm:"foreignKey:HotelID"`
}

func (Booking) TableName() string { return "bookings" }

var (
	ErrNotFound           = errors.New("booking_not_found")
	ErrHotelNotFound      = errors.New("booking_hotel_not_found")
	ErrReferenceTaken     = errors.New("booking_reference_taken")
	ErrInvalidAmount      = errors.New("invalid_booking_amount")
	ErrInvalidCurrency    = errors.New("invalid_booking_currency")
	ErrInvalidTransition  = errors.New("invalid_booking_transition")
	ErrInvalidBookingDate = errors.New("invalid_booking_date")
)

type CreateBookingRequest struct {
	HotelID     snowflake.ID    `json:"hotel_id"`
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	BookingDate time.Time       `json:"booking_date"`
}

type ListBookingsRequest struct {
	HotelID snowflake.ID
	Status  Status
	Limit   int
	Offset  int
}

type Service interface {
	Create(ctx context.Context, req CreateBookingRequest) (*Booking, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Booking, error)
	List(ctx context.Context, req ListBookingsRequest) ([]*Booking, error)
	Complete(ctx context.Context, id snowflake.ID) (*Booking, error)
	Cancel(ctx context.Context, id snowflake.ID) (*Booking, error)
}
