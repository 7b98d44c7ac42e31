package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	bookingdomain "github.com/roomledger/roomledger/internal/booking/domain"
	"github.com/roomledger/roomledger/internal/clock"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/roomledger/roomledger/pkg/db"
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
	repo      repository.Repository[bookingdomain.Booking]
	hotelRepo repository.Repository[hoteldomain.Hotel]
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
}

func NewService(p ServiceParam) bookingdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("booking.service"),
		clock:     p.Clock,
		genID:     p.GenID,
		repo:      repository.ProvideStore[bookingdomain.Booking](p.DB),
		hotelRepo: repository.ProvideStore[hoteldomain.Hotel](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req bookingdomain.CreateBookingRequest) (*bookingdomain.Booking, error) {
	hotel, err := s.hotelRepo.FindOne(ctx, &hoteldomain.Hotel{ID: req.HotelID})
	if err != nil {
		return nil, err
	}
	if hotel == nil {
		return nil, bookingdomain.ErrHotelNotFound
	}

	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, bookingdomain.ErrInvalidAmount
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, bookingdomain.ErrInvalidCurrency
	}

	if req.BookingDate.IsZero() {
		return nil, bookingdomain.ErrInvalidBookingDate
	}

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = uuid.NewString()
	}

	booking := &bookingdomain.Booking{
		ID:          s.genID.Generate(),
		HotelID:     hotel.ID,
		Reference:   reference,
		Amount:      req.Amount,
		Currency:    currency,
		Status:      bookingdomain.StatusPending,
		BookingDate: req.BookingDate.UTC(),
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, bookingdomain.ErrReferenceTaken
		}
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("hotel_id", booking.HotelID.String()),
		zap.String("reference", booking.Reference),
	)
	booking.Hotel = hotel
	return booking, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*bookingdomain.Booking, error) {
	booking, err := s.repo.FindOne(ctx, &bookingdomain.Booking{ID: id}, option.WithPreload("Hotel"))
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, bookingdomain.ErrNotFound
	}
	return booking, nil
}

func (s *Service) List(ctx context.Context, req bookingdomain.ListBookingsRequest) ([]*bookingdomain.Booking, error) {
	page := pagination.Normalize(req.Limit, req.Offset)
	filter := &bookingdomain.Booking{HotelID: req.HotelID, Status: req.Status}
	return s.repo.Find(ctx, filter,
		option.WithPreload("Hotel"),
		option.WithOrderBy("booking_date ASC, id ASC"),
		option.WithLimit(page.Limit),
		option.WithOffset(page.Offset),
	)
}

// Complete moves a pending booking to COMPLETED and stamps completed_at.
func (s *Service) Complete(ctx context.Context, id snowflake.ID) (*bookingdomain.Booking, error) {
	now := s.clock.Now()
	return s.transition(ctx, id, bookingdomain.StatusCompleted, map[string]any{
		"status":       bookingdomain.StatusCompleted,
		"completed_at": now,
		"updated_at":   now,
	})
}

// Cancel moves a pending booking to CANCELLED.
func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (*bookingdomain.Booking, error) {
	return s.transition(ctx, id, bookingdomain.StatusCancelled, map[string]any{
		"status":     bookingdomain.StatusCancelled,
		"updated_at": s.clock.Now(),
	})
}

func (s *Service) transition(ctx context.Context, id snowflake.ID, next bookingdomain.Status, updates map[string]any) (*bookingdomain.Booking, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current bookingdomain.Booking
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return bookingdomain.ErrNotFound
			}
			return err
		}
		if !current.Status.CanTransitionTo(next) {
			return bookingdomain.ErrInvalidTransition
		}
		return tx.Model(&bookingdomain.Booking{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("booking transitioned",
		zap.String("booking_id", id.String()),
		zap.String("status", string(next)),
	)
	return booking, nil
}
