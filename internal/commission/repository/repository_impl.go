package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/roomledger/roomledger/internal/booking/domain"
	commissiondomain "github.com/roomledger/roomledger/internal/commission/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() commissiondomain.Repository {
	return &repo{}
}

func (r *repo) FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID snowflake.ID) (*commissiondomain.Record, error) {
	var record commissiondomain.Record
	err := tx.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Create inserts the record. A unique constraint violation on booking_id
// surfaces to the caller unchanged; the service resolves it by re-reading.
func (r *repo) Create(ctx context.Context, tx *gorm.DB, record *commissiondomain.Record) error {
	return tx.WithContext(ctx).Create(record).Error
}

// CountCompletedBookings counts the hotel's other completed bookings. The
// current booking is excluded: a booking does not count toward its own tier
// eligibility.
func (r *repo) CountCompletedBookings(ctx context.Context, tx *gorm.DB, hotelID, excludingID snowflake.ID) (int, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&bookingdomain.Booking{}).
		Where("hotel_id = ? AND status = ? AND id <> ?", hotelID, bookingdomain.StatusCompleted, excludingID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repo) QueryMonthlyRows(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]commissiondomain.MonthlyRecordRow, error) {
	var rows []commissiondomain.MonthlyRecordRow
	err := tx.WithContext(ctx).Raw(
		`SELECT cr.id, cr.booking_id, b.reference AS booking_reference,
		 b.hotel_id, h.name AS hotel_name, h.status AS hotel_status,
		 cr.booking_amount, cr.currency, a.rate_type,
		 cr.base_rate, cr.preferred_bonus, cr.tier_bonus, cr.total_rate,
		 cr.commission_amount, cr.calculated_at
		 FROM commission_records cr
		 JOIN bookings b ON b.id = cr.booking_id
		 JOIN hotels h ON h.id = b.hotel_id
		 JOIN commission_agreements a ON a.id = cr.agreement_id
		 WHERE cr.calculated_at >= ? AND cr.calculated_at < ?
		 ORDER BY cr.calculated_at ASC, cr.id ASC`,
		from,
		to,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
