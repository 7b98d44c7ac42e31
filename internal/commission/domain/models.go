package domain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record is the immutable result of one commission calculation. Exactly one
// record exists per booking; the unique index on booking_id is what the
// engine's idempotency contract hangs off. Monetary fields are a frozen
// snapshot, never a live join.
type Record struct {
	ID                 snowflake.ID      `json:"id" gorm:"primaryKey"`
	BookingID          snowflake.ID      `json:"booking_id" gorm:"column:booking_id;not null;uniqueIndex"`
	AgreementID        snowflake.ID      `json:"agreement_id" gorm:"column:agreement_id;not null;index"`
	BookingAmount      decimal.Decimal   `json:"booking_amount" gorm:"type:numeric(14,2);not null"`
	Currency           string            `json:"currency" gorm:"type:text;not null"`
	BaseRate           decimal.Decimal   `json:"base_rate" gorm:"type:numeric(10,4);not null"`
	PreferredBonus     decimal.Decimal   `json:"preferred_bonus" gorm:"type:numeric(10,4);not null"`
	TierBonus          decimal.Decimal   `json:"tier_bonus" gorm:"type:numeric(10,4);not null"`
	TotalRate          decimal.Decimal   `json:"total_rate" gorm:"type:numeric(10,4);not null"`
	CommissionAmount   decimal.Decimal   `json:"commission_amount" gorm:"type:numeric(14,2);not null"`
	CalculationDetails datatypes.JSONMap `json:"calculation_details" gorm:"type:jsonb"`
	CalculatedAt       time.Time         `json:"calculated_at" gorm:"not null;index"`
}

func (Record) TableName() string { return "commission_records" }

var (
	ErrBookingNotFound     = errors.New("commission_booking_not_found")
	ErrBookingNotCompleted = errors.New("commission_booking_not_completed")
	ErrNoActiveAgreement   = errors.New("commission_no_active_agreement")
	ErrInvalidMonth        = errors.New("invalid_month")
	ErrInvalidFormat       = errors.New("invalid_export_format")
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Month is a calendar month in UTC.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth accepts strictly YYYY-MM.
func ParseMonth(value string) (Month, error) {
	if !monthPattern.MatchString(value) {
		return Month{}, ErrInvalidMonth
	}
	year, _ := strconv.Atoi(value[:4])
	month, _ := strconv.Atoi(value[5:])
	return Month{Year: year, Month: time.Month(month)}, nil
}

// Range returns the half-open window [first-of-month, first-of-next-month).
func (m Month) Range() (time.Time, time.Time) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
)

// MonthlyRecordRow is one flattened export row, joined to booking, hotel and
// agreement. Field order here defines the CSV column order.
type MonthlyRecordRow struct {
	ID               snowflake.ID              `json:"id" gorm:"column:id"`
	BookingID        snowflake.ID              `json:"booking_id" gorm:"column:booking_id"`
	BookingReference string                    `json:"booking_reference" gorm:"column:booking_reference"`
	HotelID          snowflake.ID              `json:"hotel_id" gorm:"column:hotel_id"`
	HotelName        string                    `json:"hotel_name" gorm:"column:hotel_name"`
	HotelStatus      hoteldomain.PartnerStatus `json:"hotel_status" gorm:"column:hotel_status"`
	BookingAmount    decimal.Decimal           `json:"booking_amount" gorm:"column:booking_amount"`
	Currency         string                    `json:"currency" gorm:"column:currency"`
	RateType         agreementdomain.RateType  `json:"rate_type" gorm:"column:rate_type"`
	BaseRate         decimal.Decimal           `json:"base_rate" gorm:"column:base_rate"`
	PreferredBonus   decimal.Decimal           `json:"preferred_bonus" gorm:"column:preferred_bonus"`
	TierBonus        decimal.Decimal           `json:"tier_bonus" gorm:"column:tier_bonus"`
	TotalRate        decimal.Decimal           `json:"total_rate" gorm:"column:total_rate"`
	CommissionAmount decimal.Decimal           `json:"commission_amount" gorm:"column:commission_amount"`
	CalculatedAt     time.Time                 `json:"calculated_at" gorm:"column:calculated_at"`
}

// HotelSummary aggregates one hotel's records inside the month window.
type HotelSummary struct {
	HotelID            snowflake.ID              `json:"hotel_id"`
	HotelName          string                    `json:"hotel_name"`
	HotelStatus        hoteldomain.PartnerStatus `json:"hotel_status"`
	TotalBookings      int                       `json:"total_bookings"`
	TotalBookingAmount decimal.Decimal           `json:"total_booking_amount"`
	TotalCommission    decimal.Decimal           `json:"total_commission"`
	AverageRate        decimal.Decimal           `json:"average_rate"`
}

type SummaryTotals struct {
	TotalHotels           int             `json:"total_hotels"`
	TotalBookings         int             `json:"total_bookings"`
	TotalBookingAmount    decimal.Decimal `json:"total_booking_amount"`
	TotalCommission       decimal.Decimal `json:"total_commission"`
	AverageCommissionRate decimal.Decimal `json:"average_commission_rate"`
}

// MonthlySummary is the per-hotel report envelope. PeriodFrom and PeriodTo
// carry the half-open month window, so PeriodTo is the exclusive first
// instant of the next month rather than an inclusive last-millisecond stamp.
type MonthlySummary struct {
	Month      string         `json:"month"`
	PeriodFrom time.Time      `json:"period_from"`
	PeriodTo   time.Time      `json:"period_to"`
	Summary    SummaryTotals  `json:"summary"`
	Hotels     []HotelSummary `json:"hotels"`
}

// Export is a rendered monthly export ready to be written to the wire.
type Export struct {
	ContentType string
	Filename    string
	Body        []byte
}

type Service interface {
	Calculate(ctx context.Context, bookingID snowflake.ID) (*Record, error)
	MonthlySummary(ctx context.Context, month Month) (*MonthlySummary, error)
	MonthlyRecords(ctx context.Context, month Month) ([]MonthlyRecordRow, error)
	Export(ctx context.Context, month Month, format ExportFormat) (*Export, error)
}

// Repository is the storage surface of the engine.
type Repository interface {
	FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID snowflake.ID) (*Record, error)
	Create(ctx context.Context, tx *gorm.DB, record *Record) error
	CountCompletedBookings(ctx context.Context, tx *gorm.DB, hotelID, excludingID snowflake.ID) (int, error)
	QueryMonthlyRows(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]MonthlyRecordRow, error)
}
