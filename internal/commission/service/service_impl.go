package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	bookingdomain "github.com/roomledger/roomledger/internal/booking/domain"
	"github.com/roomledger/roomledger/internal/clock"
	commissiondomain "github.com/roomledger/roomledger/internal/commission/domain"
	"github.com/roomledger/roomledger/internal/config"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/roomledger/roomledger/internal/observability/metrics"
	"github.com/roomledger/roomledger/pkg/db"
	"github.com/roomledger/roomledger/pkg/db/option"
	"github.com/roomledger/roomledger/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	genID         *snowflake.Node
	repo          commissiondomain.Repository
	agreementRepo agreementdomain.Repository
	bookingRepo   repository.Repository[bookingdomain.Booking]
	configHolder  *config.CommissionConfigHolder
	metrics       *metrics.CommissionMetrics
}

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	GenID         *snowflake.Node
	Repo          commissiondomain.Repository
	AgreementRepo agreementdomain.Repository
	ConfigHolder  *config.CommissionConfigHolder
	Metrics       *metrics.CommissionMetrics `optional:"true"`
}

func NewService(p ServiceParam) commissiondomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("commission.service"),
		clock:         p.Clock,
		genID:         p.GenID,
		repo:          p.Repo,
		agreementRepo: p.AgreementRepo,
		bookingRepo:   repository.ProvideStore[bookingdomain.Booking](p.DB),
		configHolder:  p.ConfigHolder,
		metrics:       p.Metrics,
	}
}

// Calculate computes and persists the commission for a completed booking.
// At most one record ever exists per booking: a repeated call returns the
// original record unchanged, and two concurrent calls race on the unique
// booking_id index with the loser re-reading the winner's row.
func (s *Service) Calculate(ctx context.Context, bookingID snowflake.ID) (*commissiondomain.Record, error) {
	record, err := s.calculate(ctx, bookingID)
	if err != nil {
		switch err {
		case commissiondomain.ErrBookingNotFound, commissiondomain.ErrNoActiveAgreement:
			s.metrics.RecordCalculation(metrics.OutcomeNotFound)
		case commissiondomain.ErrBookingNotCompleted:
			s.metrics.RecordCalculation(metrics.OutcomeInvalidState)
		default:
			s.metrics.RecordCalculation(metrics.OutcomeError)
		}
	}
	return record, err
}

func (s *Service) calculate(ctx context.Context, bookingID snowflake.ID) (*commissiondomain.Record, error) {
	booking, err := s.bookingRepo.FindOne(ctx, &bookingdomain.Booking{ID: bookingID}, option.WithPreload("Hotel"))
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, commissiondomain.ErrBookingNotFound
	}
	if booking.Status != bookingdomain.StatusCompleted {
		return nil, commissiondomain.ErrBookingNotCompleted
	}

	existing, err := s.repo.FindByBookingID(ctx, s.db, bookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.RecordCalculation(metrics.OutcomeIdempotent)
		return existing, nil
	}

	now := s.clock.Now()
	agreement, err := s.agreementRepo.FindActiveAgreement(ctx, s.db, booking.HotelID, now)
	if err != nil {
		return nil, err
	}
	if agreement == nil {
		return nil, commissiondomain.ErrNoActiveAgreement
	}

	completedCount := 0
	if agreement.RateType == agreementdomain.RateTypeTiered {
		completedCount, err = s.repo.CountCompletedBookings(ctx, s.db, booking.HotelID, booking.ID)
		if err != nil {
			return nil, err
		}
	}

	breakdown := commissiondomain.ComposeRate(agreement, hotelStatus(booking.Hotel), completedCount)
	amount := commissionAmount(agreement.RateType, booking.Amount, breakdown)

	record := &commissiondomain.Record{
		ID:                 s.genID.Generate(),
		BookingID:          booking.ID,
		AgreementID:        agreement.ID,
		BookingAmount:      booking.Amount,
		Currency:           booking.Currency,
		BaseRate:           breakdown.BaseRate,
		PreferredBonus:     breakdown.PreferredBonus,
		TierBonus:          breakdown.TierBonus,
		TotalRate:          breakdown.TotalRate,
		CommissionAmount:   amount,
		CalculationDetails: calculationDetails(agreement, booking, breakdown, completedCount, amount, now),
		CalculatedAt:       now,
	}

	if err := s.repo.Create(ctx, s.db, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			winner, findErr := s.repo.FindByBookingID(ctx, s.db, bookingID)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				s.metrics.RecordCalculation(metrics.OutcomeIdempotent)
				return winner, nil
			}
		}
		return nil, err
	}

	s.metrics.RecordCalculation(metrics.OutcomeCalculated)
	s.log.Info("commission calculated",
		zap.String("booking_id", booking.ID.String()),
		zap.String("agreement_id", agreement.ID.String()),
		zap.String("rate_type", string(agreement.RateType)),
		zap.String("total_rate", breakdown.TotalRate.String()),
		zap.String("commission_amount", amount.String()),
	)
	return record, nil
}

// commissionAmount applies the composed rate. FLAT agreements pay the base
// rate as an absolute amount; any bonuses still widen the rate snapshot but
// do not change the payout. All amounts round to 2 decimal places, half away
// from zero.
func commissionAmount(rateType agreementdomain.RateType, bookingAmount decimal.Decimal, b commissiondomain.RateBreakdown) decimal.Decimal {
	if rateType == agreementdomain.RateTypeFlat {
		return b.BaseRate.Round(2)
	}
	return bookingAmount.Mul(b.TotalRate).Round(2)
}

func hotelStatus(hotel *hoteldomain.Hotel) hoteldomain.PartnerStatus {
	if hotel == nil {
		return hoteldomain.PartnerStatusStandard
	}
	return hotel.Status
}

// calculationDetails freezes the full audit trail for the record: the hotel,
// booking and agreement as they stood at calculation time plus every input to
// the composed rate, zero values included. The snapshot must stay readable
// without joining back to any live row.
func calculationDetails(agreement *agreementdomain.Agreement, booking *bookingdomain.Booking, b commissiondomain.RateBreakdown, completedCount int, amount decimal.Decimal, now time.Time) map[string]any {
	hotelName := ""
	if booking.Hotel != nil {
		hotelName = booking.Hotel.Name
	}

	var completedAt any
	if booking.CompletedAt != nil {
		completedAt = booking.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	var preferredBonusRate any
	if agreement.PreferredBonusRate != nil {
		preferredBonusRate = agreement.PreferredBonusRate.String()
	}
	var effectiveUntil any
	if agreement.EffectiveUntil != nil {
		effectiveUntil = agreement.EffectiveUntil.UTC().Format(time.RFC3339Nano)
	}

	var matchedRule any
	if b.MatchedTierRule != nil {
		var maxBookings any
		if b.MatchedTierRule.MaxBookings != nil {
			maxBookings = *b.MatchedTierRule.MaxBookings
		}
		matchedRule = map[string]any{
			"id":           b.MatchedTierRule.ID.String(),
			"min_bookings": b.MatchedTierRule.MinBookings,
			"max_bookings": maxBookings,
			"bonus_rate":   b.MatchedTierRule.BonusRate.String(),
		}
	}

	return map[string]any{
		"calculated_at": now.UTC().Format(time.RFC3339Nano),
		"hotel": map[string]any{
			"id":     booking.HotelID.String(),
			"name":   hotelName,
			"status": string(hotelStatus(booking.Hotel)),
		},
		"booking": map[string]any{
			"id":           booking.ID.String(),
			"reference":    booking.Reference,
			"amount":       booking.Amount.String(),
			"currency":     booking.Currency,
			"completed_at": completedAt,
		},
		"agreement": map[string]any{
			"id":                   agreement.ID.String(),
			"rate_type":            string(agreement.RateType),
			"base_rate":            agreement.BaseRate.String(),
			"preferred_bonus_rate": preferredBonusRate,
			"effective_from":       agreement.EffectiveFrom.UTC().Format(time.RFC3339Nano),
			"effective_until":      effectiveUntil,
		},
		"calculation": map[string]any{
			"base_rate":                b.BaseRate.String(),
			"preferred_bonus_applied":  b.PreferredApplied(),
			"preferred_bonus":          b.PreferredBonus.String(),
			"tier_bonus_applied":       b.TierApplied(),
			"tier_bonus":               b.TierBonus.String(),
			"completed_bookings_count": completedCount,
			"matched_tier_rule":        matchedRule,
			"total_rate":               b.TotalRate.String(),
			"commission_amount":        amount.String(),
		},
	}
}

func (s *Service) MonthlyRecords(ctx context.Context, month commissiondomain.Month) ([]commissiondomain.MonthlyRecordRow, error) {
	from, to := month.Range()
	rows, err := s.repo.QueryMonthlyRows(ctx, s.db, from, to)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []commissiondomain.MonthlyRecordRow{}
	}
	return rows, nil
}

// MonthlySummary aggregates the month's records per hotel plus grand totals.
// Hotels appear in order of their earliest record. Averages with a zero
// denominator report zero rather than erroring.
func (s *Service) MonthlySummary(ctx context.Context, month commissiondomain.Month) (*commissiondomain.MonthlySummary, error) {
	rows, err := s.MonthlyRecords(ctx, month)
	if err != nil {
		return nil, err
	}

	from, to := month.Range()
	summary := &commissiondomain.MonthlySummary{
		Month:      month.String(),
		PeriodFrom: from,
		PeriodTo:   to,
		Hotels:     []commissiondomain.HotelSummary{},
	}

	index := map[snowflake.ID]int{}
	for _, row := range rows {
		i, ok := index[row.HotelID]
		if !ok {
			i = len(summary.Hotels)
			index[row.HotelID] = i
			summary.Hotels = append(summary.Hotels, commissiondomain.HotelSummary{
				HotelID:     row.HotelID,
				HotelName:   row.HotelName,
				HotelStatus: row.HotelStatus,
			})
		}
		h := &summary.Hotels[i]
		h.TotalBookings++
		h.TotalBookingAmount = h.TotalBookingAmount.Add(row.BookingAmount)
		h.TotalCommission = h.TotalCommission.Add(row.CommissionAmount)

		summary.Summary.TotalBookings++
		summary.Summary.TotalBookingAmount = summary.Summary.TotalBookingAmount.Add(row.BookingAmount)
		summary.Summary.TotalCommission = summary.Summary.TotalCommission.Add(row.CommissionAmount)
	}

	for i := range summary.Hotels {
		h := &summary.Hotels[i]
		h.AverageRate = averageRate(h.TotalCommission, h.TotalBookingAmount)
	}
	summary.Summary.TotalHotels = len(summary.Hotels)
	summary.Summary.AverageCommissionRate = averageRate(summary.Summary.TotalCommission, summary.Summary.TotalBookingAmount)

	return summary, nil
}

func averageRate(commission, bookingAmount decimal.Decimal) decimal.Decimal {
	if bookingAmount.IsZero() {
		return decimal.Zero
	}
	return commission.Div(bookingAmount).Round(4)
}

type jsonExport struct {
	Month       string                              `json:"month"`
	RecordCount int                                 `json:"record_count"`
	Records     []commissiondomain.MonthlyRecordRow `json:"records"`
}

// Export renders the month's records as a downloadable document. The record
// limit from the live config caps oversized exports; zero means unlimited.
func (s *Service) Export(ctx context.Context, month commissiondomain.Month, format commissiondomain.ExportFormat) (*commissiondomain.Export, error) {
	if format != commissiondomain.ExportFormatJSON && format != commissiondomain.ExportFormatCSV {
		return nil, commissiondomain.ErrInvalidFormat
	}

	rows, err := s.MonthlyRecords(ctx, month)
	if err != nil {
		return nil, err
	}

	if limit := s.configHolder.Current().ExportRecordLimit; limit > 0 && len(rows) > limit {
		s.log.Warn("export truncated",
			zap.String("month", month.String()),
			zap.Int("record_count", len(rows)),
			zap.Int("limit", limit),
		)
		rows = rows[:limit]
	}

	export := &commissiondomain.Export{
		Filename: fmt.Sprintf("commissions-%s.%s", month, format),
	}

	switch format {
	case commissiondomain.ExportFormatJSON:
		body, err := json.Marshal(jsonExport{
			Month:       month.String(),
			RecordCount: len(rows),
			Records:     rows,
		})
		if err != nil {
			return nil, err
		}
		export.ContentType = "application/json"
		export.Body = body
	case commissiondomain.ExportFormatCSV:
		export.ContentType = "text/csv"
		export.Body = []byte(commissiondomain.RecordsToCSV(rows))
	}

	s.metrics.RecordExport(string(format))
	return export, nil
}
