package domain

import (
	"strings"
	"time"
)

var csvHeader = []string{
	"id",
	"booking_id",
	"booking_reference",
	"hotel_id",
	"hotel_name",
	"hotel_status",
	"booking_amount",
	"currency",
	"rate_type",
	"base_rate",
	"preferred_bonus",
	"tier_bonus",
	"total_rate",
	"commission_amount",
	"calculated_at",
}

// RecordsToCSV renders export rows as comma-separated text: a header line
// followed by one line per row. Zero rows yield an empty string, not a bare
// header. Values containing a comma or quote are wrapped in quotes with
// inner quotes doubled.
func RecordsToCSV(rows []MonthlyRecordRow) string {
	if len(rows) == 0 {
		return ""
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(csvHeader, ","))

	for _, row := range rows {
		values := []string{
			row.ID.String(),
			row.BookingID.String(),
			csvEscape(row.BookingReference),
			row.HotelID.String(),
			csvEscape(row.HotelName),
			string(row.HotelStatus),
			row.BookingAmount.String(),
			csvEscape(row.Currency),
			string(row.RateType),
			row.BaseRate.String(),
			row.PreferredBonus.String(),
			row.TierBonus.String(),
			row.TotalRate.String(),
			row.CommissionAmount.String(),
			row.CalculatedAt.UTC().Format(time.RFC3339),
		}
		lines = append(lines, strings.Join(values, ","))
	}

	return strings.Join(lines, "\n")
}

func csvEscape(value string) string {
	if !strings.ContainsAny(value, ",\"") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
