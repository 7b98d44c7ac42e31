package domain

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecordsToCSVEmpty(t *testing.T) {
	assert.Equal(t, "", RecordsToCSV(nil))
	assert.Equal(t, "", RecordsToCSV([]MonthlyRecordRow{}))
}

func TestRecordsToCSV(t *testing.T) {
	row := MonthlyRecordRow{
		ID:               1,
		BookingID:        2,
		BookingReference: "BK-1001",
		HotelID:          3,
		HotelName:        "Seaside Grand",
		HotelStatus:      hoteldomain.PartnerStatusStandard,
		BookingAmount:    decimal.RequireFromString("1500.00"),
		Currency:         "USD",
		RateType:         agreementdomain.RateTypePercentage,
		BaseRate:         decimal.RequireFromString("0.10"),
		PreferredBonus:   decimal.Zero,
		TierBonus:        decimal.Zero,
		TotalRate:        decimal.RequireFromString("0.10"),
		CommissionAmount: decimal.RequireFromString("150.00"),
		CalculatedAt:     time.Date(2026, time.August, 15, 12, 30, 0, 0, time.UTC),
	}

	out := RecordsToCSV([]MonthlyRecordRow{row})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.Contains(t, lines[1], "BK-1001")
	assert.Contains(t, lines[1], "2026-08-15T12:30:00Z")
}

func TestRecordsToCSVQuotesSpecialCharacters(t *testing.T) {
	row := MonthlyRecordRow{
		HotelName:        `Grand "Palace", Downtown`,
		BookingReference: "ref,with,commas",
	}

	out := RecordsToCSV([]MonthlyRecordRow{row})
	assert.Contains(t, out, `"Grand ""Palace"", Downtown"`)
	assert.Contains(t, out, `"ref,with,commas"`)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Contains(t, records[1], `Grand "Palace", Downtown`)
	assert.Contains(t, records[1], "ref,with,commas")
}
