package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	commissiondomain "github.com/roomledger/roomledger/internal/commission/domain"
	"github.com/roomledger/roomledger/internal/config"
	"github.com/shopspring/decimal"
)

type fakeCommissionService struct {
	record     *commissiondomain.Record
	summary    *commissiondomain.MonthlySummary
	rows       []commissiondomain.MonthlyRecordRow
	export     *commissiondomain.Export
	err        error
	lastFormat commissiondomain.ExportFormat
}

func (f *fakeCommissionService) Calculate(ctx context.Context, bookingID snowflake.ID) (*commissiondomain.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func (f *fakeCommissionService) MonthlySummary(ctx context.Context, month commissiondomain.Month) (*commissiondomain.MonthlySummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func (f *fakeCommissionService) MonthlyRecords(ctx context.Context, month commissiondomain.Month) ([]commissiondomain.MonthlyRecordRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeCommissionService) Export(ctx context.Context, month commissiondomain.Month, format commissiondomain.ExportFormat) (*commissiondomain.Export, error) {
	f.lastFormat = format
	if f.err != nil {
		return nil, f.err
	}
	return f.export, nil
}

func newTestServer(t *testing.T, svc commissiondomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	return NewServer(ServerParams{
		Gin:           engine,
		Cfg:           config.Config{},
		GenID:         node,
		CommissionSvc: svc,
	})
}

func TestCalculateCommissionEndpoint(t *testing.T) {
	record := &commissiondomain.Record{
		ID:               1,
		BookingID:        2,
		CommissionAmount: decimal.RequireFromString("150.00"),
		CalculatedAt:     time.Now().UTC(),
	}
	srv := newTestServer(t, &fakeCommissionService{record: record})

	body, _ := json.Marshal(gin.H{"booking_id": "2"})
	req := httptest.NewRequest(http.MethodPost, "/api/commissions/calculate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCalculateCommissionRejectsBadBookingID(t *testing.T) {
	srv := newTestServer(t, &fakeCommissionService{})

	body, _ := json.Marshal(gin.H{"booking_id": "not-a-number"})
	req := httptest.NewRequest(http.MethodPost, "/api/commissions/calculate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCalculateCommissionErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"booking not found", commissiondomain.ErrBookingNotFound, http.StatusNotFound},
		{"no agreement", commissiondomain.ErrNoActiveAgreement, http.StatusNotFound},
		{"not completed", commissiondomain.ErrBookingNotCompleted, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeCommissionService{err: tc.err})

			body, _ := json.Marshal(gin.H{"booking_id": "42"})
			req := httptest.NewRequest(http.MethodPost, "/api/commissions/calculate", bytes.NewReader(body))
			w := httptest.NewRecorder()
			srv.Engine().ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestMonthlySummaryRejectsBadMonth(t *testing.T) {
	srv := newTestServer(t, &fakeCommissionService{summary: &commissiondomain.MonthlySummary{}})

	for _, month := range []string{"", "2026", "2026-13", "august"} {
		req := httptest.NewRequest(http.MethodGet, "/api/commissions/summary?month="+month, nil)
		w := httptest.NewRecorder()
		srv.Engine().ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("month %q: expected 400, got %d", month, w.Code)
		}
	}
}

func TestExportSetsDownloadHeaders(t *testing.T) {
	fake := &fakeCommissionService{
		export: &commissiondomain.Export{
			ContentType: "text/csv",
			Filename:    "commissions-2026-08.csv",
			Body:        []byte("id,booking_id\n1,2"),
		},
	}
	srv := newTestServer(t, fake)

	req := httptest.NewRequest(http.MethodGet, "/api/commissions/export?month=2026-08&format=csv", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="commissions-2026-08.csv"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if fake.lastFormat != commissiondomain.ExportFormatCSV {
		t.Fatalf("expected csv format, got %q", fake.lastFormat)
	}
}

func TestExportDefaultsToJSON(t *testing.T) {
	fake := &fakeCommissionService{
		export: &commissiondomain.Export{
			ContentType: "application/json",
			Filename:    "commissions-2026-08.json",
			Body:        []byte(`{}`),
		},
	}
	srv := newTestServer(t, fake)

	req := httptest.NewRequest(http.MethodGet, "/api/commissions/export?month=2026-08", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if fake.lastFormat != commissiondomain.ExportFormatJSON {
		t.Fatalf("expected json format default, got %q", fake.lastFormat)
	}
}
