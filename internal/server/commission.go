package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/roomledger/roomledger/internal/commission/domain"
)

type calculateCommissionRequest struct {
	BookingID string `json:"booking_id"`
}

func (s *Server) CalculateCommission(c *gin.Context) {
	var req calculateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bookingID, err := parseOptionalID(req.BookingID)
	if err != nil || bookingID == 0 {
		AbortWithError(c, newValidationError("booking_id", "invalid_booking_id", "invalid booking_id"))
		return
	}

	if !s.calculateLimiter.Allow(c.Request.Context(), bookingID.String()) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	resp, err := s.commissionSvc.Calculate(c.Request.Context(), bookingID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMonthlySummary(c *gin.Context) {
	month, err := commissiondomain.ParseMonth(strings.TrimSpace(c.Query("month")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.commissionSvc.MonthlySummary(c.Request.Context(), month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMonthlyRecords(c *gin.Context) {
	month, err := commissiondomain.ParseMonth(strings.TrimSpace(c.Query("month")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.commissionSvc.MonthlyRecords(c.Request.Context(), month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExportCommissions(c *gin.Context) {
	month, err := commissiondomain.ParseMonth(strings.TrimSpace(c.Query("month")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	format := commissiondomain.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	if format == "" {
		format = commissiondomain.ExportFormatJSON
	}

	export, err := s.commissionSvc.Export(c.Request.Context(), month, format)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Body)
}
