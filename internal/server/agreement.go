package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	"github.com/shopspring/decimal"
)

type tierRuleRequest struct {
	MinBookings int             `json:"min_bookings"`
	MaxBookings *int            `json:"max_bookings"`
	BonusRate   decimal.Decimal `json:"bonus_rate"`
}

type createAgreementRequest struct {
	HotelID            string            `json:"hotel_id"`
	RateType           string            `json:"rate_type"`
	BaseRate           decimal.Decimal   `json:"base_rate"`
	PreferredBonusRate *decimal.Decimal  `json:"preferred_bonus_rate"`
	EffectiveFrom      time.Time         `json:"effective_from"`
	EffectiveUntil     *time.Time        `json:"effective_until"`
	IsActive           *bool             `json:"is_active"`
	TierRules          []tierRuleRequest `json:"tier_rules"`
}

func (s *Server) CreateAgreement(c *gin.Context) {
	var req createAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	hotelID, err := parseOptionalID(req.HotelID)
	if err != nil || hotelID == 0 {
		AbortWithError(c, newValidationError("hotel_id", "invalid_hotel_id", "invalid hotel_id"))
		return
	}

	rules := make([]agreementdomain.TierRuleInput, 0, len(req.TierRules))
	for _, rule := range req.TierRules {
		rules = append(rules, agreementdomain.TierRuleInput{
			MinBookings: rule.MinBookings,
			MaxBookings: rule.MaxBookings,
			BonusRate:   rule.BonusRate,
		})
	}

	resp, err := s.agreementSvc.Create(c.Request.Context(), agreementdomain.CreateAgreementRequest{
		HotelID:            hotelID,
		RateType:           agreementdomain.RateType(strings.TrimSpace(req.RateType)),
		BaseRate:           req.BaseRate,
		PreferredBonusRate: req.PreferredBonusRate,
		EffectiveFrom:      req.EffectiveFrom,
		EffectiveUntil:     req.EffectiveUntil,
		IsActive:           req.IsActive,
		TierRules:          rules,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetAgreementByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.agreementSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAgreements(c *gin.Context) {
	var query struct {
		HotelID string `form:"hotel_id"`
		Limit   string `form:"limit"`
		Offset  string `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	hotelID, err := parseOptionalID(query.HotelID)
	if err != nil {
		AbortWithError(c, newValidationError("hotel_id", "invalid_hotel_id", "invalid hotel_id"))
		return
	}
	limit, err := parseOptionalInt(query.Limit)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}
	offset, err := parseOptionalInt(query.Offset)
	if err != nil {
		AbortWithError(c, newValidationError("offset", "invalid_offset", "invalid offset"))
		return
	}

	resp, err := s.agreementSvc.List(c.Request.Context(), agreementdomain.ListAgreementsRequest{
		HotelID: hotelID,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateAgreement(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.agreementSvc.Deactivate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
