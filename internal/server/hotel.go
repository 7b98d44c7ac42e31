package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
)

type createHotelRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type updateHotelRequest struct {
	Name   *string `json:"name,omitempty"`
	Status *string `json:"status,omitempty"`
}

func (s *Server) CreateHotel(c *gin.Context) {
	var req createHotelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.hotelSvc.Create(c.Request.Context(), hoteldomain.CreateHotelRequest{
		Name:   strings.TrimSpace(req.Name),
		Status: hoteldomain.PartnerStatus(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateHotel(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateHotelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var status *hoteldomain.PartnerStatus
	if req.Status != nil {
		v := hoteldomain.PartnerStatus(strings.TrimSpace(*req.Status))
		status = &v
	}

	resp, err := s.hotelSvc.Update(c.Request.Context(), id, hoteldomain.UpdateHotelRequest{
		Name:   trimStringPtr(req.Name),
		Status: status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetHotelByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.hotelSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListHotels(c *gin.Context) {
	var query struct {
		Limit  string `form:"limit"`
		Offset string `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
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

	resp, err := s.hotelSvc.List(c.Request.Context(), hoteldomain.ListHotelsRequest{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func trimStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
