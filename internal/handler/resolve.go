package handler

import (
	"context"
	"net/http"
	"strconv"

	"admin-geocoder/internal/service"

	"github.com/gin-gonic/gin"
)

// ResolveHandler handles admin resolution requests
type ResolveHandler struct {
	service AdminResolveService
}

// Service interface for dependency injection
type AdminResolveService interface {
	ResolveAdmins(context.Context, float64, float64, string) (*service.Resolution, error)
}

// NewResolveHandler creates a new resolve handler
func NewResolveHandler(svc AdminResolveService) *ResolveHandler {
	return &ResolveHandler{service: svc}
}

// Resolve handles GET /admins/resolve requests
//
//	@Summary	Admins containing a coordinate
//	@Param		lat		query		number	true	"latitude"
//	@Param		lon		query		number	true	"longitude"
//	@Param		insee	query		string	false	"authoritative code overriding its level"
//	@Success	200		{object}	service.Resolution
//	@Failure	400		{object}	map[string]string
//	@Router		/admins/resolve [get]
func (h *ResolveHandler) Resolve(c *gin.Context) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")

	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameters 'lat' and 'lon'"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid latitude format"})
		return
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid longitude format"})
		return
	}

	resolution, err := h.service.ResolveAdmins(c.Request.Context(), lat, lon, c.Query("insee"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, resolution)
}
