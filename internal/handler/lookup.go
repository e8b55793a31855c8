package handler

import (
	"context"
	"errors"
	"net/http"

	"admin-geocoder/internal/models"
	"admin-geocoder/internal/service"

	"github.com/gin-gonic/gin"
)

// LookupHandler handles authoritative code lookups
type LookupHandler struct {
	service AdminLookupService
}

// Service interface for dependency injection
type AdminLookupService interface {
	AdminByCode(context.Context, string) (*models.Admin, error)
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(svc AdminLookupService) *LookupHandler {
	return &LookupHandler{service: svc}
}

// AdminByCode handles GET /admins/code/:code requests
//
//	@Summary	Admin holding an authoritative code
//	@Param		code	path		string	true	"authoritative code, leading zeros optional"
//	@Success	200		{object}	models.Admin
//	@Failure	404		{object}	map[string]string
//	@Router		/admins/code/{code} [get]
func (h *LookupHandler) AdminByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required path parameter 'code'"})
		return
	}

	admin, err := h.service.AdminByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrAdminNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no admin found for this code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, admin)
}
