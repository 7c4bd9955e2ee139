package handlers

import (
	"net/http"
	"strconv"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// LookupHandler serves the public read endpoints
type LookupHandler struct {
	lookupService *services.LookupService
}

// NewLookupHandler creates a new LookupHandler
func NewLookupHandler(lookupService *services.LookupService) *LookupHandler {
	return &LookupHandler{lookupService: lookupService}
}

// Lookup handles GET /blacklist/lookup
func (h *LookupHandler) Lookup(c *gin.Context) {
	result, err := h.lookupService.Lookup(c.Request.Context(), models.EntityType(c.Query("type")), c.Query("value"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// EnhancedLookup handles GET /blacklist/enhanced-lookup
func (h *LookupHandler) EnhancedLookup(c *gin.Context) {
	detailed := false
	if raw := c.Query("detailed"); raw != "" {
		var err error
		if detailed, err = strconv.ParseBool(raw); err != nil {
			respondError(c, apperrors.Validation("detailed must be a boolean"))
			return
		}
	}

	result, err := h.lookupService.EnhancedLookup(c.Request.Context(), models.EntityType(c.Query("type")), c.Query("value"), detailed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Defaulters handles GET /defaulters
func (h *LookupHandler) Defaulters(c *gin.Context) {
	page, pageSize, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.lookupService.RankOffenders(c.Request.Context(), services.OffenderParams{
		Type:      c.Query("type"),
		RiskLevel: c.Query("risk_level"),
		Sort:      c.Query("sort"),
		Range:     c.Query("range"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Rankings handles GET /rankings
func (h *LookupHandler) Rankings(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.lookupService.Rankings(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
