package handlers

import (
	"net/http"

	"github.com/blacklisthub/blacklisthub-backend/internal/middleware"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// BlacklistHandler handles record submission, review and maintenance
type BlacklistHandler struct {
	blacklistService *services.BlacklistService
}

// NewBlacklistHandler creates a new BlacklistHandler
func NewBlacklistHandler(blacklistService *services.BlacklistService) *BlacklistHandler {
	return &BlacklistHandler{blacklistService: blacklistService}
}

// Submit handles POST /blacklist. Returns 201 for a new record and 200 for a merge.
func (h *BlacklistHandler) Submit(c *gin.Context) {
	var sub models.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		respondError(c, bindError(err))
		return
	}

	result, err := h.blacklistService.Submit(c.Request.Context(), sub, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Merged {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// List handles GET /blacklist
func (h *BlacklistHandler) List(c *gin.Context) {
	page, pageSize, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}
	filter := models.BlacklistFilter{
		Type:       models.EntityType(c.Query("type")),
		Status:     models.Status(c.Query("status")),
		RiskLevel:  models.RiskLevel(c.Query("risk_level")),
		ReasonCode: c.Query("reason_code"),
		Operator:   c.Query("operator"),
		Query:      c.Query("q"),
	}

	records, total, err := h.blacklistService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     records,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Get handles GET /blacklist/:id
func (h *BlacklistHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	rec, err := h.blacklistService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Update handles PUT /blacklist/:id
func (h *BlacklistHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req models.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	rec, err := h.blacklistService.ApplyUpdate(c.Request.Context(), id, &req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// AddEvidence handles POST /blacklist/:id/evidence
func (h *BlacklistHandler) AddEvidence(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req models.EvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	rec, err := h.blacklistService.AddEvidence(c.Request.Context(), id, &req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /blacklist/:id
func (h *BlacklistHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.blacklistService.Delete(c.Request.Context(), id, middleware.CurrentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
