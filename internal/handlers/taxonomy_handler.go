package handlers

import (
	"net/http"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// TaxonomyHandler serves the reference enumerations
type TaxonomyHandler struct {
	taxonomyService *services.TaxonomyService
}

// NewTaxonomyHandler creates a new TaxonomyHandler
func NewTaxonomyHandler(taxonomyService *services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomyService: taxonomyService}
}

// List returns a handler listing the active entries of kind
func (h *TaxonomyHandler) List(kind models.TaxonomyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := h.taxonomyService.List(c.Request.Context(), kind)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": entries})
	}
}
