package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vedu111/gorechitee/models"
	"github.com/vedu111/gorechitee/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JurisdictionHandler serves the per-country lookup endpoints
type JurisdictionHandler struct {
	registry *service.Registry
	logger   *zap.Logger
}

// NewJurisdictionHandler creates a new jurisdiction handler
func NewJurisdictionHandler(registry *service.Registry, logger *zap.Logger) *JurisdictionHandler {
	return &JurisdictionHandler{
		registry: registry,
		logger:   logger,
	}
}

// FindByDescriptionRequest represents the request body for a description lookup
type FindByDescriptionRequest struct {
	Description string `json:"description"`
	HSCode      string `json:"hsCode"`
}

// FindByDescription handles POST /:jurisdiction/api/find-by-description
func (h *JurisdictionHandler) FindByDescription(c *gin.Context) {
	j, ok := h.jurisdiction(c)
	if !ok {
		return
	}

	var req FindByDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": false, "error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Description) == "" && strings.TrimSpace(req.HSCode) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": false,
			"error":  "Missing required fields: provide either description or hsCode",
		})
		return
	}

	verdict, err := j.LookupByDescription(c.Request.Context(), req.Description, req.HSCode)
	if err != nil {
		h.fail(c, err, "An error occurred while finding HS code")
		return
	}

	c.JSON(http.StatusOK, verdict)
}

// CheckExportCompliance handles POST /:jurisdiction/api/check-export-compliance
func (h *JurisdictionHandler) CheckExportCompliance(c *gin.Context) {
	j, ok := h.jurisdiction(c)
	if !ok {
		return
	}

	var query models.ItemQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": false, "error": "Invalid request body"})
		return
	}

	verdict, err := j.EvaluateExport(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err, "An error occurred while checking export compliance")
		return
	}

	c.JSON(http.StatusOK, verdict)
}

func (h *JurisdictionHandler) jurisdiction(c *gin.Context) (service.Jurisdiction, bool) {
	j, err := h.registry.Lookup(c.Param("jurisdiction"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": false, "error": err.Error()})
		return nil, false
	}
	return j, true
}

func (h *JurisdictionHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrMissingItemFields):
		c.JSON(http.StatusBadRequest, gin.H{
			"status": false,
			"error":  "Missing required fields. Please provide either hsCode, itemName, or itemDescription",
		})
	case errors.Is(err, service.ErrMissingLookup):
		c.JSON(http.StatusBadRequest, gin.H{
			"status": false,
			"error":  "Missing required fields: provide either description or hsCode",
		})
	default:
		h.logger.Error(message,
			zap.String("requestId", c.GetString("requestID")),
			zap.String("jurisdiction", c.Param("jurisdiction")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": false, "error": message})
	}
}
