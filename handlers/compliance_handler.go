package handlers

import (
	"errors"
	"net/http"

	"github.com/vedu111/gorechitee/models"
	"github.com/vedu111/gorechitee/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ComplianceHandler handles whole-shipment compliance checks
type ComplianceHandler struct {
	shipmentService *service.ShipmentService
	logger          *zap.Logger
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(shipmentService *service.ShipmentService, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		shipmentService: shipmentService,
		logger:          logger,
	}
}

// CheckShipmentCompliance handles POST /api/check-shipment-compliance
func (h *ComplianceHandler) CheckShipmentCompliance(c *gin.Context) {
	var shipment models.Shipment
	if err := c.ShouldBindJSON(&shipment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": false,
			"error":  "Invalid shipment payload: " + err.Error(),
		})
		return
	}

	result, err := h.shipmentService.EvaluateShipment(c.Request.Context(), shipment)
	if err != nil {
		if errors.Is(err, service.ErrInvalidShipment) {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": false,
				"error":  "Missing source or destination country information",
			})
			return
		}

		h.logger.Error("shipment compliance check failed",
			zap.String("requestId", c.GetString("requestID")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": false,
			"error":  "An error occurred while processing compliance check",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
