package handlers

import (
	"net/http"

	"github.com/vedu111/gorechitee/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires every route of the compliance API
func NewRouter(shipmentService *service.ShipmentService, logger *zap.Logger) *gin.Engine {
	complianceHandler := NewComplianceHandler(shipmentService, logger)
	jurisdictionHandler := NewJurisdictionHandler(shipmentService.Registry(), logger)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger), Recovery(logger), CORS())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Export-Import Compliance API is running!")
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"jurisdictions": shipmentService.Registry().Names(),
		})
	})

	api := r.Group("/api")
	{
		api.POST("/check-shipment-compliance", complianceHandler.CheckShipmentCompliance)
	}

	country := r.Group("/:jurisdiction/api")
	{
		country.POST("/find-by-description", jurisdictionHandler.FindByDescription)
		country.POST("/check-export-compliance", jurisdictionHandler.CheckExportCompliance)
	}

	return r
}
