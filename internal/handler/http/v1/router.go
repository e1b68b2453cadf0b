package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID tags every request with an id for log correlation. An inbound
// X-Request-ID is honored; otherwise one is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// RegisterRoutes mounts all v1 endpoints on the given group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	constructions := api.Group("/constructions")
	{
		constructions.GET("", h.listConstructions)
		constructions.GET("/nearby", h.nearbyConstructions)
	}

	api.GET("/geocode/autocomplete", h.autocomplete)

	addresses := api.Group("/addresses")
	{
		addresses.GET("", h.listAddresses)
		addresses.POST("", h.createAddress)
		addresses.PUT("/:id", h.updateAddress)
		addresses.DELETE("/:id", h.deleteAddress)
	}

	api.POST("/sweep/run", h.runSweep)

	api.GET("/system/health", h.healthCheck)
}
