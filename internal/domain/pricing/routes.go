package pricing

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the pricing calendar endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	p := rg.Group("/pricing")
	{
		p.GET("/quote", h.Quote)
		p.GET("/periods", h.ListPeriods)
		p.GET("/periods/:id", h.GetPeriod)
		p.POST("/periods", h.CreateSpecialPeriod)
		p.PUT("/periods/:id", h.UpdateSpecialPeriod)
		p.DELETE("/periods/:id", h.DeleteSpecialPeriod)
		p.PUT("/periods/:id/prices", h.SetPrices)
	}
}
