package booking

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers availability, booking and housekeeping routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/availability", h.GetAvailability)

	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.GET("/bookings/:id/folio", h.GetFolio)

	// Segments
	rg.POST("/bookings/:id/rooms", h.AllocateRoom)
	rg.POST("/bookings/:id/extend", h.ExtendStay)
	rg.POST("/bookings/:id/transfer-room", h.TransferRoom)
	rg.GET("/bookings/:id/rooms/:roomId/covering-segment", h.GetCoveringSegment)
	rg.POST("/bookings/:id/services", h.AttachService)

	// Lifecycle
	rg.POST("/bookings/:id/confirm", h.ConfirmBooking)
	rg.POST("/bookings/:id/checkin", h.CheckIn)
	rg.POST("/bookings/:id/checkout", h.CheckOut)
	rg.POST("/bookings/:id/cancel", h.CancelBooking)
	rg.POST("/bookings/:id/no-show", h.MarkNoShow)

	// Billing
	rg.POST("/bookings/:id/deposit-invoice", h.IssueDepositInvoice)
	rg.POST("/bookings/:id/invoice", h.FinalizeInvoice)

	// Housekeeping
	rg.POST("/rooms/:id/cleaned", h.MarkRoomCleaned)
	rg.POST("/rooms/:id/maintenance", h.SetRoomMaintenance)
}
