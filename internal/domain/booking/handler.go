package booking

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/response"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// GetAvailability answers ?from=&to=&mode=. Dates without a time are read
// in the hotel's zone.
func (h *Handler) GetAvailability(c *gin.Context) {
	from, err := h.parseInstant(c.Query("from"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "from must be RFC3339 or YYYY-MM-DD")
		return
	}
	to, err := h.parseInstant(c.Query("to"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "to must be RFC3339 or YYYY-MM-DD")
		return
	}
	mode := domain.RentalMode(c.DefaultQuery("mode", string(domain.RentalNight)))

	items, err := h.engine.Availability.Summary(c.Request.Context(), from, to, mode)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"from":       from,
		"to":         to,
		"mode":       mode,
		"room_types": items,
	})
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	view, err := h.engine.Lifecycle.CreateBooking(c.Request.Context(), CreateBookingInput{
		CustomerID:     req.CustomerID,
		RentalMode:     domain.RentalMode(req.RentalMode),
		Source:         domain.BookingSource(req.Source),
		CheckIn:        req.CheckIn,
		CheckOut:       req.CheckOut,
		DepositPercent: req.DepositPercent,
		DepositAmount:  req.DepositAmount,
		Notes:          req.Notes,
		RoomIDs:        req.RoomIDs,
		Holds:          req.Holds,
		Confirm:        req.Confirm,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.engine.Lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) GetFolio(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	folio, err := h.engine.Lifecycle.Folio(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, folio)
}

func (h *Handler) AllocateRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AllocateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	segments, err := h.engine.Allocator.Allocate(c.Request.Context(), id, req.RoomID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"segments": segments})
}

func (h *Handler) ConfirmBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.engine.Lifecycle.Confirm(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) CheckIn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	view, err := h.engine.Lifecycle.CheckIn(c.Request.Context(), CheckInInput{BookingID: id, RoomID: req.RoomID, At: req.At})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) CheckOut(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CheckOutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	view, err := h.engine.Lifecycle.CheckOut(c.Request.Context(), CheckOutInput{
		BookingID:     id,
		At:            req.At,
		ReleaseFuture: req.ReleaseFuture,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) TransferRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.engine.Transfers.Transfer(c.Request.Context(), TransferInput{
		BookingID: id,
		OldRoomID: req.OldRoomID,
		NewRoomID: req.NewRoomID,
		At:        req.At,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) AttachService(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AttachServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	charge, err := h.engine.Attachments.AttachService(c.Request.Context(), AttachServiceInput{
		BookingID: id,
		RoomID:    req.RoomID,
		ServiceID: req.ServiceID,
		Quantity:  req.Quantity,
		At:        req.At,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, charge)
}

func (h *Handler) GetCoveringSegment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	roomID, ok := pathID(c, "roomId")
	if !ok {
		return
	}
	at, err := time.Parse(time.RFC3339, c.Query("at"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "at must be RFC3339")
		return
	}

	cov, err := h.engine.Attachments.FindCoveringSegment(c.Request.Context(), id, roomID, at)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cov)
}

func (h *Handler) ExtendStay(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	view, err := h.engine.Lifecycle.Extend(c.Request.Context(), id, req.CheckOut)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	view, err := h.engine.Lifecycle.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.engine.Lifecycle.MarkNoShow(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) IssueDepositInvoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req DepositInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	inv, err := h.engine.Lifecycle.IssueDepositInvoice(c.Request.Context(), DepositInvoiceInput{
		BookingIDs: append([]int64{id}, req.WithBookingIDs...),
		Amount:     req.Amount,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, inv)
}

func (h *Handler) FinalizeInvoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	folio, err := h.engine.Lifecycle.FinalizeInvoice(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, folio)
}

func (h *Handler) MarkRoomCleaned(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	room, err := h.engine.Lifecycle.MarkRoomCleaned(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, room)
}

func (h *Handler) SetRoomMaintenance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	room, err := h.engine.Lifecycle.SetRoomMaintenance(c.Request.Context(), id, *req.On)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, room)
}

func (h *Handler) parseInstant(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperror.Validation("missing instant")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, raw, h.engine.Clock.Location())
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid "+name)
		return 0, false
	}
	return id, true
}
