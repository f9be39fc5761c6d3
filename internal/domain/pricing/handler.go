package pricing

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
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListPeriods(c *gin.Context) {
	periods, err := h.service.ListPeriods(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"periods": periods})
}

func (h *Handler) GetPeriod(c *gin.Context) {
	id, ok := periodID(c)
	if !ok {
		return
	}
	details, err := h.service.GetPeriod(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, details)
}

func (h *Handler) CreateSpecialPeriod(c *gin.Context) {
	var req PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	start, end, ok := parseRange(c, req)
	if !ok {
		return
	}

	period, err := h.service.CreateSpecialPeriod(c.Request.Context(), req.Name, start, end)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, period)
}

func (h *Handler) UpdateSpecialPeriod(c *gin.Context) {
	id, ok := periodID(c)
	if !ok {
		return
	}
	var req PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	start, end, ok := parseRange(c, req)
	if !ok {
		return
	}

	period, err := h.service.UpdateSpecialPeriod(c.Request.Context(), id, req.Name, start, end)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, period)
}

func (h *Handler) DeleteSpecialPeriod(c *gin.Context) {
	id, ok := periodID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSpecialPeriod(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) SetPrices(c *gin.Context) {
	id, ok := periodID(c)
	if !ok {
		return
	}
	var req SetPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	prices, err := h.service.SetPrices(c.Request.Context(), id, req.Prices)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"prices": prices})
}

// Quote resolves ?room_type_id=&mode=&date=YYYY-MM-DD.
func (h *Handler) Quote(c *gin.Context) {
	roomTypeID, err := strconv.ParseInt(c.Query("room_type_id"), 10, 64)
	if err != nil || roomTypeID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "room_type_id is required")
		return
	}
	date, err := time.Parse(time.DateOnly, c.Query("date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD")
		return
	}
	mode := domain.RentalMode(c.DefaultQuery("mode", string(domain.RentalNight)))

	quote, err := h.service.Quote(c.Request.Context(), roomTypeID, mode, date)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, quote)
}

func periodID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid period id")
		return 0, false
	}
	return id, true
}

func parseRange(c *gin.Context, req PeriodRequest) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		response.FromError(c, apperror.Validation("start_date must be YYYY-MM-DD"))
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		response.FromError(c, apperror.Validation("end_date must be YYYY-MM-DD"))
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
