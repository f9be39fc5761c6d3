package inventory

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/room-types", h.ListRoomTypes)
	rg.GET("/rooms", h.ListRooms)
	rg.GET("/rooms/:id", h.GetRoom)
	rg.GET("/services", h.ListServices)
}

func (h *Handler) ListRoomTypes(c *gin.Context) {
	types, err := h.service.RoomTypes(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room_types": types})
}

// ListRooms accepts ?room_type_id=&status=&floor=.
func (h *Handler) ListRooms(c *gin.Context) {
	var f RoomFilter
	if v := c.Query("room_type_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid room_type_id")
			return
		}
		f.RoomTypeID = id
	}
	if v := c.Query("floor"); v != "" {
		floor, err := strconv.Atoi(v)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid floor")
			return
		}
		f.Floor = &floor
	}
	f.Status = domain.RoomStatus(c.Query("status"))

	rooms, err := h.service.Rooms(c.Request.Context(), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid room id")
		return
	}
	room, err := h.service.Room(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, room)
}

func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.service.Services(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"services": services})
}
