package roomboard

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/inventory"
)

// RoomSource provides the snapshot sent when a screen connects.
type RoomSource interface {
	Rooms(ctx context.Context, f inventory.RoomFilter) ([]domain.Room, error)
}

type Handler struct {
	hub      *Hub
	rooms    RoomSource
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHandler(hub *Hub, rooms RoomSource, allowedOrigins []string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{hub: hub, rooms: rooms, upgrader: newUpgrader(allowedOrigins), log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws/rooms", h.WebSocket)
}

func (h *Handler) WebSocket(c *gin.Context) {
	rooms, err := h.rooms.Rooms(c.Request.Context(), inventory.RoomFilter{})
	if err != nil {
		h.log.Warn("room board snapshot failed", zap.Error(err))
		rooms = []domain.Room{}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.ServeWS(conn, gin.H{"rooms": rooms})
}
