// Package roomboard pushes room status changes to front-desk screens over
// websockets.
package roomboard

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hotelstay/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

const (
	EventSnapshot   = "snapshot"
	EventRoomStatus = "room_status"
)

// Event is pushed to every subscribed screen.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// client is one connected screen. It receives every room until it
// subscribes to specific ones.
type client struct {
	conn     *websocket.Conn
	send     chan []byte
	mu       sync.Mutex
	rooms    map[int64]bool
	allRooms bool
}

func (c *client) wants(roomID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allRooms || c.rooms[roomID]
}

// Hub fans room status changes out to connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{clients: make(map[*client]bool), log: log}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishRoomStatus is called after the status change has committed.
func (h *Hub) PublishRoomStatus(change domain.RoomStatusChange) {
	data, err := json.Marshal(Event{Type: EventRoomStatus, Payload: change})
	if err != nil {
		h.log.Error("encode room status event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(change.RoomID) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Warn("room board client too slow, event dropped", zap.Int64("room_id", change.RoomID))
		}
	}
}

// ServeWS registers conn, queues the initial snapshot and blocks until the
// client disconnects.
func (h *Hub) ServeWS(conn *websocket.Conn, snapshot any) {
	c := &client{
		conn:     conn,
		send:     make(chan []byte, 256),
		rooms:    make(map[int64]bool),
		allRooms: true,
	}
	if data, err := json.Marshal(Event{Type: EventSnapshot, Payload: snapshot}); err == nil {
		c.send <- data
	}

	h.register(c)
	go h.writePump(c)
	h.readPump(c)
}

// readPump handles filter messages:
// {"type":"subscribe","room_id":"101"}, {"type":"unsubscribe",...} and
// {"type":"all"}.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var cmd struct {
			Type   string `json:"type"`
			RoomID string `json:"room_id"`
		}
		if err := json.Unmarshal(msg, &cmd); err != nil {
			continue
		}
		roomID, _ := strconv.ParseInt(cmd.RoomID, 10, 64)

		c.mu.Lock()
		switch cmd.Type {
		case "subscribe":
			if roomID > 0 {
				if c.allRooms {
					c.allRooms = false
					c.rooms = make(map[int64]bool)
				}
				c.rooms[roomID] = true
			}
		case "unsubscribe":
			delete(c.rooms, roomID)
		case "all":
			c.allRooms = true
		}
		c.mu.Unlock()
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func newUpgrader(allowed []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			for _, a := range allowed {
				if a == "*" || a == origin {
					return true
				}
			}
			return false
		},
	}
}
