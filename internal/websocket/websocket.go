package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/prizewheel/internal/auth"
	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	sendBuffer      = 256
	broadcastBuffer = 256
)

// Message types sent to dashboard clients
const (
	TypeConnected = "connected"
	TypeSpin      = "spin"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard clients authenticate with a bearer token
	},
}

// Hub fans out live spin events to each tenant's connected dashboards
type Hub struct {
	log        logger.Logger
	rooms      map[int64]map[*Client]bool
	broadcast  chan tenantMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

type tenantMessage struct {
	tenantID int64
	msg      models.WSMessage
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub      *Hub
	tenantID int64
	conn     *websocket.Conn
	send     chan models.WSMessage
}

// New creates a new Hub instance
func New(log logger.Logger) *Hub {
	return &Hub{
		log:        log,
		rooms:      make(map[int64]map[*Client]bool),
		broadcast:  make(chan tenantMessage, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start begins the hub's main loop in a goroutine. The loop exits when ctx
// is cancelled.
func (h *Hub) Start(ctx context.Context) {
	go h.run(ctx)
}

func (h *Hub) run(ctx context.Context) {
	defer func() {
		h.mutex.Lock()
		for tenantID, room := range h.rooms {
			for client := range room {
				close(client.send)
			}
			delete(h.rooms, tenantID)
		}
		h.mutex.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("Live feed hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			room, ok := h.rooms[client.tenantID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.tenantID] = room
			}
			room[client] = true
			viewers := len(room)
			h.mutex.Unlock()
			h.log.Debug("Dashboard connected", "tenant_id", client.tenantID, "viewers", viewers)

			client.send <- models.WSMessage{
				Type:    TypeConnected,
				Payload: map[string]interface{}{"tenant_id": client.tenantID, "viewers": viewers},
			}

		case client := <-h.unregister:
			h.remove(client)

		case m := <-h.broadcast:
			h.mutex.RLock()
			var stale []*Client
			for client := range h.rooms[m.tenantID] {
				select {
				case client.send <- m.msg:
				default:
					stale = append(stale, client)
				}
			}
			h.mutex.RUnlock()
			for _, client := range stale {
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	room := h.rooms[client.tenantID]
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.tenantID)
	}
	h.log.Debug("Dashboard disconnected", "tenant_id", client.tenantID, "viewers", len(room))
}

// Viewers returns the number of dashboards connected for a tenant
func (h *Hub) Viewers(tenantID int64) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[tenantID])
}

// Broadcast queues a message for every dashboard of the tenant. Messages
// are dropped when the queue is full.
func (h *Hub) Broadcast(tenantID int64, msgType string, payload interface{}) {
	select {
	case h.broadcast <- tenantMessage{tenantID: tenantID, msg: models.WSMessage{Type: msgType, Payload: payload}}:
	default:
		h.log.Warn("Live feed queue full, dropping message", "tenant_id", tenantID, "type", msgType)
	}
}

// BroadcastSpin implements services.Broadcaster
func (h *Hub) BroadcastSpin(tenantID int64, spin models.SpinRecord) {
	h.Broadcast(tenantID, TypeSpin, spin)
}

// readPump drains the connection so control frames are processed
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.hub.log.Debug("Received message", "tenant_id", c.tenantID, "type", msg.Type)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
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

// ServeWs upgrades an authenticated request to the tenant's live feed
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:      h,
		tenantID: session.TenantID,
		conn:     conn,
		send:     make(chan models.WSMessage, sendBuffer),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
