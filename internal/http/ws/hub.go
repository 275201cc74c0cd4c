package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"productmap/internal/http/middleware"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WebSocketMessage represents a message sent through WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	TenantID  uuid.UUID   `json:"tenant_id"`
}

// WebSocketClient represents a connected WebSocket client
type WebSocketClient struct {
	conn     *websocket.Conn
	tenantID uuid.UUID
	send     chan WebSocketMessage
	hub      *WebSocketHub
}

// WebSocketHub fans import progress events out to each tenant's clients
type WebSocketHub struct {
	clients    map[*WebSocketClient]bool
	broadcast  chan WebSocketMessage
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	done       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
}

// NewWebSocketHub creates a hub and starts its loop
func NewWebSocketHub() *WebSocketHub {
	hub := &WebSocketHub{
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		done:       make(chan struct{}),
	}
	go hub.run()
	return hub
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleWebSocket godoc
// @Summary Import progress stream
// @Description Upgrade to a websocket receiving import.progress, import.completed and import.failed events for the tenant
// @Tags imports
// @Param tenant_id query string false "Tenant ID when the X-Tenant-ID header cannot be set"
// @Success 101
// @Failure 400 {object} map[string]string
// @Router /ws [get]
func (hub *WebSocketHub) HandleWebSocket(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := &WebSocketClient{
		conn:     conn,
		tenantID: tenantID,
		send:     make(chan WebSocketMessage, 256),
		hub:      hub,
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// BroadcastToTenant queues a message for every client of the tenant. It
// never blocks: when the queue is full the message is dropped.
func (hub *WebSocketHub) BroadcastToTenant(tenantID uuid.UUID, messageType string, data interface{}) {
	message := WebSocketMessage{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now(),
		TenantID:  tenantID,
	}

	select {
	case hub.broadcast <- message:
	case <-hub.done:
	default:
		log.Warn().Str("tenant_id", tenantID.String()).Str("type", messageType).Msg("WebSocket queue full, dropping message")
	}
}

// GetConnectedClients returns the number of connected clients
func (hub *WebSocketHub) GetConnectedClients() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients)
}

// Close stops the hub and disconnects every client
func (hub *WebSocketHub) Close() {
	hub.closeOnce.Do(func() {
		close(hub.done)
	})
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case <-hub.done:
			hub.mu.Lock()
			for client := range hub.clients {
				close(client.send)
				delete(hub.clients, client)
			}
			hub.mu.Unlock()
			return

		case client := <-hub.register:
			hub.mu.Lock()
			hub.clients[client] = true
			hub.mu.Unlock()
			log.Debug().Str("tenant_id", client.tenantID.String()).Msg("WebSocket client connected")

			client.send <- WebSocketMessage{
				Type:      "connection",
				Data:      map[string]string{"status": "connected"},
				Timestamp: time.Now(),
				TenantID:  client.tenantID,
			}

		case client := <-hub.unregister:
			hub.mu.Lock()
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				close(client.send)
				log.Debug().Str("tenant_id", client.tenantID.String()).Msg("WebSocket client disconnected")
			}
			hub.mu.Unlock()

		case message := <-hub.broadcast:
			hub.mu.Lock()
			for client := range hub.clients {
				if client.tenantID != message.TenantID {
					continue
				}
				select {
				case client.send <- message:
				default:
					// slow client
					close(client.send)
					delete(hub.clients, client)
				}
			}
			hub.mu.Unlock()
		}
	}
}

func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	// Pings go out every 20s
	c.conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("tenant_id", c.tenantID.String()).Msg("WebSocket read error")
			}
			return
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(message, &msg); err == nil && msg.Type == "ping" {
			pong := WebSocketMessage{
				Type:      "pong",
				Data:      map[string]string{"status": "ok"},
				Timestamp: time.Now(),
				TenantID:  c.tenantID,
			}
			c.hub.mu.RLock()
			_, registered := c.hub.clients[c]
			if registered {
				select {
				case c.send <- pong:
				default:
				}
			}
			c.hub.mu.RUnlock()
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(20 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				log.Warn().Err(err).Str("tenant_id", c.tenantID.String()).Msg("WebSocket write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
