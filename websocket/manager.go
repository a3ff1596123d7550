// Package websocket serves the live activity feed for signed-in editors.
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"reviewcms/auth"
	"reviewcms/metrics"
	"reviewcms/notify"
	"reviewcms/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Hub tracks connected clients and broadcasts activity events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	// done is closed once Run returns.
	done chan struct{}
}

// Client is one feed connection. send is never closed; done signals
// the write pump to stop instead.
type Client struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
	hub    *Hub

	done     chan struct{}
	stopOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 256),
		hub:    h,
		done:   make(chan struct{}),
	}
}

func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

type message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.stop()
				metrics.WSDisconnected()
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WSConnected()
			log.Printf("✅ WebSocket client registered. Total clients: %d", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.stop()
				metrics.WSDisconnected()
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("❌ WebSocket client unregistered. Total clients: %d", total)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer
					client.stop()
					delete(h.clients, client)
					metrics.WSDisconnected()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues e for every connected client without blocking.
func (h *Hub) Publish(_ context.Context, e notify.Event) {
	msg, err := json.Marshal(message{Type: e.Resource + "_" + e.Type, Payload: e})
	if err != nil {
		log.Printf("❌ Error marshaling WebSocket message: %v", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("⚠️  WebSocket broadcast queue full, dropping %s %s", e.Resource, e.Type)
	}
}

func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades a request carrying a valid ?token= to a feed connection.
func (h *Hub) Handler(tokens auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			log.Printf("❌ WebSocket connection rejected: no token provided")
			response.Error(c, http.StatusBadRequest, "Authentication failed: No token provided")
			return
		}
		claims, err := tokens.Validate(token)
		if err != nil {
			log.Printf("❌ WebSocket connection rejected: %v", err)
			response.Error(c, http.StatusForbidden, "Authentication failed: Invalid or expired token")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := newClient(h, conn, claims.Subject)
		select {
		case h.register <- client:
		case <-h.done:
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		welcome, _ := json.Marshal(message{
			Type: "connected",
			Payload: map[string]interface{}{
				"userId":  client.userID,
				"message": "WebSocket connected successfully",
				"time":    time.Now().Unix(),
			},
		})
		select {
		case client.send <- welcome:
		default:
		}

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.leave()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket read error: %v", err)
			}
			break
		}

		var in message
		if err := json.Unmarshal(raw, &in); err != nil {
			continue
		}
		if in.Type == "ping" {
			c.sendPong()
		}
	}
}

// leave unregisters c, or gives up once the hub has stopped.
func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func (c *Client) sendPong() {
	msg, err := json.Marshal(message{Type: "pong", Payload: map[string]interface{}{"time": time.Now().Unix()}})
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- msg:
	default:
	}
}

var _ notify.Publisher = (*Hub)(nil)
