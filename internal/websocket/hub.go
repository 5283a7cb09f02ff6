package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"erp-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the envelope pushed to connected clients when the DTE pipeline
// advances (dte_generado, dte_reenviado).
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
	At    time.Time   `json:"at"`
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

// NewHub initializes a new WS Hub instance
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// BroadcastEvent serializes a pipeline event and fans it out to all clients.
// It never blocks the caller: if the dispatch loop is saturated the event is
// dropped with a log line.
func (h *Hub) BroadcastEvent(event string, payload interface{}) {
	msg, err := json.Marshal(Event{Event: event, Data: payload, At: time.Now()})
	if err != nil {
		log.Printf("WARNING: failed to serialize %s event: %v", event, err)
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		log.Printf("WARNING: dropping %s event, broadcast channel full", event)
	}
}

// Run starts the core dispatch loop for WebSocket events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Println("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Println("WebSocket client disconnected")
		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					delete(h.clients, client)
					close(client.Send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ServeWs upgrades an authenticated HTTP request to a WebSocket connection.
func ServeWs(hub *Hub, c *gin.Context, jwtSecret []byte) {
	tokenString, ok := middleware.ExtractToken(c)
	if !ok {
		// Browsers cannot set headers on WS dial; accept ?token= as well.
		tokenString = c.Query("token")
	}
	if _, valid := middleware.ParseUserID(tokenString, jwtSecret); !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}

	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 64)}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

// writePump forwards hub messages to the peer.
func (c *Client) writePump() {
	defer c.Conn.Close()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains the peer until it disconnects; inbound messages are ignored.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
