package game

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	EVENT_SESSION_VALIDATED = "session_validated"
	EVENT_WELCOME           = "welcome"
	EVENT_PONG              = "pong"
)

// SessionEvent is pushed to live-feed subscribers after a session is graded.
type SessionEvent struct {
	SessionID                string      `json:"sessionId"`
	UserID                   string      `json:"userId"`
	Score                    int         `json:"score"`
	BlocksPassed             int         `json:"blocksPassed"`
	PointsEarned             uint64      `json:"pointsEarned"`
	IsFraud                  bool        `json:"isFraud"`
	FraudReason              FraudReason `json:"fraudReason"`
	StreakChallengeCompleted bool        `json:"streakChallengeCompleted"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Conn is the write side of a live-feed connection. A *websocket.Conn
// satisfies it; it allows one writer at a time.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Client struct {
	conn   Conn
	userID string
	mu     sync.Mutex
}

// Hub fans validated-session events out to connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan interface{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan interface{}, 100),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				client.conn.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] Client connected: %s (Total: %d)", client.userID, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.conn.Close()
				log.Printf("[WS] Client disconnected: %s (Total: %d)", client.userID, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			jsonMessage, err := json.Marshal(message)
			if err != nil {
				log.Printf("[WS] Marshal error: %v", err)
				continue
			}

			h.mu.RLock()
			for client := range h.clients {
				go client.send(jsonMessage)
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast queues a message for every client; it drops the message when
// the queue is full rather than block the caller.
func (h *Hub) Broadcast(message interface{}) {
	select {
	case h.broadcast <- message:
	default:
		log.Println("[WS] Broadcast channel full, dropping message")
	}
}

func (h *Hub) PublishSession(event SessionEvent) {
	h.Broadcast(WSMessage{Type: EVENT_SESSION_VALIDATED, Data: event})
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) send(message interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var data []byte
	var err error

	switch v := message.(type) {
	case []byte:
		data = v
	default:
		data, err = json.Marshal(v)
		if err != nil {
			log.Printf("[WS] Send marshal error: %v", err)
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[WS] Write error for user %s: %v", c.userID, err)
	}
}

// Reply writes a message to this client only. Writes are serialized with
// hub broadcasts.
func (c *Client) Reply(message interface{}) {
	c.send(message)
}

// RegisterClient adds conn to the feed and greets it. It returns nil and
// closes conn when the hub has stopped.
func (h *Hub) RegisterClient(conn Conn, userID string) *Client {
	client := &Client{
		conn:   conn,
		userID: userID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}
	client.send(WSMessage{Type: EVENT_WELCOME, Data: map[string]string{"userId": userID}})
	return client
}

func (h *Hub) UnregisterClient(conn Conn) {
	h.mu.RLock()
	for client := range h.clients {
		if client.conn == conn {
			h.mu.RUnlock()
			select {
			case h.unregister <- client:
			case <-h.done:
			}
			return
		}
	}
	h.mu.RUnlock()
}
