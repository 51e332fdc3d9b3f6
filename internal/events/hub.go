// Package events fans player and save changes out to websocket subscribers.
package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pokestate/internal/logger"
	"pokestate/internal/metrics"
	"pokestate/internal/player"
)

// Event is one message on the change feed.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	SubjectID string    `json:"subject_id"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(eventType, subjectID, detail string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
}

// FromChange converts a player store change into a feed event.
func FromChange(c player.Change) Event {
	return NewEvent(string(c.Kind), c.PlayerID, c.Detail)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub maintains the set of active subscribers and broadcasts events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	log        *logger.Logger
	metrics    *metrics.Collector
}

func NewHub(log *logger.Logger, m *metrics.Collector) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
		metrics:    m,
	}
}

// Run handles registration and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
				h.metrics.RecordFeedConnection(-1)
			}
			h.mu.Unlock()
			h.log.Infof("change feed hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordFeedConnection(1)
			h.log.Debugf("change feed client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordFeedConnection(-1)
				h.log.Debugf("change feed client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordFeedMessage(true)
				default:
					// slow subscriber
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordFeedConnection(-1)
					h.metrics.RecordFeedMessage(false)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues e for broadcast. It never blocks: when the queue is full
// the event is dropped.
func (h *Hub) Publish(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		h.log.Errorf("encoding change feed event: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.metrics.RecordFeedMessage(false)
		h.log.Warnf("change feed queue full, dropped %s event", e.Type)
	}
}

// Observe is a player.Store observer.
func (h *Hub) Observe(c player.Change) {
	h.Publish(FromChange(c))
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and attaches a subscriber.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("change feed upgrade failed: %v", err)
		return
	}
	client := newClient(h, conn)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}
