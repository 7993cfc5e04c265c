package progress

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is one pipeline stage update for a search request.
type Event struct {
	RequestID string    `json:"request_id"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber is one WebSocket client watching a request.
type Subscriber struct {
	ID        string
	RequestID string
	Conn      *websocket.Conn
	Send      chan []byte
	hub       *Hub
}

// Hub fans pipeline stage events out to the WebSocket clients watching
// each request. One goroutine owns the room maps; registration,
// unregistration and events all flow through channels.
type Hub struct {
	rooms      map[string]map[*Subscriber]bool // requestID -> set of subscribers
	register   chan *Subscriber
	unregister chan *Subscriber
	events     chan Event

	mu   sync.RWMutex
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Subscriber]bool),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
	}
}

// Start begins the hub event loop.
func (h *Hub) Start() {
	go func() {
		for {
			select {
			case <-h.done:
				return

			case sub := <-h.register:
				h.handleRegister(sub)

			case sub := <-h.unregister:
				h.handleUnregister(sub)

			case event := <-h.events:
				h.handleEvent(event)
			}
		}
	}()
}

// Publish queues a stage event for everyone watching the request. It
// never blocks the pipeline: if the hub is saturated the event is
// dropped, since progress updates are advisory.
func (h *Hub) Publish(requestID, stage, message string) {
	event := Event{
		RequestID: requestID,
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	select {
	case h.events <- event:
	default:
		log.Printf("progress hub saturated, dropping event %s/%s", requestID, stage)
	}
}

// Subscribe attaches a WebSocket connection to a request's event stream
// and starts its pump goroutines.
func (h *Hub) Subscribe(requestID string, conn *websocket.Conn) *Subscriber {
	sub := &Subscriber{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Conn:      conn,
		Send:      make(chan []byte, 64),
		hub:       h,
	}

	h.register <- sub

	go sub.writePump()
	go sub.readPump()

	return sub
}

func (h *Hub) handleRegister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[sub.RequestID] == nil {
		h.rooms[sub.RequestID] = make(map[*Subscriber]bool)
	}
	h.rooms[sub.RequestID][sub] = true

	log.Printf("subscriber %s watching request %s (total: %d)",
		sub.ID, sub.RequestID, len(h.rooms[sub.RequestID]))
}

func (h *Hub) handleUnregister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.rooms[sub.RequestID]; ok {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			close(sub.Send)

			if len(subs) == 0 {
				delete(h.rooms, sub.RequestID)
			}
		}
	}
}

func (h *Hub) handleEvent(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to encode progress event: %v", err)
		return
	}

	h.mu.RLock()
	subs := h.rooms[event.RequestID]
	h.mu.RUnlock()

	for sub := range subs {
		select {
		case sub.Send <- payload:
		default:
			// Buffer full, the client is slow or gone.
			log.Printf("subscriber %s buffer full, dropping connection", sub.ID)
			go func(s *Subscriber) { h.unregister <- s }(sub)
		}
	}
}

// Watchers reports how many clients are watching a request.
func (h *Hub) Watchers(requestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[requestID])
}

// Shutdown stops the event loop and closes every connection.
func (h *Hub) Shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, subs := range h.rooms {
		for sub := range subs {
			close(sub.Send)
			if sub.Conn != nil {
				sub.Conn.Close()
			}
		}
	}
	h.rooms = make(map[string]map[*Subscriber]bool)
}

// readPump drains the connection. Clients only listen on this socket,
// so inbound messages are discarded; the read loop exists to notice
// closes and keep the pong handler serviced.
func (s *Subscriber) readPump() {
	defer func() {
		s.hub.unregister <- s
		s.Conn.Close()
	}()

	s.Conn.SetReadLimit(512)
	s.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := s.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("progress socket error: %v", err)
			}
			return
		}
	}
}

// writePump sends queued events to the client and keeps the connection
// alive with pings.
func (s *Subscriber) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		s.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.Send:
			s.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
