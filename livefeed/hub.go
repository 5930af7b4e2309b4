package livefeed

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Message is pushed to every client watching an event.
type Message struct {
	Type      string    `json:"type"` // "availability" or "validation"
	EventID   string    `json:"eventId"`
	Capacity  int       `json:"capacity,omitempty"`
	Issued    int64     `json:"issued,omitempty"`
	Remaining *int64    `json:"remaining,omitempty"`
	TicketID  string    `json:"ticketId,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	At        time.Time `json:"at"`
}

type Client struct {
	Send    chan []byte
	EventID string
	Staff   bool
	conn    wsConn
}

type broadcastMsg struct {
	EventID   string
	StaffOnly bool
	Data      []byte
}

// Hub groups clients by event id. All membership changes go through Run.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.EventID] == nil {
				h.rooms[c.EventID] = make(map[*Client]bool)
			}
			h.rooms[c.EventID][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.EventID] {
				if m.StaffOnly && !c.Staff {
					continue
				}
				select {
				case c.Send <- m.Data:
				default:
					// slow consumer
					h.remove(c)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for _, conns := range h.rooms {
				for c := range conns {
					h.remove(c)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove expects h.mu to be held.
func (h *Hub) remove(c *Client) {
	conns := h.rooms[c.EventID]
	if conns == nil || !conns[c] {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.rooms, c.EventID)
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Watchers returns how many clients follow eventID.
func (h *Hub) Watchers(eventID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[eventID])
}

// Publish queues msg for every client of msg.EventID. Validation messages
// go to staff clients only.
func (h *Hub) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[livefeed] marshal %s: %v", msg.Type, err)
		return
	}
	select {
	case h.broadcast <- broadcastMsg{EventID: msg.EventID, StaffOnly: msg.Type == "validation", Data: data}:
	case <-h.quit:
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}
