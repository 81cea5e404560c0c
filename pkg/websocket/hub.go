package websocket

import (
	"encoding/json"
	"log"
	"time"
)

// Hub fans round-state updates out to watchers. Rooms are keyed by round ID;
// a client watches exactly one round.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Broadcast
	stop       chan struct{}

	rooms map[string]map[*Client]bool
}

type Broadcast struct {
	Room    string
	Type    string
	Payload any
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Broadcast, 256),
		stop:       make(chan struct{}),
		rooms:      map[string]map[*Client]bool{},
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			for _, clients := range h.rooms {
				for c := range clients {
					h.removeClient(c)
				}
			}
			return
		case c := <-h.register:
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = map[*Client]bool{}
			}
			h.rooms[c.Room][c] = true
		case c := <-h.unregister:
			h.removeClient(c)
		case b := <-h.broadcast:
			h.broadcastToRoom(b.Room, b.Type, b.Payload)
		}
	}
}

func (h *Hub) Stop() {
	close(h.stop)
}

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

func (h *Hub) Broadcast(room, typ string, payload any) {
	select {
	case h.broadcast <- Broadcast{Room: room, Type: typ, Payload: payload}:
	case <-h.stop:
	}
}

func (h *Hub) removeClient(c *Client) {
	if c == nil {
		return
	}
	if c.Room != "" && h.rooms[c.Room] != nil {
		delete(h.rooms[c.Room], c)
		if len(h.rooms[c.Room]) == 0 {
			delete(h.rooms, c.Room)
		}
	}
	c.SendCloseOnce.Do(func() { close(c.Send) })
}

func (h *Hub) broadcastToRoom(room, typ string, payload any) {
	clients := h.rooms[room]
	if len(clients) == 0 {
		return
	}

	msg := map[string]any{
		"type":      typ,
		"payload":   payload,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws broadcast marshal error: room=%s type=%s err=%v", room, typ, err)
		return
	}

	for c := range clients {
		select {
		case c.Send <- data:
		default:
			// Backpressure / dead client.
			h.removeClient(c)
		}
	}
}
