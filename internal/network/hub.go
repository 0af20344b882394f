// Package network carries the engine's two outward faces: the observer
// websocket hub and the agent HTTP gateway.
package network

import (
	"context"
	"encoding/json"
	"time"

	"github.com/duskvale/werearena/internal/events"
	"github.com/duskvale/werearena/internal/platform/logger"
	"github.com/duskvale/werearena/internal/platform/metrics"
)

const eventPollInterval = 250 * time.Millisecond

// Hub fans engine events out to websocket observers. Broadcasting is
// fire-and-forget: a slow observer is dropped, never waited on.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns the client set. Start it once on its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			metrics.Get().RecordWSConnection()
			h.log.Info("observer connected, %d online", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Info("observer disconnected, %d online", len(h.clients))
			}
		case payload := <-h.broadcast:
			metrics.Get().RecordWSBroadcast()
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// attach hands a client to Run. Reports false when the hub has already
// shut down, so late connections never block.
func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// detach removes a client. Safe to call after the hub has shut down.
func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues a payload for every connected observer.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn("broadcast queue full, event dropped for observers")
	}
}

// WatchLog polls one game's event log and broadcasts new entries. The
// poller is decoupled from the game loop on purpose: the engine never
// blocks on observers. Returns when the game is over or ctx ends.
func (h *Hub) WatchLog(ctx context.Context, gameID string, evlog *events.Log) {
	go func() {
		ticker := time.NewTicker(eventPollInterval)
		defer ticker.Stop()
		offset := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			batch := evlog.Since(offset)
			offset += len(batch)
			done := false
			for _, e := range batch {
				payload, err := json.Marshal(e)
				if err != nil {
					h.log.Error("game %s: marshal event: %v", gameID, err)
					continue
				}
				h.Broadcast(payload)
				if e.Type == events.TypeGameOver {
					done = true
				}
			}
			if done {
				h.log.Info("game %s: event stream complete", gameID)
				return
			}
		}
	}()
}
