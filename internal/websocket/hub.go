package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"sensor-ingest/internal/event"
	"sensor-ingest/internal/model"
)

// Hub fans bus events out to every connected browser.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	bus        event.Bus
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		bus:        bus,
	}
}

// Register returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			message, err := json.Marshal(streamMessage(e))
			if err != nil {
				slog.Error("failed to marshal event", "error", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than stall every other client.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

type streamReading struct {
	ID          int64   `json:"id"`
	SensorID    int64   `json:"sensor_id"`
	Temperature float64 `json:"temperatura"`
	Humidity    float64 `json:"umidade"`
	Timestamp   string  `json:"timestamp"`
}

type readingMessage struct {
	Type    event.Type     `json:"type"`
	Reading *streamReading `json:"reading,omitempty"`
}

// streamMessage flattens an event into the shape the charts page consumes,
// with timestamps in the same layout as the JSON feed.
func streamMessage(e event.Event) readingMessage {
	msg := readingMessage{Type: e.Type}
	if reading, ok := e.Payload.(model.Reading); ok {
		msg.Reading = &streamReading{
			ID:          reading.ID,
			SensorID:    reading.SensorID,
			Temperature: reading.Temperature,
			Humidity:    reading.Humidity,
			Timestamp:   reading.Timestamp(),
		}
	}
	return msg
}
