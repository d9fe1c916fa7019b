package emit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Vodeneev/livebet/internal/pkg/models"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// WSHub streams emitted signals to connected dashboard clients. New clients
// get a replay of the recent ring before live signals.
type WSHub struct {
	ring     *Ring
	upgrader websocket.Upgrader

	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	done       chan struct{}
}

type wsClient struct {
	hub  *WSHub
	conn *websocket.Conn
	send chan []byte
}

type wsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewWSHub(ring *Ring) *WSHub {
	hub := &WSHub{
		ring: ring,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard is served from another origin in dev
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *WSHub) run() {
	clients := make(map[*wsClient]bool)
	for {
		select {
		case <-h.done:
			for client := range clients {
				close(client.send)
			}
			return
		case client := <-h.register:
			clients[client] = true
		case client := <-h.unregister:
			if clients[client] {
				delete(clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range clients {
				select {
				case client.send <- message:
				default:
					// slow client, drop it
					delete(clients, client)
					close(client.send)
				}
			}
		}
	}
}

func (h *WSHub) Emit(ctx context.Context, signal *models.Signal) error {
	data, err := json.Marshal(wsMessage{Type: "signal", Data: signal})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("WS hub broadcast buffer full, dropping signal", "match", signal.MatchName)
	}
	return nil
}

func (h *WSHub) Close() {
	close(h.done)
}

// ServeWS upgrades an HTTP request to a signal stream.
func (h *WSHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{hub: h, conn: conn, send: make(chan []byte, 64)}
	h.register <- client

	// Replay recent signals so a freshly opened dashboard is not blank.
	if h.ring != nil {
		for _, signal := range h.ring.Recent() {
			if data, err := json.Marshal(wsMessage{Type: "signal", Data: signal}); err == nil {
				select {
				case client.send <- data:
				default:
				}
			}
		}
	}

	go client.writePump()
	go client.readPump()
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages; the stream is one-way. It exists to
// notice closed connections and unregister.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
