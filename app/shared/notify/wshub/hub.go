// Package wshub broadcasts scheduler notifications to WebSocket clients.
package wshub

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 256
)

const (
	logMsgClientConnected    = "websocket client connected"
	logMsgClientDisconnected = "websocket client disconnected"
	logMsgUpgradeFailed      = "websocket upgrade failed"
	logMsgClientDropped      = "websocket client too slow, dropped"
	logAttrClients           = "clients"
	logAttrError             = "error"
)

// ErrHubClosed is returned by Publish after Run returned.
var ErrHubClosed = errors.New("websocket hub closed")

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the set of connected clients and broadcasts every published event to all of them.
// Run must be running for Publish and ServeHTTP to make progress.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	logger     scheduler.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger for connection lifecycle messages.
func WithLogger(logger scheduler.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithCheckOrigin sets the origin check of the upgrader. By default only same-origin requests are accepted.
func WithCheckOrigin(checkOrigin func(r *http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = checkOrigin
	}
}

// New creates a Hub.
func New(options ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
	}

	for _, option := range options {
		option(h)
	}

	return h
}

// Run serves the hub until ctx is done and disconnects all clients afterward.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*client]struct{})

	defer func() {
		h.closeOnce.Do(func() { close(h.done) })
		for c := range clients {
			close(c.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			clients[c] = struct{}{}
			h.log(logMsgClientConnected, logAttrClients, len(clients))

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.log(logMsgClientDisconnected, logAttrClients, len(clients))
			}

		case message := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- message:
				default:
					delete(clients, c)
					close(c.send)
					h.log(logMsgClientDropped, logAttrClients, len(clients))
				}
			}
		}
	}
}

// Publish encodes the event and hands it to all connected clients.
func (h *Hub) Publish(ctx context.Context, event notify.Event) error {
	_, data, err := notify.Encode(event)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP upgrades the request to a WebSocket and streams notifications to it.
// Messages sent by the client are discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log(logMsgUpgradeFailed, logAttrError, err.Error())
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) log(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}
