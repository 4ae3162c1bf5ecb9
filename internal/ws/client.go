package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Dispatcher handles the lifecycle and inbound frames of a connection.
// Dispatch is called sequentially from the connection's read loop.
type Dispatcher interface {
	Dispatch(client *Client, data []byte)
	Disconnect(client *Client)
}

// Client represents a single WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	dispatcher Dispatcher
	send       chan []byte
	id         string
	userID     string
	log        zerolog.Logger

	closeOnce sync.Once
	closed    atomic.Bool
}

// NewClient creates a new WebSocket client with a fresh connection id
func NewClient(hub *Hub, conn *websocket.Conn, userID string, dispatcher Dispatcher) *Client {
	id := uuid.NewString()
	return &Client{
		hub:        hub,
		conn:       conn,
		dispatcher: dispatcher,
		send:       make(chan []byte, sendBufferSize),
		id:         id,
		userID:     userID,
		log:        pkglogger.WithConnection(userID, id),
	}
}

// ID returns the connection id used as the presence handle
func (c *Client) ID() string { return c.id }

// UserID returns the authenticated user behind the connection
func (c *Client) UserID() string { return c.userID }

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.send)
	})
}

func (c *Client) isClosed() bool {
	return c.closed.Load()
}

// ReadPump reads frames and hands them to the dispatcher one at a time
func (c *Client) ReadPump() {
	defer func() {
		c.dispatcher.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			break
		}
		c.dispatcher.Dispatch(c, data)
	}
}

// WritePump sends queued frames and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message) //nolint:errcheck
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
