package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 50 * time.Second
	sendBuffer   = 64
)

// Hub tracks live WebSocket connections per user. A user may hold several
// connections (one per open tab).
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[uuid.UUID]*Connection // user key -> conn id -> connection
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]map[uuid.UUID]*Connection),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// RegisterConnection adds a connection for a user.
func (h *Hub) RegisterConnection(userKey string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.connections[userKey]
	if !ok {
		conns = make(map[uuid.UUID]*Connection)
		h.connections[userKey] = conns
	}
	conns[conn.ID()] = conn
	h.logger.Debug().Str("user_key", userKey).Str("conn_id", conn.ID().String()).Msg("connection registered")
}

// UnregisterConnection closes and removes one connection.
func (h *Hub) UnregisterConnection(userKey string, connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.connections[userKey]
	if !ok {
		return
	}
	if conn, exists := conns[connID]; exists {
		conn.Close()
		delete(conns, connID)
		h.logger.Debug().Str("user_key", userKey).Str("conn_id", connID.String()).Msg("connection unregistered")
	}
	if len(conns) == 0 {
		delete(h.connections, userKey)
	}
}

// SendToUser delivers a message to every connection of a user.
func (h *Hub) SendToUser(userKey string, msg Message) error {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections[userKey]))
	for _, c := range h.connections[userKey] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return ErrConnectionNotFound
	}

	var firstErr error
	for _, c := range conns {
		if err := c.Send(msg); err != nil && firstErr == nil {
			firstErr = err
			h.logger.Warn().Err(err).Str("user_key", userKey).Msg("send_to_user_failed")
		}
	}
	return firstErr
}

// ConnectionCount returns the number of live connections for a user.
func (h *Hub) ConnectionCount(userKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userKey])
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	id     uuid.UUID
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	id := uuid.New()
	return &Connection{
		id:     id,
		conn:   conn,
		sendCh: make(chan Message, sendBuffer),
		logger: logger.With().Str("conn_id", id.String()).Logger(),
	}
}

func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump sends queued messages and keeps the peer alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
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

// ReadPump receives messages and calls the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "User connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
