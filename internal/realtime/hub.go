package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Message is one realtime frame: a named event with a JSON-serializable
// payload.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Connection is one live subscriber. Frames arrive on C; the hub never
// closes C until Unregister.
type Connection struct {
	ID     string
	UserID int64
	C      chan Message

	done chan struct{}
}

// Done is closed when the connection is torn down server-side.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Hub routes frames to connections. Every connection sits in its owner's
// private channel; joining an article room is explicit and per-connection.
// Delivery is at-most-once: a frame that finds a full buffer is dropped,
// never queued and never retried.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]*Connection
	byUser    map[int64]map[string]*Connection
	byArticle map[int64]map[string]*Connection
	rooms     map[string]map[int64]struct{}

	buffer  int
	dropped uint64
	logger  *slog.Logger
}

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		conns:     make(map[string]*Connection),
		byUser:    make(map[int64]map[string]*Connection),
		byArticle: make(map[int64]map[string]*Connection),
		rooms:     make(map[string]map[int64]struct{}),
		buffer:    buffer,
		logger:    logger,
	}
}

// Register creates a connection bound to the user's private channel.
func (h *Hub) Register(userID int64) *Connection {
	conn := &Connection{
		ID:     uuid.New().String(),
		UserID: userID,
		C:      make(chan Message, h.buffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[conn.ID] = conn
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[string]*Connection)
	}
	h.byUser[userID][conn.ID] = conn
	h.rooms[conn.ID] = make(map[int64]struct{})
	h.mu.Unlock()

	h.logger.Debug("connection registered", "connection_id", conn.ID, "user_id", userID)
	return conn
}

// Unregister tears the connection down and leaves all its rooms. Safe to
// call twice.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, connID)

	if userConns := h.byUser[conn.UserID]; userConns != nil {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(h.byUser, conn.UserID)
		}
	}
	for articleID := range h.rooms[connID] {
		h.leaveLocked(connID, articleID)
	}
	delete(h.rooms, connID)
	h.mu.Unlock()

	close(conn.done)
	h.logger.Debug("connection unregistered", "connection_id", connID, "user_id", conn.UserID)
}

// JoinArticle subscribes the connection to an article room. The connection
// must belong to the given user.
func (h *Hub) JoinArticle(connID string, userID, articleID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok || conn.UserID != userID {
		return false
	}

	if h.byArticle[articleID] == nil {
		h.byArticle[articleID] = make(map[string]*Connection)
	}
	h.byArticle[articleID][connID] = conn
	h.rooms[connID][articleID] = struct{}{}
	return true
}

// LeaveArticle unsubscribes the connection from an article room. Leaving a
// room the connection never joined is a no-op.
func (h *Hub) LeaveArticle(connID string, userID, articleID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok || conn.UserID != userID {
		return false
	}
	h.leaveLocked(connID, articleID)
	delete(h.rooms[connID], articleID)
	return true
}

func (h *Hub) leaveLocked(connID string, articleID int64) {
	if room := h.byArticle[articleID]; room != nil {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.byArticle, articleID)
		}
	}
}

// EmitToUser delivers to every connection of one user.
func (h *Hub) EmitToUser(userID int64, event string, payload interface{}) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.byUser[userID]))
	for _, conn := range h.byUser[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	msg := Message{Event: event, Data: payload}
	for _, conn := range conns {
		h.deliver(conn, msg)
	}
}

// EmitToArticle delivers to every connection currently in the article room.
func (h *Hub) EmitToArticle(articleID int64, event string, payload interface{}) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.byArticle[articleID]))
	for _, conn := range h.byArticle[articleID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	msg := Message{Event: event, Data: payload}
	for _, conn := range conns {
		h.deliver(conn, msg)
	}
}

// deliver is non-blocking: a slow consumer loses frames instead of stalling
// the hub.
func (h *Hub) deliver(conn *Connection, msg Message) {
	select {
	case conn.C <- msg:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		h.logger.Warn("frame dropped, slow consumer",
			"connection_id", conn.ID,
			"user_id", conn.UserID,
			"event", msg.Event)
	}
}

// Dropped reports how many frames were discarded since start.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// ConnectionCount reports live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
