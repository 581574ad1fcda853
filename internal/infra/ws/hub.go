// Package ws is the realtime transport: it maintains websocket connections,
// per-conversation channel subscriptions, and best-effort event fan-out.
// Events dropped on a full client buffer are gone; clients recover through
// the paginated fetch endpoint.
package ws

import (
	"context"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	EventJoined  = "joined"
	EventLeft    = "left"
	EventMessage = "message"
	EventError   = "error"
)

// Event is the wire format for every server-to-client payload.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Conn is the minimal connection surface the hub needs, so fan-out logic can
// be exercised without a live websocket.
type Conn interface {
	Write(ctx context.Context, ev Event) error
	Ping(ctx context.Context) error
	Close(code websocket.StatusCode, reason string) error
}

// NewConn adapts a websocket connection to the hub's Conn interface.
func NewConn(conn *websocket.Conn) Conn {
	return wsConn{conn: conn}
}

type wsConn struct {
	conn *websocket.Conn
}

func (w wsConn) Write(ctx context.Context, ev Event) error {
	return wsjson.Write(ctx, w.conn, ev)
}

func (w wsConn) Ping(ctx context.Context) error {
	return w.conn.Ping(ctx)
}

func (w wsConn) Close(code websocket.StatusCode, reason string) error {
	return w.conn.Close(code, reason)
}

type Client struct {
	UserID uint

	conn   Conn
	send   chan Event
	ctx    context.Context
	cancel context.CancelFunc
}

type Hub struct {
	mu      sync.RWMutex
	rooms   map[uint]map[*Client]struct{}
	members map[*Client]map[uint]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:   map[uint]map[*Client]struct{}{},
		members: map[*Client]map[uint]struct{}{},
	}
}

// AddClient registers a connection and starts its write and keepalive loops.
func (h *Hub) AddClient(userID uint, conn Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan Event, 64),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	h.members[c] = map[uint]struct{}{}
	h.mu.Unlock()

	go c.writeLoop()
	go c.keepAliveLoop()
	return c
}

// RemoveClient drops the connection from every room and closes it.
func (h *Hub) RemoveClient(c *Client) {
	c.cancel()

	h.mu.Lock()
	for conversationID := range h.members[c] {
		h.removeFromRoom(c, conversationID)
	}
	delete(h.members, c)
	h.mu.Unlock()

	_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Join subscribes the client to a conversation's channel. Authorization is
// the caller's responsibility; the hub only tracks subscriptions.
func (h *Hub) Join(c *Client, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[conversationID] == nil {
		h.rooms[conversationID] = map[*Client]struct{}{}
	}
	h.rooms[conversationID][c] = struct{}{}
	if h.members[c] == nil {
		h.members[c] = map[uint]struct{}{}
	}
	h.members[c][conversationID] = struct{}{}
}

func (h *Hub) Leave(c *Client, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(c, conversationID)
	delete(h.members[c], conversationID)
}

// Broadcast fans an event out to every current subscriber of the channel.
// Slow clients with a full buffer are skipped, not waited for.
func (h *Hub) Broadcast(conversationID uint, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[conversationID] {
		select {
		case c.send <- ev:
		default:
			// buffer full, drop
		}
	}
}

// Send queues an event for a single client, dropping it when the buffer is full.
func (h *Hub) Send(c *Client, ev Event) {
	select {
	case c.send <- ev:
	default:
	}
}

func (h *Hub) removeFromRoom(c *Client, conversationID uint) {
	if room, ok := h.rooms[conversationID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.send:
			writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = c.conn.Write(writeCtx, ev)
			cancel()
		}
	}
}

func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.conn.Ping(pingCtx)
			cancel()
		}
	}
}
