package wsgateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Connection represents a single authenticated WebSocket client.
//
// rooms is accessed without a lock: all reads and writes happen on the
// single goroutine that owns the connection (Gateway.Handle's read loop
// and its deferred cleanup), mirroring pkg/events/manager.go's
// Connection.subscriptions.
type Connection struct {
	ID     string
	Conn   *websocket.Conn
	Auth   AuthToken
	rooms  map[string]bool
	ctx    context.Context
	cancel context.CancelFunc
}

// Gateway manages WebSocket connections, room subscriptions, and
// per-tenant presence, adapted from pkg/events/manager.go's
// ConnectionManager: separate connection and room maps guarded by
// independent mutexes, one goroutine per connection, snapshot-then-send
// broadcasts.
type Gateway struct {
	validator TokenValidator

	connections map[string]*Connection
	mu          sync.RWMutex

	rooms   map[string]map[string]bool // room -> set of connection IDs
	roomsMu sync.RWMutex

	presence     *PresenceTracker
	writeTimeout time.Duration
}

// NewGateway constructs a Gateway. validator authenticates the token
// sent in the client's first Authenticate message; writeTimeout bounds
// how long a single send may block.
func NewGateway(validator TokenValidator, writeTimeout time.Duration) *Gateway {
	return &Gateway{
		validator:    validator,
		connections:  make(map[string]*Connection),
		rooms:        make(map[string]map[string]bool),
		presence:     NewPresenceTracker(2 * time.Minute),
		writeTimeout: writeTimeout,
	}
}

// Presence exposes the gateway's presence tracker for heartbeat sweeps
// and read-side queries.
func (g *Gateway) Presence() *PresenceTracker { return g.presence }

// Handle manages the lifecycle of a single WebSocket connection: it
// waits for an Authenticate message within authDeadline, then processes
// Subscribe/Unsubscribe/Ping messages until the connection closes.
// Blocks until the connection closes; callers run this per-connection
// in its own goroutine.
func (g *Gateway) Handle(parentCtx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parentCtx)
	c := &Connection{
		ID:     uuid.New().String(),
		Conn:   conn,
		rooms:  make(map[string]bool),
		ctx:    ctx,
		cancel: cancel,
	}
	defer cancel()

	if !g.authenticate(ctx, c) {
		_ = conn.Close(websocket.StatusPolicyViolation, "authentication timed out or failed")
		return
	}

	g.register(c)
	defer g.unregister(c)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid wsgateway message", "connection_id", c.ID, "error", err)
			continue
		}
		g.dispatch(c, &msg)
	}
}

// authenticate blocks for at most authDeadline waiting for an
// Authenticate message, validates the token, and replies with
// Authenticated on success or Error when the first message is not an
// Authenticate or the token is rejected or expired. A read error or
// timeout returns false without sending anything.
func (g *Gateway) authenticate(ctx context.Context, c *Connection) bool {
	authCtx, cancel := context.WithTimeout(ctx, authDeadline)
	defer cancel()

	_, data, err := c.Conn.Read(authCtx)
	if err != nil {
		return false
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Action != ActionAuthenticate {
		g.send(c, ServerMessage{Type: TypeError, Message: "authenticate must be the first message"})
		return false
	}

	token, err := g.validator.Validate(msg.Token)
	if err != nil {
		g.send(c, ServerMessage{Type: TypeError, Message: "authentication failed"})
		return false
	}
	if token.Expired(time.Now()) {
		g.send(c, ServerMessage{Type: TypeError, Message: "token expired"})
		return false
	}

	c.Auth = token
	g.send(c, ServerMessage{Type: TypeAuthenticated, ClientID: c.ID})
	return true
}

func (g *Gateway) dispatch(c *Connection, msg *ClientMessage) {
	switch msg.Action {
	case ActionSubscribe:
		if msg.Room == "" {
			g.send(c, ServerMessage{Type: TypeError, Message: "room is required for subscribe"})
			return
		}
		g.subscribe(c, msg.Room)
		g.send(c, ServerMessage{Type: TypeSubscribed, Room: msg.Room})

	case ActionUnsubscribe:
		if msg.Room == "" {
			g.send(c, ServerMessage{Type: TypeError, Message: "room is required for unsubscribe"})
			return
		}
		g.unsubscribe(c, msg.Room)
		g.send(c, ServerMessage{Type: TypeUnsubscribed, Room: msg.Room})

	case ActionPing:
		g.presence.Touch(c.Auth.TenantID, c.Auth.UserID, c.ID, time.Now())
		g.send(c, ServerMessage{Type: TypePong})

	default:
		g.send(c, ServerMessage{Type: TypeError, Message: "unknown action"})
	}
}

// Broadcast sends a payload to every connection subscribed to room,
// snapshotting the subscriber set under lock and sending outside it so
// slow writers can't stall subscribe/unsubscribe on other connections.
func (g *Gateway) Broadcast(room string, payload interface{}) {
	g.roomsMu.RLock()
	subs, ok := g.rooms[room]
	if !ok {
		g.roomsMu.RUnlock()
		return
	}
	ids := make([]string, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	g.roomsMu.RUnlock()

	g.mu.RLock()
	conns := make([]*Connection, 0, len(ids))
	for _, id := range ids {
		if c, ok := g.connections[id]; ok {
			conns = append(conns, c)
		}
	}
	g.mu.RUnlock()

	msg := ServerMessage{Type: TypeRoomMessage, Room: room, Payload: payload}
	for _, c := range conns {
		g.send(c, msg)
	}
}

// ActiveConnections returns the number of currently registered connections.
func (g *Gateway) ActiveConnections() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

func (g *Gateway) subscribe(c *Connection, room string) {
	g.roomsMu.Lock()
	if _, ok := g.rooms[room]; !ok {
		g.rooms[room] = make(map[string]bool)
	}
	g.rooms[room][c.ID] = true
	g.roomsMu.Unlock()
	c.rooms[room] = true
}

func (g *Gateway) unsubscribe(c *Connection, room string) {
	g.roomsMu.Lock()
	if subs, ok := g.rooms[room]; ok {
		delete(subs, c.ID)
		if len(subs) == 0 {
			delete(g.rooms, room)
		}
	}
	g.roomsMu.Unlock()
	delete(c.rooms, room)
}

func (g *Gateway) register(c *Connection) {
	g.mu.Lock()
	g.connections[c.ID] = c
	g.mu.Unlock()
	g.presence.Touch(c.Auth.TenantID, c.Auth.UserID, c.ID, time.Now())
}

func (g *Gateway) unregister(c *Connection) {
	for room := range c.rooms {
		g.unsubscribe(c, room)
	}
	g.mu.Lock()
	delete(g.connections, c.ID)
	g.mu.Unlock()
	g.presence.Remove(c.Auth.TenantID, c.ID)
	_ = c.Conn.Close(websocket.StatusNormalClosure, "")
}

func (g *Gateway) send(c *Connection, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("failed to marshal wsgateway message", "connection_id", c.ID, "error", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(c.ctx, g.writeTimeout)
	defer cancel()
	if err := c.Conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		slog.Warn("failed to send wsgateway message", "connection_id", c.ID, "error", err)
	}
}
