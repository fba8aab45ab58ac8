package realtime

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Conn is one registered live connection. Outbound frames are queued on Send;
// the socket's write pump drains it and exits when it is closed.
type Conn struct {
	UserID string
	Send   chan []byte

	closed bool
}

// Registry tracks at most one live connection per user. A second connection
// for the same user supersedes the first: the old Send channel is closed so
// its pump tears the old socket down.
//
// Send channels are only ever closed while the write lock is held, and frames
// are only pushed while a read lock is held, so a push can never race a
// close.
type Registry struct {
	mu      sync.RWMutex
	conns   map[string]*Conn
	bufSize int
}

// NewRegistry creates a registry whose connections buffer bufSize outbound
// frames each.
func NewRegistry(bufSize int) *Registry {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Registry{
		conns:   make(map[string]*Conn),
		bufSize: bufSize,
	}
}

// Register adds a connection for userID, superseding any existing one. It
// reports whether the user was offline before this call, so the caller knows
// whether to announce an online transition.
func (r *Registry) Register(userID string) (c *Conn, wasOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.conns[userID]; ok {
		r.closeLocked(old)
	} else {
		wasOffline = true
	}
	c = &Conn{UserID: userID, Send: make(chan []byte, r.bufSize)}
	r.conns[userID] = c
	return c, wasOffline
}

// Unregister removes c if it is still the user's current connection. A
// superseded or already-removed connection is a no-op, so pumps can call it
// unconditionally on exit. It reports whether the user went offline as a
// result.
func (r *Registry) Unregister(c *Conn) (wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[c.UserID]; ok && cur == c {
		delete(r.conns, c.UserID)
		r.closeLocked(c)
		return true
	}
	return false
}

func (r *Registry) closeLocked(c *Conn) {
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// push queues one frame, dropping it when the connection's buffer is full. A
// slow consumer loses frames rather than stalling the sender.
func push(c *Conn, msg []byte) {
	select {
	case c.Send <- msg:
	default:
		log.Warn().Str("user_id", c.UserID).Msg("dropping frame for slow websocket consumer")
	}
}

// Broadcast queues msg for every connected user.
func (r *Registry) Broadcast(msg []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conns {
		push(c, msg)
	}
}

// BroadcastExcept queues msg for every connected user but exceptID.
func (r *Registry) BroadcastExcept(exceptID string, msg []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.conns {
		if id == exceptID {
			continue
		}
		push(c, msg)
	}
}

// SendToUser queues msg for one user if they are connected.
func (r *Registry) SendToUser(userID string, msg []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.conns[userID]; ok {
		push(c, msg)
	}
}

// IsOnline reports whether the user has a live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// Online returns the ids of all connected users.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
