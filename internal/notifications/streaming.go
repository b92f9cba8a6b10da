package notifications

import (
	"sync"
	"time"

	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
	"foodcourt/pkg/metrics"
)

// StreamEvent is the frame pushed to streaming subscribers. Type discriminates
// connection acks, heartbeats and notification payloads.
type StreamEvent struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	StreamEventConnected    = "connected"
	StreamEventHeartbeat    = "heartbeat"
	StreamEventNotification = "notification"
)

// Connection is a single live subscriber. Events is a buffered sink drained
// by the transport loop; a full buffer marks the subscriber dead.
type Connection struct {
	ID          string
	UserID      string
	Events      chan StreamEvent
	ConnectedAt time.Time

	done     chan struct{}
	doneOnce sync.Once
}

// Done is closed when the connection is evicted from the registry.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) close() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Registry tracks live streaming connections and fans notification events out
// to them. A connection that cannot accept a write is evicted; the rest of
// the registry is untouched.
type Registry struct {
	mu                sync.RWMutex
	conns             map[string]*Connection
	heartbeatInterval time.Duration
	log               logger.Logger
}

func NewRegistry(heartbeatInterval time.Duration, log logger.Logger) *Registry {
	if heartbeatInterval <= 0 {
		heartbeatInterval = constants.DefaultHeartbeatInterval
	}
	return &Registry{
		conns:             make(map[string]*Connection),
		heartbeatInterval: heartbeatInterval,
		log:               log,
	}
}

// Register adds a connection for the given user and starts its heartbeat
// loop. The heartbeat stops on its own once the connection leaves the
// registry.
func (r *Registry) Register(connID, userID string) *Connection {
	conn := &Connection{
		ID:          connID,
		UserID:      userID,
		Events:      make(chan StreamEvent, constants.StreamBufferSize),
		ConnectedAt: time.Now(),
		done:        make(chan struct{}),
	}

	r.mu.Lock()
	r.conns[connID] = conn
	total := len(r.conns)
	r.mu.Unlock()

	metrics.StreamingConnections.Set(float64(total))
	r.log.Infow("Streaming connection registered",
		"connection_id", connID,
		"user_id", userID,
		"active_connections", total,
	)

	go r.heartbeatLoop(conn)
	return conn
}

// Unregister removes a connection. Safe to call more than once.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	conn, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	total := len(r.conns)
	r.mu.Unlock()

	if !ok {
		return
	}
	conn.close()
	metrics.StreamingConnections.Set(float64(total))
	r.log.Infow("Streaming connection closed",
		"connection_id", connID,
		"user_id", conn.UserID,
		"active_connections", total,
	)
}

// BroadcastToUser pushes an event to every connection owned by userID. The
// wildcard target reaches every connection, and connections registered with
// the wildcard user receive every broadcast. Returns how many connections
// accepted the event and how many were evicted for refusing it.
func (r *Registry) BroadcastToUser(userID string, event StreamEvent) (sent, failed int) {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		if userID == constants.BroadcastAllUsers ||
			conn.UserID == constants.BroadcastAllUsers ||
			conn.UserID == userID {
			targets = append(targets, conn)
		}
	}
	r.mu.RUnlock()

	for _, conn := range targets {
		if r.tryPush(conn, event) {
			sent++
			metrics.StreamingEventsTotal.WithLabelValues("sent").Inc()
		} else {
			failed++
			metrics.StreamingEventsTotal.WithLabelValues("failed").Inc()
			r.log.Warnw("Evicting unresponsive streaming connection",
				"connection_id", conn.ID,
				"user_id", conn.UserID,
			)
			r.Unregister(conn.ID)
		}
	}
	return sent, failed
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CountForUser returns the number of live connections owned by userID.
func (r *Registry) CountForUser(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, conn := range r.conns {
		if conn.UserID == userID {
			n++
		}
	}
	return n
}

func (r *Registry) tryPush(conn *Connection, event StreamEvent) bool {
	select {
	case conn.Events <- event:
		return true
	default:
		return false
	}
}

func (r *Registry) heartbeatLoop(conn *Connection) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.Done():
			return
		case <-ticker.C:
			r.mu.RLock()
			_, alive := r.conns[conn.ID]
			r.mu.RUnlock()
			if !alive {
				return
			}
			if !r.tryPush(conn, StreamEvent{Type: StreamEventHeartbeat, Timestamp: time.Now()}) {
				r.Unregister(conn.ID)
				return
			}
		}
	}
}
