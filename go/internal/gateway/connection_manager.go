package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/sizeup/go/internal/estimation"
)

// EventSink receives decoded participant events from connections. The
// estimation App implements it.
type EventSink interface {
	Join(sessionID, connID, username string)
	StartVoting(sessionID string)
	SubmitVote(sessionID, connID string, vote estimation.Size)
	Disconnect(connID string)
}

// ConnectionManager owns all live WebSocket connections and the
// per-session rooms they join. It implements estimation.Broadcaster so
// the core never touches raw connections.
type ConnectionManager struct {
	// Connection pools organized by session id
	sessionConnections map[string]map[*Connection]bool
	connections        map[*Connection]bool
	mu                 sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	sink     EventSink

	broadcastCh chan broadcastMessage
}

// Connection represents a WebSocket connection to a client. One
// connection may join any number of session rooms.
//
// Send is never closed: the broadcast loop writes to it without holding
// the manager lock, so closing it on departure would race those writes.
// Teardown is signaled through done instead.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	done    chan struct{}
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds tuning for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	sessionID string
	event     *estimation.Event
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		sessionConnections: make(map[string]map[*Connection]bool),
		connections:        make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// SetEventSink wires the core that inbound messages dispatch to. Must
// be called once, before the manager starts accepting connections.
func (cm *ConnectionManager) SetEventSink(sink EventSink) {
	cm.sink = sink
}

// Start begins processing broadcast messages until the context ends.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Broadcast implements estimation.Broadcaster. Events are queued to the
// broadcast loop; when the queue is full the event is dropped rather
// than blocking a session mutation.
func (cm *ConnectionManager) Broadcast(sessionID string, event *estimation.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{sessionID: sessionID, event: event}:
	default:
		log.Warn().Str("session_id", sessionID).Msg("broadcast channel full, dropping event")
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection
// and starts its read/write pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return err
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		done:        make(chan struct{}),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("conn_id", connection.ID).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

// registerConnection adds a connection to the manager.
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn] = true
}

// joinSession adds a connection to a session room so it receives that
// session's broadcasts.
func (cm *ConnectionManager) joinSession(conn *Connection, sessionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.sessionConnections[sessionID] == nil {
		cm.sessionConnections[sessionID] = make(map[*Connection]bool)
	}
	cm.sessionConnections[sessionID][conn] = true

	log.Debug().
		Str("conn_id", conn.ID).
		Str("session_id", sessionID).
		Int("room_size", len(cm.sessionConnections[sessionID])).
		Msg("connection joined session room")
}

// unregisterConnection removes a connection from the manager and every
// room it joined, then reports the departure to the core. Safe to call
// from both pumps; only the first call has any effect.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	if _, ok := cm.connections[conn]; !ok {
		cm.mu.Unlock()
		return
	}
	delete(cm.connections, conn)

	for sessionID, room := range cm.sessionConnections {
		if _, ok := room[conn]; !ok {
			continue
		}
		delete(room, conn)
		if len(room) == 0 {
			delete(cm.sessionConnections, sessionID)
		}
	}
	close(conn.done)
	cm.mu.Unlock()

	log.Info().Str("conn_id", conn.ID).Msg("connection unregistered")

	if cm.sink != nil {
		cm.sink.Disconnect(conn.ID)
	}
}

// handleBroadcast fans an event out to every member of a session room.
func (cm *ConnectionManager) handleBroadcast(message broadcastMessage) {
	cm.mu.RLock()
	room, exists := cm.sessionConnections[message.sessionID]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	// Snapshot the room to avoid holding the lock during writes
	targets := make([]*Connection, 0, len(room))
	for conn := range room {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	data, err := json.Marshal(message.event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		case <-conn.done:
			// Departed while the room snapshot was in flight
		default:
			// Connection is slow/dead, close it
			log.Warn().Str("conn_id", conn.ID).Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", string(message.event.Type)).
		Str("session_id", message.sessionID).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// Stats returns counts of active connections and rooms.
func (cm *ConnectionManager) Stats() (totalConnections, activeSessions int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections), len(cm.sessionConnections)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("conn_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-c.done:
			// Connection was unregistered
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("conn_id", c.ID).Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump reads inbound messages and dispatches them to the core. A
// read error of any kind is treated as a full departure.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("conn_id", c.ID).Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage decodes a client message and routes it to the
// event sink. Malformed or unknown messages are logged and dropped.
func (c *Connection) handleClientMessage(message []byte) {
	msg, err := parseClientMessage(message)
	if err != nil {
		log.Warn().
			Err(err).
			Str("conn_id", c.ID).
			Msg("dropping malformed client message")
		return
	}

	sink := c.Manager.sink
	if sink == nil {
		return
	}

	switch msg.Type {
	case MessageJoinSession:
		c.Manager.joinSession(c, msg.SessionID)
		sink.Join(msg.SessionID, c.ID, msg.Username)

	case MessageStartVoting:
		sink.StartVoting(msg.SessionID)

	case MessageSubmitVote:
		size, ok := estimation.ParseSize(msg.Vote)
		if !ok {
			log.Warn().
				Str("conn_id", c.ID).
				Str("vote", msg.Vote).
				Msg("dropping vote with unknown size token")
			return
		}
		sink.SubmitVote(msg.SessionID, c.ID, size)
	}
}
