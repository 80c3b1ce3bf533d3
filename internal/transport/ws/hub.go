package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client message types
const (
	MsgCreateSession = "create_session"
	MsgJoinSession   = "join_session"
	MsgReconnect     = "reconnect"
	MsgSubmitGuess   = "submit_guess"
	MsgResetSession  = "reset_session"
	MsgSearchSession = "search_session"
	MsgRequestWords  = "request_words"
)

// Hub manages WebSocket connections and their session groups
type Hub struct {
	// connection ID -> connection
	conns map[string]*Connection
	// session ID -> connection ID -> connection
	groups map[string]map[string]*Connection

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	ID        string
	SessionID string // group membership, empty until the client joins
	Send      chan []byte
	Hub       *Hub
}

type broadcastMessage struct {
	SessionID    string // group fan-out target
	ConnectionID string // unicast target, takes precedence when set
	Message      *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]*Connection),
		groups:     make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn.ID] = conn
			h.mu.Unlock()
			log.Printf("Connection %s registered", conn.ID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.conns[conn.ID]; ok && existing == conn {
				h.removeFromGroup(conn)
				delete(h.conns, conn.ID)
				close(conn.Send)
				log.Printf("Connection %s unregistered", conn.ID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if msg.ConnectionID != "" {
				if conn, ok := h.conns[msg.ConnectionID]; ok {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			} else if group, ok := h.groups[msg.SessionID]; ok {
				for _, conn := range group {
					select {
					case conn.Send <- data:
					default:
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection and its group membership
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// JoinGroup moves a connection into a session's broadcast group,
// leaving any previous group first.
func (h *Hub) JoinGroup(connectionID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connectionID]
	if !ok {
		return
	}
	h.removeFromGroup(conn)

	if h.groups[sessionID] == nil {
		h.groups[sessionID] = make(map[string]*Connection)
	}
	h.groups[sessionID][connectionID] = conn
	conn.SessionID = sessionID
}

// LeaveGroup removes a connection from its session group.
func (h *Hub) LeaveGroup(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.conns[connectionID]; ok {
		h.removeFromGroup(conn)
	}
}

// removeFromGroup requires h.mu held.
func (h *Hub) removeFromGroup(conn *Connection) {
	if conn.SessionID == "" {
		return
	}
	if group, ok := h.groups[conn.SessionID]; ok {
		delete(group, conn.ID)
		if len(group) == 0 {
			delete(h.groups, conn.SessionID)
		}
	}
	conn.SessionID = ""
}

// Broadcast sends an event to every connection in a session's group
// (implements service.Broadcaster)
func (h *Hub) Broadcast(sessionID string, event string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &broadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    event,
			Payload: data,
		},
	}
}

// SendTo sends an event to a single connection (implements
// service.Broadcaster)
func (h *Hub) SendTo(connectionID string, event string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &broadcastMessage{
		ConnectionID: connectionID,
		Message: &Message{
			Type:    event,
			Payload: data,
		},
	}
}
