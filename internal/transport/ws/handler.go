package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wordoff/internal/model"
	"wordoff/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2048
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Same-origin enforcement happens at the proxy
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub  *Hub
	game *service.GameService
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, game *service.GameService) *Handler {
	return &Handler{
		hub:  hub,
		game: game,
	}
}

type joinPayload struct {
	SessionID    string `json:"sessionId"`
	ClientID     string `json:"clientId"`
	Name         string `json:"name"`
	Restore      bool   `json:"restore"`
	RequestWords bool   `json:"requestWords"`
}

type reconnectPayload struct {
	SessionID      string `json:"sessionId"`
	Name           string `json:"name"`
	Spectator      bool   `json:"spectator"`
	SpectatorToken string `json:"spectatorToken"`
}

type guessPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Guess     string `json:"guess"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type sessionCreatedPayload struct {
	SessionID      string `json:"sessionId"`
	SpectatorToken string `json:"spectatorToken"`
}

type sessionFoundPayload struct {
	SessionID string `json:"sessionId"`
	Exists    bool   `json:"exists"`
}

type errorPayload struct {
	Code string `json:"code"`
}

// ServeWS handles GET /v1/ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
		Hub:  h.hub,
	}
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.game.Disconnect(ctx, conn.ID); err != nil {
			log.Printf("Disconnect handling for %s failed: %v", conn.ID, err)
		}
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: "bad_message"})
			continue
		}
		h.dispatch(conn, &msg)
	}
}

func (h *Handler) dispatch(conn *Connection, msg *Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch msg.Type {
	case MsgCreateSession:
		h.handleCreate(ctx, conn)
	case MsgJoinSession:
		h.handleJoin(ctx, conn, msg.Payload)
	case MsgReconnect:
		h.handleReconnect(ctx, conn, msg.Payload)
	case MsgSubmitGuess:
		h.handleGuess(ctx, conn, msg.Payload)
	case MsgResetSession:
		h.handleReset(ctx, conn, msg.Payload)
	case MsgSearchSession:
		h.handleSearch(ctx, conn, msg.Payload)
	case MsgRequestWords:
		h.hub.SendTo(conn.ID, service.EventFullWords, h.game.FullWords())
	default:
		h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: "unknown_message_type"})
	}
}

func (h *Handler) handleCreate(ctx context.Context, conn *Connection) {
	session, err := h.game.CreateSession(ctx)
	if err != nil {
		log.Printf("Create session failed: %v", err)
		h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: "create_failed"})
		return
	}
	h.hub.SendTo(conn.ID, service.EventSessionCreated, sessionCreatedPayload{
		SessionID:      session.ID,
		SpectatorToken: session.SpectatorToken,
	})
}

func (h *Handler) handleJoin(ctx context.Context, conn *Connection, payload json.RawMessage) {
	var req joinPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: "bad_payload"})
		return
	}

	// Group membership first, so the state broadcast triggered by the
	// join reaches the joiner too.
	h.hub.JoinGroup(conn.ID, req.SessionID)

	session, _, err := h.game.JoinSession(ctx, conn.ID, req.SessionID, req.ClientID, req.Name, req.Restore)
	if err != nil {
		h.hub.LeaveGroup(conn.ID)
		h.sendJoinError(conn, err)
		return
	}

	if req.RequestWords {
		h.hub.SendTo(conn.ID, service.EventFullWords, h.game.FullWords())
	}
	h.hub.SendTo(conn.ID, service.EventCurrentAnswer, h.game.ObfuscatedAnswer(session))
}

func (h *Handler) handleReconnect(ctx context.Context, conn *Connection, payload json.RawMessage) {
	var req reconnectPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: "bad_payload"})
		return
	}

	session, err := h.game.ReconnectSession(ctx, conn.ID, req.SessionID, req.Name, req.Spectator, req.SpectatorToken)
	if err != nil {
		h.sendJoinError(conn, err)
		return
	}

	h.hub.JoinGroup(conn.ID, req.SessionID)
	h.hub.SendTo(conn.ID, service.EventCurrentAnswer, h.game.ObfuscatedAnswer(session))
	h.hub.SendTo(conn.ID, service.EventGameState, session.Players)
}

func (h *Handler) handleGuess(ctx context.Context, conn *Connection, payload json.RawMessage) {
	var req guessPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: "bad_payload"})
		return
	}

	if _, err := h.game.SubmitGuess(ctx, req.SessionID, req.Name, req.Guess); err != nil {
		h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: errorCode(err)})
	}
}

func (h *Handler) handleReset(ctx context.Context, conn *Connection, payload json.RawMessage) {
	var req sessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: "bad_payload"})
		return
	}

	if _, err := h.game.ResetSession(ctx, req.SessionID); err != nil {
		h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: errorCode(err)})
	}
}

func (h *Handler) handleSearch(ctx context.Context, conn *Connection, payload json.RawMessage) {
	var req sessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: "bad_payload"})
		return
	}

	exists, err := h.game.SessionExists(ctx, req.SessionID)
	if err != nil {
		h.hub.SendTo(conn.ID, service.EventError, errorPayload{Code: "search_failed"})
		return
	}
	h.hub.SendTo(conn.ID, service.EventSessionFound, sessionFoundPayload{
		SessionID: req.SessionID,
		Exists:    exists,
	})
}

// sendJoinError delivers join failures to the requesting connection only;
// they are never broadcast to the group.
func (h *Handler) sendJoinError(conn *Connection, err error) {
	h.hub.SendTo(conn.ID, service.EventJoinError, errorPayload{Code: errorCode(err)})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, service.ErrNameTaken):
		return "name_taken"
	case errors.Is(err, service.ErrSessionFull):
		return "session_full"
	case errors.Is(err, service.ErrCannotRestore):
		return "cannot_restore"
	case errors.Is(err, service.ErrInvalidGuess):
		return "invalid_guess"
	case errors.Is(err, service.ErrInvalidToken):
		return "invalid_spectator_token"
	case errors.Is(err, model.ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, model.ErrMaxGuesses):
		return "max_guesses_reached"
	case errors.Is(err, service.ErrRetryExhausted):
		return "try_again"
	default:
		return "internal_error"
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
