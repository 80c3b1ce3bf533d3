package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"wordoff/internal/model"
	"wordoff/internal/service"
)

func newTestConnection(hub *Hub, id string) *Connection {
	conn := &Connection{
		ID:   id,
		Send: make(chan []byte, 16),
		Hub:  hub,
	}
	hub.Register(conn)
	waitRegistered(hub, id)
	return conn
}

// Registration completes on the hub goroutine; wait for it to land.
func waitRegistered(hub *Hub, id string) {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		_, ok := hub.conns[id]
		hub.mu.RUnlock()
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	panic(fmt.Sprintf("connection %s never registered", id))
}

func recvMessage(t *testing.T, conn *Connection) *Message {
	t.Helper()
	select {
	case data := <-conn.Send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("malformed message: %v", err)
		}
		return &msg
	case <-time.After(time.Second):
		t.Fatalf("connection %s received nothing", conn.ID)
		return nil
	}
}

func assertSilent(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case data := <-conn.Send:
		t.Fatalf("connection %s unexpectedly received %s", conn.ID, data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubGroupFanOut(t *testing.T) {
	hub := NewHub()
	alice := newTestConnection(hub, "conn-alice")
	bob := newTestConnection(hub, "conn-bob")
	outsider := newTestConnection(hub, "conn-outsider")

	hub.JoinGroup(alice.ID, "111-222-333")
	hub.JoinGroup(bob.ID, "111-222-333")

	hub.Broadcast("111-222-333", service.EventGameState, map[string]int{"players": 2})

	for _, conn := range []*Connection{alice, bob} {
		msg := recvMessage(t, conn)
		if msg.Type != service.EventGameState {
			t.Errorf("%s: expected %s, got %s", conn.ID, service.EventGameState, msg.Type)
		}
	}
	assertSilent(t, outsider)
}

func TestHubSendTo(t *testing.T) {
	hub := NewHub()
	alice := newTestConnection(hub, "conn-alice")
	bob := newTestConnection(hub, "conn-bob")
	hub.JoinGroup(alice.ID, "111-222-333")
	hub.JoinGroup(bob.ID, "111-222-333")

	hub.SendTo(alice.ID, service.EventCurrentAnswer, "scrambled")

	msg := recvMessage(t, alice)
	if msg.Type != service.EventCurrentAnswer {
		t.Errorf("expected %s, got %s", service.EventCurrentAnswer, msg.Type)
	}
	assertSilent(t, bob)
}

func TestHubJoinGroupLeavesPrevious(t *testing.T) {
	hub := NewHub()
	alice := newTestConnection(hub, "conn-alice")

	hub.JoinGroup(alice.ID, "111-222-333")
	hub.JoinGroup(alice.ID, "444-555-666")

	hub.Broadcast("111-222-333", service.EventGameState, nil)
	assertSilent(t, alice)

	hub.Broadcast("444-555-666", service.EventGameState, nil)
	recvMessage(t, alice)
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	alice := newTestConnection(hub, "conn-alice")
	hub.JoinGroup(alice.ID, "111-222-333")

	hub.Unregister(alice)

	// The send channel closes once the hub drops the connection.
	deadline := time.Now().Add(time.Second)
	for {
		select {
		case _, ok := <-alice.Send:
			if !ok {
				return
			}
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("send channel never closed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{service.ErrSessionNotFound, "session_not_found"},
		{service.ErrNameTaken, "name_taken"},
		{service.ErrSessionFull, "session_full"},
		{service.ErrCannotRestore, "cannot_restore"},
		{service.ErrInvalidGuess, "invalid_guess"},
		{service.ErrInvalidToken, "invalid_spectator_token"},
		{model.ErrPlayerNotFound, "player_not_found"},
		{model.ErrMaxGuesses, "max_guesses_reached"},
		{service.ErrRetryExhausted, "try_again"},
		{fmt.Errorf("wrapped: %w", service.ErrRetryExhausted), "try_again"},
		{errors.New("surprise"), "internal_error"},
	}
	for _, tc := range cases {
		if got := errorCode(tc.err); got != tc.code {
			t.Errorf("errorCode(%v) = %s, want %s", tc.err, got, tc.code)
		}
	}
}
