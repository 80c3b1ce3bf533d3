package service

// Broadcaster interface for WebSocket fan-out (avoids import cycle with
// the transport package). Both calls are fire-and-forget: a failed or slow
// delivery never rolls back a committed state change.
type Broadcaster interface {
	Broadcast(sessionID string, event string, payload interface{})
	SendTo(connectionID string, event string, payload interface{})
}

// Server event names pushed over the transport.
const (
	EventSessionCreated = "session_created"
	EventSessionFound   = "session_found"
	EventCurrentAnswer  = "current_answer"
	EventGameState      = "game_state"
	EventJoinError      = "join_error"
	EventFullWords      = "full_words"
	EventError          = "error"
)

// WordSource is the word-corpus collaborator.
type WordSource interface {
	NextRandomAnswer() string
	IsValidGuess(word string) bool
	CompressedFullWords() []byte
}
