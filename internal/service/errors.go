package service

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNameTaken       = errors.New("player name already taken by another client")
	ErrSessionFull     = errors.New("session is full")
	ErrCannotRestore   = errors.New("no matching player to restore")
	ErrInvalidGuess    = errors.New("word is not in the accepted list")
	ErrInvalidToken    = errors.New("invalid or expired spectator token")

	// ErrRetryExhausted means an operation kept losing version races past
	// the retry budget. The session is left unmodified by the operation
	// and the client may safely retry.
	ErrRetryExhausted = errors.New("operation abandoned after repeated version conflicts")
)
