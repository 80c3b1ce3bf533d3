package model

import "errors"

var (
	ErrPlayerNotFound = errors.New("player not found in session")
	ErrMaxGuesses     = errors.New("maximum number of guesses reached")
)
