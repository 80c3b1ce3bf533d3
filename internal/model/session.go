package model

import (
	"time"
)

// AddPlayerResult is the outcome of a join attempt.
type AddPlayerResult int

const (
	AddPlayerSuccess AddPlayerResult = iota
	AddPlayerRestored
	AddPlayerNameTaken
	AddPlayerSessionFull
	AddPlayerCannotRestore
)

// AnswerFunc draws the next random answer from the word corpus.
type AnswerFunc func() string

// PlayerData is one player's state within a session.
type PlayerData struct {
	// Index is assigned as max(existing)+1 and never reused, so clients
	// keep stable board positions and colors across the session lifetime.
	Index          int        `json:"index" bson:"index"`
	ClientID       string     `json:"-" bson:"clientId"`
	ConnectionID   string     `json:"-" bson:"connectionId"`
	Guesses        []string   `json:"guesses" bson:"guesses"`
	DisconnectedAt *time.Time `json:"disconnectedAt,omitempty" bson:"disconnectedAt,omitempty"`
}

// GuessedCorrectly reports whether the player's latest guess matches answer.
func (p *PlayerData) GuessedCorrectly(answer string) bool {
	return len(p.Guesses) > 0 && p.Guesses[len(p.Guesses)-1] == answer
}

// GameSession is one shared game instance. It carries no locks: every
// mutation goes through the version-fenced store write, which also keeps
// the design correct when multiple server instances share the store.
type GameSession struct {
	ID             string                 `json:"id" bson:"_id"`
	Players        map[string]*PlayerData `json:"players" bson:"players"`
	PastAnswers    []string               `json:"-" bson:"pastAnswers"`
	SpectatorToken string                 `json:"-" bson:"spectatorToken"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`

	// GameStartedAt is the first guess of the round in progress; the zero
	// time means no round is in progress.
	GameStartedAt time.Time `json:"-" bson:"gameStartedAt"`

	TotalGameTimeSeconds  int `json:"-" bson:"totalGameTimeSeconds"`
	TotalGamesPlayed      int `json:"-" bson:"totalGamesPlayed"`
	TotalPlayersConnected int `json:"-" bson:"totalPlayersConnected"`
	MaxPlayersConnected   int `json:"-" bson:"maxPlayersConnected"`

	// Version is the store's fencing token. The repository rejects any
	// write whose Version does not match the stored document.
	Version int64 `json:"-" bson:"version"`
}

// NewGameSession creates a session with its first answer already drawn.
func NewGameSession(id, answer, spectatorToken string) *GameSession {
	now := time.Now().UTC()
	return &GameSession{
		ID:             id,
		Players:        make(map[string]*PlayerData),
		PastAnswers:    []string{answer},
		SpectatorToken: spectatorToken,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CurrentAnswer is the most recently appended answer.
func (s *GameSession) CurrentAnswer() string {
	return s.PastAnswers[len(s.PastAnswers)-1]
}

// AddPlayer joins a new player, or restores a dropped connection when the
// name is already taken by the same client identity. restore is set when
// the client expects to resume a previous membership; if no matching name
// exists the join is refused so a stale client doesn't grab a fresh slot.
func (s *GameSession) AddPlayer(connectionID, clientID, name string, restore bool, maxPlayers int) AddPlayerResult {
	if existing, ok := s.Players[name]; ok {
		if existing.ClientID != clientID {
			return AddPlayerNameTaken
		}
		existing.ConnectionID = connectionID
		existing.DisconnectedAt = nil
		s.UpdatedAt = time.Now().UTC()
		return AddPlayerRestored
	}
	if restore {
		return AddPlayerCannotRestore
	}
	if len(s.Players) >= maxPlayers {
		return AddPlayerSessionFull
	}

	now := time.Now().UTC()
	if len(s.Players) == 0 {
		s.GameStartedAt = time.Time{}
	}
	s.Players[name] = &PlayerData{
		Index:        s.maxIndex() + 1,
		ClientID:     clientID,
		ConnectionID: connectionID,
		Guesses:      []string{},
	}
	s.UpdatedAt = now
	s.TotalPlayersConnected++
	if s.MaxPlayersConnected < len(s.Players) {
		s.MaxPlayersConnected = len(s.Players)
	}
	return AddPlayerSuccess
}

// ReconnectPlayer points an existing player at a new connection.
// Returns false when the name is not in the roster.
func (s *GameSession) ReconnectPlayer(name, newConnectionID string) bool {
	player, ok := s.Players[name]
	if !ok {
		return false
	}
	player.ConnectionID = newConnectionID
	player.DisconnectedAt = nil
	s.UpdatedAt = time.Now().UTC()
	return true
}

// DisconnectPlayer marks the player owning connectionID as disconnected.
// At most one player holds a given connection.
func (s *GameSession) DisconnectPlayer(connectionID string) bool {
	now := time.Now().UTC()
	for _, player := range s.Players {
		if player.ConnectionID == connectionID {
			player.DisconnectedAt = &now
			s.UpdatedAt = now
			return true
		}
	}
	return false
}

// TreatAllPlayersAsDisconnected marks every connected player as dropped
// with a one minute grace deadline. Used after a server restart, when all
// previous connections are gone but clients should get time to reconnect
// before the sweep evicts them.
func (s *GameSession) TreatAllPlayersAsDisconnected() bool {
	now := time.Now().UTC()
	grace := now.Add(60 * time.Second)
	updated := false
	for _, player := range s.Players {
		if player.DisconnectedAt == nil {
			deadline := grace
			player.DisconnectedAt = &deadline
			updated = true
			s.UpdatedAt = now
		}
	}
	return updated
}

// EnterGuess appends a guess to the named player's history and returns the
// 1-based round number. The first guess across the whole roster starts the
// round clock. A guess also counts as connection activity.
func (s *GameSession) EnterGuess(name, word string, maxGuesses int) (int, error) {
	player, ok := s.Players[name]
	if !ok {
		return 0, ErrPlayerNotFound
	}
	if len(player.Guesses) >= maxGuesses {
		return 0, ErrMaxGuesses
	}

	now := time.Now().UTC()
	if !s.roundInProgress() {
		s.GameStartedAt = now
		s.TotalGamesPlayed++
	}
	player.Guesses = append(player.Guesses, word)
	player.DisconnectedAt = nil
	s.UpdatedAt = now
	return len(player.Guesses), nil
}

// ResetGame rotates to a fresh answer and clears every player's board,
// folding the finished round's elapsed time into the session total.
func (s *GameSession) ResetGame(next AnswerFunc, pastAnswersMax int) {
	s.rotateAnswer(next, pastAnswersMax)
	for _, player := range s.Players {
		player.Guesses = []string{}
	}
	s.foldGameTime()
	s.GameStartedAt = time.Time{}
	s.UpdatedAt = time.Now().UTC()
}

// RemoveDisconnected evicts every player disconnected longer than expiry.
// When the eviction empties the roster the answer rotates so the next
// group doesn't inherit a half-played word. Returns whether anything
// changed.
func (s *GameSession) RemoveDisconnected(next AnswerFunc, pastAnswersMax int, expiry time.Duration) bool {
	now := time.Now().UTC()
	var evict []string
	for name, player := range s.Players {
		if player.DisconnectedAt != nil && now.Sub(*player.DisconnectedAt) > expiry {
			evict = append(evict, name)
		}
	}
	for _, name := range evict {
		delete(s.Players, name)
	}
	if len(s.Players) == 0 && len(evict) > 0 {
		s.rotateAnswer(next, pastAnswersMax)
		s.foldGameTime()
		s.GameStartedAt = time.Time{}
		s.UpdatedAt = now
	}
	return len(evict) > 0
}

// Expired reports whether the session has been inactive beyond expiry.
// This is a much coarser timescale than per-player disconnect eviction.
func (s *GameSession) Expired(expiry time.Duration) bool {
	return time.Now().UTC().Sub(s.UpdatedAt) > expiry
}

// PrepForRemoval folds an in-progress round's elapsed time before the
// session is destroyed while players are still in the roster.
func (s *GameSession) PrepForRemoval() {
	if len(s.Players) > 0 {
		s.foldGameTime()
	}
}

func (s *GameSession) rotateAnswer(next AnswerFunc, pastAnswersMax int) {
	var answer string
	for {
		answer = next()
		if !s.answerUsed(answer) {
			break
		}
	}
	s.PastAnswers = append(s.PastAnswers, answer)
	for len(s.PastAnswers) > pastAnswersMax {
		s.PastAnswers = s.PastAnswers[1:]
	}
}

func (s *GameSession) answerUsed(word string) bool {
	for _, past := range s.PastAnswers {
		if past == word {
			return true
		}
	}
	return false
}

func (s *GameSession) foldGameTime() {
	if !s.GameStartedAt.IsZero() {
		elapsed := s.UpdatedAt.Sub(s.GameStartedAt)
		s.TotalGameTimeSeconds += int(elapsed.Round(time.Second).Seconds())
	}
}

func (s *GameSession) roundInProgress() bool {
	for _, player := range s.Players {
		if len(player.Guesses) > 0 {
			return true
		}
	}
	return false
}

func (s *GameSession) maxIndex() int {
	max := 0
	for _, player := range s.Players {
		if player.Index > max {
			max = player.Index
		}
	}
	return max
}
