package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"wordoff/config"
	"wordoff/internal/cache"
	"wordoff/internal/model"
	"wordoff/internal/repository"
	"wordoff/internal/words"
)

// GameService orchestrates the session lifecycle. Every mutation runs as
// a read-modify-write cycle under the retrier, so concurrent request
// handlers and the background sweepers coordinate purely through the
// store's version fencing. There is no in-process lock on a session.
type GameService struct {
	sessions repository.SessionRepo
	stats    repository.StatsRepo
	registry cache.ConnectionRegistry
	words    WordSource
	auth     *SpectatorAuth
	retrier  *Retrier

	maxPlayers     int
	maxGuesses     int
	pastAnswersMax int

	broadcaster Broadcaster
}

// NewGameService creates the game service
func NewGameService(
	cfg *config.Config,
	sessions repository.SessionRepo,
	stats repository.StatsRepo,
	registry cache.ConnectionRegistry,
	wordSource WordSource,
	auth *SpectatorAuth,
	retrier *Retrier,
) *GameService {
	return &GameService{
		sessions:       sessions,
		stats:          stats,
		registry:       registry,
		words:          wordSource,
		auth:           auth,
		retrier:        retrier,
		maxPlayers:     cfg.MaxPlayers,
		maxGuesses:     cfg.MaxGuesses,
		pastAnswersMax: cfg.PastAnswersMax,
	}
}

// SetBroadcaster injects the WebSocket hub (implements Broadcaster).
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateSession creates a fresh session with a newly drawn answer and a
// spectator token, under an ID unique among live sessions.
func (s *GameService) CreateSession(ctx context.Context) (*model.GameSession, error) {
	for attempts := 0; attempts < 100; attempts++ {
		id := newSessionID()
		existing, err := s.sessions.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check session id: %w", err)
		}
		if existing != nil {
			continue
		}

		token, err := s.auth.Mint(id)
		if err != nil {
			return nil, fmt.Errorf("failed to mint spectator token: %w", err)
		}

		session := model.NewGameSession(id, s.words.NextRandomAnswer(), token)
		err = s.sessions.Create(ctx, session)
		if err == repository.ErrDuplicateID {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		return session, nil
	}
	return nil, fmt.Errorf("failed to generate a unique session id")
}

// JoinSession adds (or restores) a player. The registry binding is
// established before the session write commits, so a disconnect racing
// the join can still be routed. restored reports whether an existing
// membership was resumed rather than a new slot taken.
func (s *GameService) JoinSession(ctx context.Context, connectionID, sessionID, clientID, name string, restore bool) (session *model.GameSession, restored bool, err error) {
	// A connection switching sessions leaves its old one first.
	if oldSessionID, lookupErr := s.registry.Lookup(ctx, connectionID); lookupErr == nil &&
		oldSessionID != "" && oldSessionID != sessionID {
		if err := s.Disconnect(ctx, connectionID); err != nil {
			log.Printf("Failed to leave session %s during hand-off: %v", oldSessionID, err)
		}
	}

	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		fresh, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return ErrSessionNotFound
		}

		switch fresh.AddPlayer(connectionID, clientID, name, restore, s.maxPlayers) {
		case model.AddPlayerSuccess:
			restored = false
		case model.AddPlayerRestored:
			restored = true
		case model.AddPlayerNameTaken:
			return ErrNameTaken
		case model.AddPlayerSessionFull:
			return ErrSessionFull
		case model.AddPlayerCannotRestore:
			return ErrCannotRestore
		}

		if err := s.registry.Bind(ctx, connectionID, sessionID); err != nil {
			return fmt.Errorf("failed to bind connection: %w", err)
		}
		if err := s.sessions.Update(ctx, fresh); err != nil {
			return err
		}
		session = fresh
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.broadcastState(session)
	return session, restored, nil
}

// ReconnectSession re-attaches a returning player, or admits a spectator
// holding a valid token. Spectators never touch the roster.
func (s *GameService) ReconnectSession(ctx context.Context, connectionID, sessionID, name string, spectator bool, spectatorToken string) (*model.GameSession, error) {
	if spectator {
		session, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
		if err := s.auth.Verify(spectatorToken, sessionID); err != nil {
			return nil, err
		}
		return session, nil
	}

	var session *model.GameSession
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		fresh, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return ErrSessionNotFound
		}
		if fresh.ReconnectPlayer(name, connectionID) {
			if err := s.registry.Bind(ctx, connectionID, sessionID); err != nil {
				return fmt.Errorf("failed to bind connection: %w", err)
			}
			if err := s.sessions.Update(ctx, fresh); err != nil {
				return err
			}
		}
		session = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitGuess validates and records a guess, returning the 1-based round
// number it landed in.
func (s *GameService) SubmitGuess(ctx context.Context, sessionID, name, guess string) (int, error) {
	guess = strings.ToLower(strings.TrimSpace(guess))
	if !s.words.IsValidGuess(guess) {
		return 0, ErrInvalidGuess
	}

	var (
		round   int
		session *model.GameSession
	)
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		fresh, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return ErrSessionNotFound
		}
		round, err = fresh.EnterGuess(name, guess, s.maxGuesses)
		if err != nil {
			return err
		}
		if err := s.sessions.Update(ctx, fresh); err != nil {
			return err
		}
		session = fresh
		return nil
	})
	if err != nil {
		return 0, err
	}

	if statErr := s.stats.RecordWordSubmission(ctx, guess, round); statErr != nil {
		log.Printf("Failed to record word stat for %q: %v", guess, statErr)
	}
	s.broadcastState(session)
	return round, nil
}

// ResetSession rotates the answer and clears every board, then pushes the
// new answer and state to the whole group.
func (s *GameService) ResetSession(ctx context.Context, sessionID string) (*model.GameSession, error) {
	var session *model.GameSession
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		fresh, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return ErrSessionNotFound
		}
		fresh.ResetGame(s.words.NextRandomAnswer, s.pastAnswersMax)
		if err := s.sessions.Update(ctx, fresh); err != nil {
			return err
		}
		session = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(session.ID, EventCurrentAnswer, words.Obfuscate(session.CurrentAnswer()))
	}
	s.broadcastState(session)
	return session, nil
}

// Disconnect handles a transport-level drop: unbind the connection and
// mark its player disconnected so the sweep can evict it later.
func (s *GameService) Disconnect(ctx context.Context, connectionID string) error {
	sessionID, err := s.registry.Unbind(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("failed to unbind connection: %w", err)
	}
	if sessionID == "" {
		return nil
	}

	var session *model.GameSession
	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		fresh, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return nil
		}
		if !fresh.DisconnectPlayer(connectionID) {
			return nil
		}
		if err := s.sessions.Update(ctx, fresh); err != nil {
			return err
		}
		session = fresh
		return nil
	})
	if err != nil {
		return err
	}

	if session != nil {
		s.broadcastState(session)
	}
	return nil
}

// SessionExists reports whether the session ID refers to a live session.
func (s *GameService) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

// GetSession returns the current session snapshot.
func (s *GameService) GetSession(ctx context.Context, sessionID string) (*model.GameSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// AllSessions lists every live session (admin surface).
func (s *GameService) AllSessions(ctx context.Context) ([]*model.GameSession, error) {
	return s.sessions.All(ctx)
}

// MarkAllPlayersDisconnected runs the server-restart recovery pass: every
// previously connected player is marked disconnected with a grace
// deadline, since their connections did not survive the restart.
func (s *GameService) MarkAllPlayersDisconnected(ctx context.Context) error {
	sessions, err := s.sessions.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan sessions: %w", err)
	}
	for _, stale := range sessions {
		id := stale.ID
		err := s.retrier.Do(ctx, func(ctx context.Context) error {
			fresh, err := s.sessions.Get(ctx, id)
			if err != nil {
				return err
			}
			if fresh == nil {
				return nil
			}
			if !fresh.TreatAllPlayersAsDisconnected() {
				return nil
			}
			return s.sessions.Update(ctx, fresh)
		})
		if err != nil {
			log.Printf("Failed restart recovery for session %s: %v", id, err)
		}
	}
	return nil
}

func (s *GameService) broadcastState(session *model.GameSession) {
	if s.broadcaster == nil || session == nil {
		return
	}
	s.broadcaster.Broadcast(session.ID, EventGameState, session.Players)
}

// FullWords returns the compressed accepted-word list for client-side
// input validation.
func (s *GameService) FullWords() []byte {
	return s.words.CompressedFullWords()
}

// ObfuscatedAnswer wraps the current answer for client delivery.
func (s *GameService) ObfuscatedAnswer(session *model.GameSession) string {
	return words.Obfuscate(session.CurrentAnswer())
}

// newSessionID builds a shareable ID of three 3-digit groups. Groups with
// three identical digits are rerolled; some players consider them a bad
// omen.
func newSessionID() string {
	groups := make([]byte, 0, 11)
	for i := 0; i < 3; i++ {
		var n int
		for {
			n = 100 + rand.Intn(900)
			if !(n%10 == (n/10)%10 && n%10 == n/100) {
				break
			}
		}
		if i > 0 {
			groups = append(groups, '-')
		}
		groups = append(groups, fmt.Sprintf("%03d", n)...)
	}
	return string(groups)
}
