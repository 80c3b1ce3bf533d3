package service

import (
	"context"
	"log"
	"sync"
	"time"

	"wordoff/config"
	"wordoff/internal/cache"
	"wordoff/internal/model"
	"wordoff/internal/repository"
)

// Sweeper runs the two background eviction loops: a short-period sweep
// that removes players disconnected past the grace window, and a
// long-period sweep that destroys whole sessions gone inactive and folds
// their lifetime counters into the durable aggregates. Both loops mutate
// sessions through the same version-fenced store path as client requests.
type Sweeper struct {
	sessions repository.SessionRepo
	stats    repository.StatsRepo
	registry cache.ConnectionRegistry
	words    WordSource
	retrier  *Retrier

	disconnectExpiry   time.Duration
	sessionExpiry      time.Duration
	disconnectInterval time.Duration
	expiryInterval     time.Duration
	pastAnswersMax     int

	broadcaster Broadcaster

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates the sweeper
func NewSweeper(
	cfg *config.Config,
	sessions repository.SessionRepo,
	stats repository.StatsRepo,
	registry cache.ConnectionRegistry,
	wordSource WordSource,
	retrier *Retrier,
) *Sweeper {
	return &Sweeper{
		sessions:           sessions,
		stats:              stats,
		registry:           registry,
		words:              wordSource,
		retrier:            retrier,
		disconnectExpiry:   cfg.DisconnectExpiry,
		sessionExpiry:      cfg.SessionExpiry,
		disconnectInterval: cfg.DisconnectSweepInterval,
		expiryInterval:     cfg.ExpirySweepInterval,
		pastAnswersMax:     cfg.PastAnswersMax,
	}
}

// SetBroadcaster injects the WebSocket hub (implements Broadcaster).
func (s *Sweeper) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start launches both sweep loops. Calling Start on a running sweeper is
// a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go s.loop(ctx, s.disconnectInterval, s.SweepDisconnected)
	go s.loop(ctx, s.expiryInterval, s.SweepExpired)
	log.Printf("Sweeper started: disconnect every %v, expiry every %v", s.disconnectInterval, s.expiryInterval)
}

// Stop halts both loops and waits for in-flight sweeps to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	log.Println("Sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context, interval time.Duration, sweep func(context.Context)) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx)
		}
	}
}

// SweepDisconnected evicts players disconnected past the grace window
// from every live session, notifying each session's remaining members
// when its roster changed.
func (s *Sweeper) SweepDisconnected(ctx context.Context) {
	sessions, err := s.sessions.All(ctx)
	if err != nil {
		log.Printf("Disconnect sweep: failed to scan sessions: %v", err)
		return
	}

	for _, stale := range sessions {
		id := stale.ID
		var swept *model.GameSession
		err := s.retrier.Do(ctx, func(ctx context.Context) error {
			fresh, err := s.sessions.Get(ctx, id)
			if err != nil {
				return err
			}
			if fresh == nil {
				return nil
			}
			if !fresh.RemoveDisconnected(s.words.NextRandomAnswer, s.pastAnswersMax, s.disconnectExpiry) {
				return nil
			}
			if err := s.sessions.Update(ctx, fresh); err != nil {
				return err
			}
			swept = fresh
			return nil
		})
		if err != nil {
			log.Printf("Disconnect sweep: session %s: %v", id, err)
			continue
		}
		if swept != nil && s.broadcaster != nil {
			s.broadcaster.Broadcast(id, EventGameState, swept.Players)
		}
	}
}

// SweepExpired destroys sessions inactive beyond the session expiry,
// folding their counters into the durable aggregates and cascading the
// removal of their connection bindings. This is the only path that
// permanently deletes a session.
func (s *Sweeper) SweepExpired(ctx context.Context) {
	sessions, err := s.sessions.All(ctx)
	if err != nil {
		log.Printf("Expiry sweep: failed to scan sessions: %v", err)
		return
	}

	for _, stale := range sessions {
		if !stale.Expired(s.sessionExpiry) {
			continue
		}

		id := stale.ID
		err := s.retrier.Do(ctx, func(ctx context.Context) error {
			fresh, err := s.sessions.Get(ctx, id)
			if err != nil {
				return err
			}
			if fresh == nil || !fresh.Expired(s.sessionExpiry) {
				return nil
			}
			fresh.PrepForRemoval()
			s.foldStats(ctx, fresh)
			if err := s.sessions.Delete(ctx, id); err != nil {
				return err
			}
			return s.registry.UnbindSession(ctx, id)
		})
		if err != nil {
			log.Printf("Expiry sweep: session %s: %v", id, err)
			continue
		}
		log.Printf("Expiry sweep: removed session %s", id)
	}
}

func (s *Sweeper) foldStats(ctx context.Context, session *model.GameSession) {
	lifetime := int64(session.UpdatedAt.Sub(session.CreatedAt).Round(time.Second).Seconds())

	folds := []struct {
		category string
		delta    int64
	}{
		{model.StatTotalSessions, 1},
		{model.StatTotalPlayersConnected, int64(session.TotalPlayersConnected)},
		{model.StatTotalGamesPlayed, int64(session.TotalGamesPlayed)},
		{model.StatTotalGameTimeSeconds, int64(session.TotalGameTimeSeconds)},
		{model.StatTotalSessionTimeSeconds, lifetime},
	}
	if session.MaxPlayersConnected > 0 {
		folds = append(folds, struct {
			category string
			delta    int64
		}{model.MaxPlayersCategory(session.MaxPlayersConnected), 1})
	}

	for _, fold := range folds {
		if err := s.stats.IncrementCategory(ctx, fold.category, fold.delta); err != nil {
			log.Printf("Expiry sweep: failed to fold %s for session %s: %v", fold.category, session.ID, err)
		}
	}
}
