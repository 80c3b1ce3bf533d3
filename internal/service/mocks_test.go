package service

import (
	"context"
	"errors"
	"sync"

	"wordoff/internal/model"
	"wordoff/internal/repository"
)

// Mock session store with real compare-and-swap semantics, so retry
// behavior can be exercised against genuine version races.
type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.GameSession

	// Each update consumes one injected conflict before the CAS runs.
	injectConflicts int

	failGet    error
	failUpdate error

	updates int
	deletes []string

	// Shared with mockRegistry to record write interleaving.
	ops *[]string
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[string]*model.GameSession),
	}
}

func cloneSession(s *model.GameSession) *model.GameSession {
	c := *s
	c.Players = make(map[string]*model.PlayerData, len(s.Players))
	for name, p := range s.Players {
		pc := *p
		pc.Guesses = append([]string(nil), p.Guesses...)
		if p.DisconnectedAt != nil {
			t := *p.DisconnectedAt
			pc.DisconnectedAt = &t
		}
		c.Players[name] = &pc
	}
	c.PastAnswers = append([]string(nil), s.PastAnswers...)
	return &c
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[session.ID]; exists {
		return repository.ErrDuplicateID
	}
	session.Version = 1
	m.sessions[session.ID] = cloneSession(session)
	return nil
}

func (m *mockSessionRepo) Get(ctx context.Context, id string) (*model.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	session, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(session), nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *model.GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return m.failUpdate
	}
	if m.injectConflicts != 0 {
		if m.injectConflicts > 0 {
			m.injectConflicts--
		}
		return repository.ErrConflict
	}
	stored, ok := m.sessions[session.ID]
	if !ok || stored.Version != session.Version {
		return repository.ErrConflict
	}
	session.Version++
	m.sessions[session.ID] = cloneSession(session)
	m.updates++
	if m.ops != nil {
		*m.ops = append(*m.ops, "update")
	}
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.deletes = append(m.deletes, id)
	return nil
}

func (m *mockSessionRepo) All(ctx context.Context) ([]*model.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.GameSession
	for _, session := range m.sessions {
		all = append(all, cloneSession(session))
	}
	return all, nil
}

// stored returns the durable copy, bypassing the interface.
func (m *mockSessionRepo) stored(id string) *model.GameSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil
	}
	return cloneSession(session)
}

func (m *mockSessionRepo) put(session *model.GameSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.Version == 0 {
		session.Version = 1
	}
	m.sessions[session.ID] = cloneSession(session)
}

type mockStatsRepo struct {
	mu         sync.Mutex
	categories map[string]int64
	words      map[string][7]int64 // index 0 = total, 1..6 = rounds
}

func newMockStatsRepo() *mockStatsRepo {
	return &mockStatsRepo{
		categories: make(map[string]int64),
		words:      make(map[string][7]int64),
	}
}

func (m *mockStatsRepo) IncrementCategory(ctx context.Context, category string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[category] += delta
	return nil
}

func (m *mockStatsRepo) RecordWordSubmission(ctx context.Context, word string, round int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := m.words[word]
	counts[0]++
	if round >= 1 && round <= 6 {
		counts[round]++
	}
	m.words[word] = counts
	return nil
}

func (m *mockStatsRepo) AllCategories(ctx context.Context) ([]*model.SessionStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats []*model.SessionStat
	for category, count := range m.categories {
		stats = append(stats, &model.SessionStat{Category: category, Count: count})
	}
	return stats, nil
}

func (m *mockStatsRepo) TopWords(ctx context.Context, limit int64) ([]*model.WordStat, error) {
	return nil, nil
}

func (m *mockStatsRepo) category(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories[name]
}

type mockRegistry struct {
	mu       sync.Mutex
	bindings map[string]string

	// ops records the interleaving of registry and store writes, so
	// tests can assert binding happens before the session commit.
	ops *[]string
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{bindings: make(map[string]string)}
}

func (m *mockRegistry) Bind(ctx context.Context, connectionID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[connectionID] = sessionID
	if m.ops != nil {
		*m.ops = append(*m.ops, "bind")
	}
	return nil
}

func (m *mockRegistry) Lookup(ctx context.Context, connectionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindings[connectionID], nil
}

func (m *mockRegistry) Unbind(ctx context.Context, connectionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessionID := m.bindings[connectionID]
	delete(m.bindings, connectionID)
	return sessionID, nil
}

func (m *mockRegistry) UnbindSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for connectionID, bound := range m.bindings {
		if bound == sessionID {
			delete(m.bindings, connectionID)
		}
	}
	return nil
}

type broadcastRecord struct {
	SessionID    string
	ConnectionID string
	Event        string
}

type mockBroadcaster struct {
	mu      sync.Mutex
	records []broadcastRecord
}

func (m *mockBroadcaster) Broadcast(sessionID string, event string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, broadcastRecord{SessionID: sessionID, Event: event})
}

func (m *mockBroadcaster) SendTo(connectionID string, event string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, broadcastRecord{ConnectionID: connectionID, Event: event})
}

func (m *mockBroadcaster) count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.records {
		if rec.Event == event {
			n++
		}
	}
	return n
}

// Deterministic word source: answers are served round-robin.
type fakeWords struct {
	mu      sync.Mutex
	answers []string
	next    int
	invalid map[string]bool
}

func newFakeWords(answers ...string) *fakeWords {
	if len(answers) == 0 {
		answers = []string{"mount", "slate", "crane", "pride", "abyss"}
	}
	return &fakeWords{answers: answers, invalid: make(map[string]bool)}
}

func (f *fakeWords) NextRandomAnswer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	word := f.answers[f.next%len(f.answers)]
	f.next++
	return word
}

func (f *fakeWords) IsValidGuess(word string) bool {
	return !f.invalid[word]
}

func (f *fakeWords) CompressedFullWords() []byte {
	return []byte("compressed")
}

var errStoreDown = errors.New("store unavailable")
