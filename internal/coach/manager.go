package coach

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mlevkov/shotcoach/internal/ai"
)

// Manager owns the live coaching sessions, keyed by session ID.
type Manager struct {
	analyzer *ai.Analyzer
	archive  Archive
	cfg      Config

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(analyzer *ai.Analyzer, archive Archive, cfg Config) *Manager {
	return &Manager{
		analyzer: analyzer,
		archive:  archive,
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Start creates a session for a video and launches its workers.
func (m *Manager) Start(ctx context.Context, videoID string) *Session {
	session := newSession(ctx, videoID, m.analyzer, m.archive, m.cfg)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	log.Printf("[COACH] Started session %s for video %s", session.ID, videoID)
	return session
}

// Get looks up a live session.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

// Stop cancels a session's workers and removes it.
func (m *Manager) Stop(sessionID string) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("session not found")
	}

	session.Close()
	log.Printf("[COACH] Stopped session %s", sessionID)
	return nil
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
