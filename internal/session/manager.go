package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"checkerboard/internal/game"
	"checkerboard/internal/storage"
)

// Manager manages all active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	registry *game.Registry
	store    *storage.Store
	log      zerolog.Logger
}

// NewManager creates a session manager.
func NewManager(registry *game.Registry, store *storage.Store, log zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		registry: registry,
		store:    store,
		log:      log.With().Str("component", "sessions").Logger(),
	}
}

// Create makes a new session and persists it.
func (m *Manager) Create(gameType string) (*Session, error) {
	g, ok := m.registry.Get(gameType)
	if !ok {
		return nil, fmt.Errorf("unknown game type: %s", gameType)
	}
	code := generateCode()
	if err := m.store.CreateSession(code, gameType); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s := NewSession(code, gameType, g)
	m.mu.Lock()
	m.sessions[code] = s
	m.mu.Unlock()
	m.log.Info().Str("code", code).Str("game", gameType).Msg("session created")
	return s, nil
}

// Get returns a session by code.
func (m *Manager) Get(code string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	return s, ok
}

// List returns info for all active sessions.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// SaveMatchState persists the session status, roster and match snapshot.
func (m *Manager) SaveMatchState(s *Session) error {
	s.mu.RLock()
	match := s.Match
	status := s.Status
	s.mu.RUnlock()

	if err := m.store.UpdateSessionStatus(s.Code, string(status)); err != nil {
		return err
	}
	if err := m.SaveSessionPlayers(s); err != nil {
		return err
	}
	if match == nil {
		return nil
	}
	s.mu.RLock()
	data, err := match.MarshalJSON()
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal match state: %w", err)
	}
	return m.store.SaveSnapshot(s.Code, data)
}

// RecordMoves appends applied actions to the session's move log.
func (m *Manager) RecordMoves(s *Session, played []Played) error {
	for _, p := range played {
		row := storage.MoveRow{
			PlayerID: p.PlayerID,
			Action:   p.Action.Type,
			Notation: p.Notation,
			Payload:  string(p.Action.Payload),
		}
		if _, err := m.store.AppendMove(s.Code, row); err != nil {
			return fmt.Errorf("append move: %w", err)
		}
	}
	return nil
}

// Moves returns the session's move log.
func (m *Manager) Moves(code string) ([]storage.MoveRow, error) {
	return m.store.ListMoves(code)
}

// Restore loads sessions from the database on startup.
func (m *Manager) Restore() error {
	rows, err := m.store.ListSessions("")
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, row := range rows {
		if row.Status == string(StatusFinished) {
			continue
		}
		log := m.log.With().Str("code", row.Code).Logger()
		g, ok := m.registry.Get(row.GameType)
		if !ok {
			log.Warn().Str("game", row.GameType).Msg("skipping session: unknown game type")
			continue
		}
		s := NewSession(row.Code, row.GameType, g)
		snap, err := m.loadSessionPlayers(row.Code)
		if err != nil {
			log.Warn().Err(err).Msg("skipping session: bad roster")
			continue
		}
		for _, id := range snap.Players {
			if err := s.addLocked(id, snap.isBot(id)); err != nil {
				log.Warn().Err(err).Str("player", id).Msg("dropping seat")
			}
		}
		s.HostID = snap.HostID
		s.Status = Status(row.Status)

		if row.Status == string(StatusPlaying) {
			state, err := m.store.LoadSnapshot(row.Code)
			if err != nil {
				log.Warn().Err(err).Msg("skipping session: no match state")
				continue
			}
			match := g.NewMatch(game.MatchConfig{PlayerIDs: []string{"_", "_"}})
			if err := match.UnmarshalJSON(state); err != nil {
				log.Warn().Err(err).Msg("skipping session: unmarshal error")
				continue
			}
			s.Match = match
		}
		m.mu.Lock()
		m.sessions[row.Code] = s
		m.mu.Unlock()
		log.Info().Str("status", row.Status).Msg("session restored")
	}
	return nil
}

// Remove deletes a session from memory and storage.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	delete(m.sessions, code)
	m.mu.Unlock()
	if err := m.store.DeleteSession(code); err != nil {
		m.log.Error().Err(err).Str("code", code).Msg("delete session")
	}
}

// CleanupLoop removes stale sessions periodically until done is closed.
func (m *Manager) CleanupLoop(done <-chan struct{}, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.cleanup(maxAge)
		}
	}
}

func (m *Manager) cleanup(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for code, s := range m.sessions {
		s.mu.RLock()
		empty := humans(s) == 0
		finished := s.Status == StatusFinished
		s.mu.RUnlock()

		if finished || empty {
			row, err := m.store.GetSession(code)
			if err != nil {
				delete(m.sessions, code)
				continue
			}
			if now.Sub(row.CreatedAt) > maxAge || empty {
				m.log.Info().Str("code", code).Msg("cleaning up session")
				m.store.DeleteSession(code)
				delete(m.sessions, code)
			}
		}
	}
}

// humans counts seated non-bot players. Caller holds s.mu.
func humans(s *Session) int {
	n := 0
	for _, p := range s.Players {
		if !p.Bot {
			n++
		}
	}
	return n
}

func generateCode() string {
	b := make([]byte, 3) // 6 hex chars
	rand.Read(b)
	return hex.EncodeToString(b)
}

// sessionSnapshot is the persisted seating of a session.
type sessionSnapshot struct {
	Players []string `json:"players"`
	Bots    []string `json:"bots,omitempty"`
	HostID  string   `json:"hostId"`
}

func (snap sessionSnapshot) isBot(id string) bool {
	for _, b := range snap.Bots {
		if b == id {
			return true
		}
	}
	return false
}

// SaveSessionPlayers persists the seating in seat order.
func (m *Manager) SaveSessionPlayers(s *Session) error {
	info := s.Info()
	snap := sessionSnapshot{Players: info.Players, Bots: info.Bots, HostID: info.HostID}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return m.store.SaveRoster(s.Code, string(data))
}

func (m *Manager) loadSessionPlayers(code string) (sessionSnapshot, error) {
	var snap sessionSnapshot
	data, err := m.store.GetRoster(code)
	if err != nil || data == "" {
		return snap, err
	}
	err = json.Unmarshal([]byte(data), &snap)
	return snap, err
}
