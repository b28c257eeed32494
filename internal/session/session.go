package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"checkerboard/internal/game"
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// BotPrefix marks player ids seated for an engine chooser.
const BotPrefix = "bot-"

// Player represents a connected player.
type Player struct {
	ID   string
	Bot  bool
	Send chan []byte // outbound messages
}

// Session is one game session with connected players. Seats are filled in
// join order: the first seat plays NEAR, the second FAR.
type Session struct {
	mu       sync.RWMutex
	Code     string
	GameType string
	Status   Status
	HostID   string
	Players  map[string]*Player
	Seats    []string
	Match    game.Match
	game     game.Game
}

// NewSession creates a session in the waiting state.
func NewSession(code, gameType string, g game.Game) *Session {
	return &Session{
		Code:     code,
		GameType: gameType,
		Status:   StatusWaiting,
		Players:  make(map[string]*Player),
		game:     g,
	}
}

// AddPlayer adds a player to the session. Returns error if full or already playing.
func (s *Session) AddPlayer(playerID string) error {
	if strings.HasPrefix(playerID, BotPrefix) {
		return fmt.Errorf("player ids starting with %q are reserved", BotPrefix)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(playerID, false)
}

// AddBot seats an engine player in the next free seat and returns its id.
func (s *Session) AddBot() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := BotPrefix + uuid.NewString()
	if err := s.addLocked(id, true); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Session) addLocked(playerID string, bot bool) error {
	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not accepting players")
	}
	info := s.game.Info()
	if len(s.Players) >= info.MaxPlayers {
		return fmt.Errorf("session is full")
	}
	if _, exists := s.Players[playerID]; exists {
		return fmt.Errorf("player %s already in session", playerID)
	}
	s.Players[playerID] = &Player{
		ID:   playerID,
		Bot:  bot,
		Send: make(chan []byte, 64),
	}
	s.Seats = append(s.Seats, playerID)
	if s.HostID == "" && !bot {
		s.HostID = playerID
	}
	return nil
}

// RemovePlayer removes a player from the session.
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Players[playerID]; ok {
		close(p.Send)
		delete(s.Players, playerID)
		for i, id := range s.Seats {
			if id == playerID {
				s.Seats = append(s.Seats[:i], s.Seats[i+1:]...)
				break
			}
		}
	}
}

// ConnectPlayer replaces the Send channel for a reconnecting player.
func (s *Session) ConnectPlayer(playerID string, send chan []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Players[playerID]
	if !ok {
		return false
	}
	p.Send = send
	return true
}

// PlayerIDs returns the player IDs in seat order.
func (s *Session) PlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.Seats...)
}

// Start transitions the session from waiting to playing.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not in waiting state")
	}
	info := s.game.Info()
	if len(s.Players) < info.MinPlayers {
		return fmt.Errorf("need at least %d players, have %d", info.MinPlayers, len(s.Players))
	}

	s.Match = s.game.NewMatch(game.MatchConfig{PlayerIDs: append([]string(nil), s.Seats...)})
	s.Status = StatusPlaying
	return nil
}

// Finish marks the session as finished.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusFinished
}

// Played is one action applied to the match, with its notation if the match
// provides one.
type Played struct {
	PlayerID string
	Action   game.Action
	Notation string
}

// Apply applies a player's action and, while it is then a bot's turn, lets
// the bots move. It returns every action applied, in order.
func (s *Session) Apply(ctx context.Context, playerID string, a game.Action) ([]Played, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Match == nil {
		return nil, fmt.Errorf("game not started")
	}
	if err := s.Match.ApplyAction(playerID, a); err != nil {
		return nil, err
	}
	played := []Played{{PlayerID: playerID, Action: a, Notation: notation(s.Match)}}
	bots, err := s.advanceLocked(ctx)
	played = append(played, bots...)
	s.settleLocked()
	return played, err
}

// Advance lets seated bots move until a human is to move or the game ends.
func (s *Session) Advance(ctx context.Context) ([]Played, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Match == nil {
		return nil, nil
	}
	played, err := s.advanceLocked(ctx)
	s.settleLocked()
	return played, err
}

func (s *Session) advanceLocked(ctx context.Context) ([]Played, error) {
	auto, ok := s.Match.(game.AutoPlayer)
	if !ok {
		return nil, nil
	}
	var played []Played
	for progressed := true; progressed && !s.Match.IsOver(); {
		progressed = false
		for _, id := range s.Seats {
			if p := s.Players[id]; p == nil || !p.Bot {
				continue
			}
			actions, err := auto.Play(ctx, id)
			if err != nil {
				return played, fmt.Errorf("bot %s: %w", id, err)
			}
			for _, a := range actions {
				played = append(played, Played{PlayerID: id, Action: a, Notation: actionNotation(a)})
			}
			if len(actions) > 0 {
				progressed = true
			}
		}
	}
	return played, nil
}

func (s *Session) settleLocked() {
	if s.Match != nil && s.Match.IsOver() {
		s.Status = StatusFinished
	}
}

func notation(m game.Match) string {
	if n, ok := m.(game.Notator); ok {
		return n.LastNotation()
	}
	return ""
}

func actionNotation(a game.Action) string {
	var p struct {
		Notation string `json:"notation"`
	}
	if err := json.Unmarshal(a.Payload, &p); err != nil {
		return ""
	}
	return p.Notation
}

// Broadcast sends a message to all connected players.
func (s *Session) Broadcast(msg []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.Players {
		if p.Bot {
			continue
		}
		select {
		case p.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}

// GetPlayer returns a player's send channel, or nil if not found.
func (s *Session) GetPlayer(playerID string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Players[playerID]
}

// Info returns session info for the API.
type Info struct {
	Code     string   `json:"code"`
	GameType string   `json:"gameType"`
	Status   Status   `json:"status"`
	Players  []string `json:"players"`
	Bots     []string `json:"bots,omitempty"`
	HostID   string   `json:"hostId"`
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infoLocked()
}

// InfoLocked returns info without acquiring the lock (caller must hold it).
func (s *Session) InfoLocked() Info {
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	info := Info{
		Code:     s.Code,
		GameType: s.GameType,
		Status:   s.Status,
		Players:  append([]string{}, s.Seats...),
		HostID:   s.HostID,
	}
	for _, id := range s.Seats {
		if p := s.Players[id]; p != nil && p.Bot {
			info.Bots = append(info.Bots, id)
		}
	}
	return info
}

// Lock/RLock/Unlock/RUnlock expose the mutex for the server's websocket handler.
func (s *Session) Lock()    { s.mu.Lock() }
func (s *Session) Unlock()  { s.mu.Unlock() }
func (s *Session) RLock()   { s.mu.RLock() }
func (s *Session) RUnlock() { s.mu.RUnlock() }
