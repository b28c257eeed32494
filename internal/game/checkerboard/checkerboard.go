// Package checkerboard exposes the rules engines as host games: one
// game.Game per variant, with legal moves as actions.
package checkerboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"checkerboard/internal/board"
	"checkerboard/internal/game"
	"checkerboard/internal/rules"
	"checkerboard/internal/rules/checkers"
	"checkerboard/internal/rules/chess"
)

// Action types.
const (
	ActionMove    = "move"
	ActionUndo    = "undo"
	ActionForfeit = "forfeit"
)

// Factory builds a fresh strategy. Every match gets its own.
type Factory func() rules.Rules

// Game implements game.Game for one variant.
type Game struct {
	info    game.GameInfo
	factory Factory
}

// New wraps factory as a two-player game.
func New(factory Factory) *Game {
	r := factory()
	b := r.NewBoard()
	return &Game{
		info: game.GameInfo{
			Name:       r.Name(),
			Family:     string(r.Family()),
			Ranks:      b.Ranks,
			Cols:       b.Cols,
			MinPlayers: 2,
			MaxPlayers: 2,
		},
		factory: factory,
	}
}

// Variants lists every variant name, checkers family first.
func Variants() []string {
	return append(checkers.Variants(), chess.Variants()...)
}

// Lookup returns the factory for a variant name.
func Lookup(name string) (Factory, error) {
	if _, err := checkers.New(name); err == nil {
		return func() rules.Rules {
			c, _ := checkers.New(name)
			return c
		}, nil
	}
	if _, err := chess.New(name); err == nil {
		return func() rules.Rules {
			c, _ := chess.New(name)
			return c
		}, nil
	}
	return nil, fmt.Errorf("unknown variant %q", name)
}

// RegisterAll registers every checkers and chess variant.
func RegisterAll(reg *game.Registry) {
	for _, name := range Variants() {
		f, _ := Lookup(name)
		reg.Register(New(f))
	}
}

func (g *Game) Info() game.GameInfo { return g.info }

// NewMatch seats PlayerIDs[0] as NEAR and PlayerIDs[1] as FAR.
func (g *Game) NewMatch(config game.MatchConfig) game.Match {
	r := g.factory()
	m := &Match{Variant: r.Name(), Board: r.NewBoard(), rules: r}
	copy(m.Players[:], config.PlayerIDs)
	return m
}

// Match implements game.Match over a board and its strategy.
type Match struct {
	Variant string       `json:"variant"`
	Players [2]string    `json:"players"` // indexed by board.Side
	Board   *board.Board `json:"board"`

	rules rules.Rules
	last  string
}

var (
	_ game.Match      = (*Match)(nil)
	_ game.AutoPlayer = (*Match)(nil)
	_ game.Notator    = (*Match)(nil)
)

// MovePayload addresses a move by its piece and its index in that piece's
// move list.
type MovePayload struct {
	Rank     int    `json:"rank"`
	Col      int    `json:"col"`
	Index    int    `json:"index"`
	Notation string `json:"notation,omitempty"`
}

// Seat returns the side playerID sits on, or Nobody.
func (m *Match) Seat(playerID string) board.Side {
	switch playerID {
	case "":
		return board.Nobody
	case m.Players[board.Near]:
		return board.Near
	case m.Players[board.Far]:
		return board.Far
	}
	return board.Nobody
}

// Outcome evaluates the match. A forfeit decides it regardless of the board.
func (m *Match) Outcome() rules.Outcome {
	switch {
	case m.Board.Players[board.Near].Forfeited:
		return rules.FarWins
	case m.Board.Players[board.Far].Forfeited:
		return rules.NearWins
	}
	return rules.Evaluate(m.rules, m.Board)
}

func (m *Match) IsOver() bool { return m.Outcome() != rules.Ongoing }

func (m *Match) canUndo(side board.Side) bool {
	last, ok := m.Board.Last()
	return ok && last.Player == side
}

func (m *Match) ValidActions(playerID string) []game.Action {
	side := m.Seat(playerID)
	if side == board.Nobody || m.IsOver() {
		return nil
	}
	var actions []game.Action
	if m.Board.Turn == side {
		for _, p := range m.Board.Movable() {
			for i, mv := range p.Moves {
				actions = append(actions, action(ActionMove, MovePayload{
					Rank: p.Rank, Col: p.Col, Index: i, Notation: mv.String(),
				}))
			}
		}
	}
	if m.canUndo(side) {
		actions = append(actions, game.Action{Type: ActionUndo})
	}
	return append(actions, game.Action{Type: ActionForfeit})
}

func action(t string, payload any) game.Action {
	data, _ := json.Marshal(payload)
	return game.Action{Type: t, Payload: data}
}

func (m *Match) ApplyAction(playerID string, a game.Action) error {
	if m.IsOver() {
		return fmt.Errorf("game is over")
	}
	side := m.Seat(playerID)
	if side == board.Nobody {
		return fmt.Errorf("%s is not seated in this match", playerID)
	}
	switch a.Type {
	case ActionMove:
		if m.Board.Turn != side {
			return fmt.Errorf("not your turn")
		}
		var mp MovePayload
		if err := json.Unmarshal(a.Payload, &mp); err != nil {
			return fmt.Errorf("invalid move payload: %w", err)
		}
		mv, err := m.lookup(side, mp)
		if err != nil {
			return err
		}
		m.rules.Execute(m.Board, mv)
		m.last = mv.String()
	case ActionUndo:
		if !m.canUndo(side) {
			return fmt.Errorf("nothing to undo")
		}
		mv, _ := m.rules.Reverse(m.Board)
		m.last = "undo " + mv.String()
	case ActionForfeit:
		m.Board.Players[side].Forfeited = true
		if f, ok := m.rules.(rules.Forfeiter); ok {
			f.Forfeit(m.Board, side)
		}
		m.last = side.String() + " forfeits"
	default:
		return fmt.Errorf("unknown action type: %s", a.Type)
	}
	return nil
}

func (m *Match) lookup(side board.Side, mp MovePayload) (board.Move, error) {
	if !m.Board.InBounds(mp.Rank, mp.Col) {
		return board.Move{}, fmt.Errorf("square %d,%d out of range", mp.Rank, mp.Col)
	}
	p := m.Board.At(mp.Rank, mp.Col)
	if p.Owner != side {
		return board.Move{}, fmt.Errorf("no piece of yours on %s", p.Pos)
	}
	if mp.Index < 0 || mp.Index >= len(p.Moves) {
		return board.Move{}, fmt.Errorf("piece on %s has no move %d", p.Pos, mp.Index)
	}
	return p.Moves[mp.Index], nil
}

// Play moves for playerID with a one-ply greedy chooser until the turn
// passes or the game ends. Chain continuations are played out in full.
func (m *Match) Play(ctx context.Context, playerID string) ([]game.Action, error) {
	side := m.Seat(playerID)
	if side == board.Nobody {
		return nil, fmt.Errorf("%s is not seated in this match", playerID)
	}
	d := rules.NewDriver(m.rules, m.Board, nil, nil)
	d.Players[side] = &rules.GreedyChooser{Rules: m.rules}

	var played []game.Action
	for !m.IsOver() && m.Board.Turn == side {
		if _, err := d.Step(ctx); err != nil {
			if errors.Is(err, rules.ErrGameOver) {
				break
			}
			return played, err
		}
		mv, _ := m.Board.Last()
		m.last = mv.String()
		played = append(played, action(ActionMove, MovePayload{
			Rank: mv.Start.Rank, Col: mv.Start.Col, Index: -1, Notation: m.last,
		}))
	}
	return played, nil
}

// LastNotation describes the most recent action applied through this match
// value. It is not persisted.
func (m *Match) LastNotation() string { return m.last }

func (m *Match) Results() []game.PlayerResult {
	o := m.Outcome()
	if o == rules.Ongoing {
		return nil
	}
	near, far := m.Board.Players[board.Near].Score, m.Board.Players[board.Far].Score
	switch o.Winner() {
	case board.Near:
		return []game.PlayerResult{
			{PlayerID: m.Players[board.Near], Rank: 1, Score: near},
			{PlayerID: m.Players[board.Far], Rank: 2, Score: far},
		}
	case board.Far:
		return []game.PlayerResult{
			{PlayerID: m.Players[board.Far], Rank: 1, Score: far},
			{PlayerID: m.Players[board.Near], Rank: 2, Score: near},
		}
	}
	return []game.PlayerResult{
		{PlayerID: m.Players[board.Near], Rank: 1, Score: near},
		{PlayerID: m.Players[board.Far], Rank: 1, Score: far},
	}
}

func (m *Match) MarshalJSON() ([]byte, error) {
	type alias Match
	return json.Marshal((*alias)(m))
}

// UnmarshalJSON restores a match created by the same game's NewMatch.
// Computed moves are part of the persisted board.
func (m *Match) UnmarshalJSON(data []byte) error {
	type alias Match
	// decoding into the setup board would merge stale cells
	m.Board = nil
	if err := json.Unmarshal(data, (*alias)(m)); err != nil {
		return err
	}
	if m.rules == nil || m.rules.Name() != m.Variant {
		return fmt.Errorf("match is %q, not a match of this game", m.Variant)
	}
	if m.Board == nil {
		return fmt.Errorf("match %q has no board", m.Variant)
	}
	return nil
}
