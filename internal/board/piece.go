package board

import "fmt"

// Side identifies a player slot. Near moves toward rank 0, Far toward the
// last rank.
type Side int

const (
	Nobody Side = -1
	Near   Side = 0
	Far    Side = 1
)

func (s Side) Opponent() Side {
	switch s {
	case Near:
		return Far
	case Far:
		return Near
	}
	return Nobody
}

// Forward is the rank delta of one step toward the opponent.
func (s Side) Forward() int {
	if s == Near {
		return -1
	}
	return 1
}

func (s Side) String() string {
	switch s {
	case Near:
		return "near"
	case Far:
		return "far"
	}
	return "nobody"
}

// Pos is a board coordinate.
type Pos struct {
	Rank int `json:"rank"`
	Col  int `json:"col"`
}

func (p Pos) Add(dr, dc int) Pos { return Pos{Rank: p.Rank + dr, Col: p.Col + dc} }

func (p Pos) String() string { return fmt.Sprintf("%d,%d", p.Rank, p.Col) }

// Stacked is one piece buried under a stack top (stacking-capture variants).
type Stacked struct {
	Owner Side      `json:"owner"`
	Type  PieceType `json:"type"`
}

// Piece is the occupant of one cell. Every cell always holds one; a vacated
// cell holds an Empty piece owned by Nobody.
type Piece struct {
	Pos
	Owner    Side      `json:"owner"`
	Type     PieceType `json:"type"`
	Captured bool      `json:"captured,omitempty"`
	Value    int       `json:"value,omitempty"`
	Stack    []Stacked `json:"stack,omitempty"`
	Moves    []Move    `json:"moves,omitempty"`
}

// NumMoves is the number of legal moves computed for this piece this ply.
func (p *Piece) NumMoves() int { return len(p.Moves) }

func (p *Piece) IsEmpty() bool { return p.Type == Empty }

// IsOpponent reports whether p is an eligible capture target for side.
func (p *Piece) IsOpponent(side Side) bool {
	return p.Type != Empty && p.Type != Blocked && p.Owner != Nobody && p.Owner != side
}

// Weight is the per-piece value override when set, else the type value.
func (p *Piece) Weight() int {
	if p.Value != 0 {
		return p.Value
	}
	return p.Type.Value()
}

func (p *Piece) clone() Piece {
	c := *p
	if p.Stack != nil {
		c.Stack = append([]Stacked(nil), p.Stack...)
	}
	if p.Moves != nil {
		c.Moves = append([]Move(nil), p.Moves...)
	}
	return c
}

func (p Piece) String() string {
	if p.Type == Empty {
		return "--"
	}
	return fmt.Sprintf("%s%s@%s", p.Owner, p.Type.Code(), p.Pos)
}
