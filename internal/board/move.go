package board

import (
	"fmt"
	"strings"
)

// MoveType tags one ply action.
type MoveType uint8

const (
	Slide MoveType = iota
	Jump
	FlyingJump
	Castle
	Swap
	Stack
	End
)

var moveTypeNames = [...]string{
	Slide:      "SLIDE",
	Jump:       "JUMP",
	FlyingJump: "FLYING_JUMP",
	Castle:     "CASTLE",
	Swap:       "SWAP",
	Stack:      "STACK",
	End:        "END",
}

// weight used by CompareValue ordering
var moveTypeWeights = [...]int{
	Slide:      1,
	Jump:       4,
	FlyingJump: 5,
	Castle:     3,
	Swap:       8,
	Stack:      6,
	End:        0,
}

func (t MoveType) String() string {
	if int(t) < len(moveTypeNames) {
		return moveTypeNames[t]
	}
	return fmt.Sprintf("move(%d)", uint8(t))
}

// CaptureWeight is added to CompareValue per captured piece.
const CaptureWeight = 100

// Capture records one captured (or, in stacking variants, buried) piece.
type Capture struct {
	Pos
	Type PieceType `json:"type"`
}

// Move is one ply action. It is built with the chained setters and treated as
// immutable once handed to a Piece's move list.
type Move struct {
	Type         MoveType  `json:"type"`
	Player       Side      `json:"player"`
	Start        Pos       `json:"start"`
	StartType    PieceType `json:"startType"`
	End          *Pos      `json:"end,omitempty"`
	EndType      PieceType `json:"endType"`
	Captures     []Capture `json:"captures,omitempty"`
	RookStart    *Pos      `json:"rookStart,omitempty"`
	RookEnd      *Pos      `json:"rookEnd,omitempty"`
	EnPassant    *Pos      `json:"enPassant,omitempty"`
	Jumped       *Pos      `json:"jumped,omitempty"`
	Continuation bool      `json:"continuation,omitempty"`
	CompareValue int       `json:"compareValue"`
}

// NewMove starts a move of the given type for player.
func NewMove(t MoveType, player Side) *Move {
	if player != Near && player != Far {
		Invariant("new move", "move %s for player %d", t, player)
	}
	return &Move{Type: t, Player: player, CompareValue: moveTypeWeights[t]}
}

func (m *Move) SetStart(p Pos, t PieceType) *Move {
	if t == Empty {
		Invariant("set start", "empty start type at %s", p)
	}
	m.Start = p
	m.StartType = t
	m.CompareValue += t.Value()
	return m
}

func (m *Move) SetEnd(p Pos, t PieceType) *Move {
	e := p
	m.End = &e
	m.EndType = t
	return m
}

// SetPromotion sets the outcome type of a STACK move without an end position.
func (m *Move) SetPromotion(t PieceType) *Move {
	m.EndType = t
	return m
}

func (m *Move) AddCapture(p Pos, t PieceType) *Move {
	if t == Empty || t == Blocked {
		Invariant("add capture", "captured record with type %s at %s", t, p)
	}
	m.Captures = append(m.Captures, Capture{Pos: p, Type: t})
	m.CompareValue += CaptureWeight
	return m
}

func (m *Move) SetCastle(rookStart, rookEnd Pos) *Move {
	rs, re := rookStart, rookEnd
	m.RookStart, m.RookEnd = &rs, &re
	return m
}

func (m *Move) SetEnPassant(p Pos) *Move {
	ep := p
	m.EnPassant = &ep
	return m
}

func (m *Move) SetJumped(p Pos) *Move {
	j := p
	m.Jumped = &j
	return m
}

// AsContinuation marks the move as offered after an earlier action in the
// same ply (chain jump, promotion, swap choice, end of chain).
func (m *Move) AsContinuation() *Move {
	m.Continuation = true
	return m
}

// HasEnd is false for STACK pseudo-moves, true otherwise once an end is set.
func (m *Move) HasEnd() bool { return m.Type != Stack && m.End != nil }

func (m *Move) HasCaptures() bool { return len(m.Captures) > 0 }

func (m *Move) IsJump() bool { return m.Type == Jump || m.Type == FlyingJump }

// Direction is the unit step from Start toward End, or 0,0 without an end.
func (m *Move) Direction() (int, int) {
	if !m.HasEnd() {
		return 0, 0
	}
	return sign(m.End.Rank - m.Start.Rank), sign(m.End.Col - m.Start.Col)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Equal compares the fields that identify a move choice.
func (m Move) Equal(o Move) bool {
	if m.Type != o.Type || m.Player != o.Player || m.Start != o.Start || m.EndType != o.EndType {
		return false
	}
	if (m.End == nil) != (o.End == nil) || (m.End != nil && *m.End != *o.End) {
		return false
	}
	if len(m.Captures) != len(o.Captures) {
		return false
	}
	for i := range m.Captures {
		if m.Captures[i] != o.Captures[i] {
			return false
		}
	}
	return true
}

func (m Move) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s@%s", m.Player, m.Type, m.StartType.Code(), m.Start)
	if m.End != nil {
		fmt.Fprintf(&sb, "->%s", m.End)
	}
	if m.Type == Stack || m.Type == Swap {
		fmt.Fprintf(&sb, "=%s", m.EndType.Code())
	}
	for _, c := range m.Captures {
		fmt.Fprintf(&sb, " x%s@%s", c.Type.Code(), c.Pos)
	}
	return sb.String()
}
