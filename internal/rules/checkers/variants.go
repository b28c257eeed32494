package checkers

import (
	"fmt"

	"golang.org/x/exp/slices"

	"checkerboard/internal/board"
	"checkerboard/internal/rules"
)

var constructors = map[string]func() *Checkers{
	"checkers":     NewAmerican,
	"suicide":      NewSuicide,
	"kingscourt":   NewKingsCourt,
	"mathcheckers": NewMathCheckers,
	"russian":      NewRussian,
	"draughts":     NewDraughts,
	"canadian":     NewCanadian,
	"dama":         NewDama,
	"bashni":       NewBashni,
	"ugolki":       NewUgolki,
}

// Variants lists the variant names New accepts, sorted.
func Variants() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New returns a fresh strategy for the named variant.
func New(name string) (*Checkers, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown checkers variant %q", name)
	}
	return ctor(), nil
}

func newVariant(name string, ranks, cols int, flags rules.Policy) *Checkers {
	return &Checkers{
		Base: rules.Base{
			VariantName:   name,
			VariantFamily: rules.FamilyCheckers,
			Flags:         flags,
		},
		ranks: ranks,
		cols:  cols,
		setup: darkRows(ranks/2-1, board.Checker),
	}
}

func isDark(r, c int) bool { return (r+c)%2 == 1 }

// darkRows fills the first rows ranks of each side's edge with men on the
// dark squares.
func darkRows(rows int, t board.PieceType) func(*Checkers, *board.Board) {
	return func(_ *Checkers, b *board.Board) {
		for r := 0; r < b.Ranks; r++ {
			side := board.Nobody
			switch {
			case r < rows:
				side = board.Far
			case r >= b.Ranks-rows:
				side = board.Near
			}
			if side == board.Nobody {
				continue
			}
			for c := 0; c < b.Cols; c++ {
				if isDark(r, c) {
					b.Place(board.Pos{Rank: r, Col: c}, side, t)
				}
			}
		}
	}
}

// NewAmerican is English draughts: 8x8, men capture forward only, kings
// move one square.
func NewAmerican() *Checkers {
	return newVariant("checkers", 8, 8, rules.Policy{
		JumpsMandatory: true,
		KingingEnabled: true,
	})
}

// NewSuicide plays American rules to lose: the side left without moves wins.
func NewSuicide() *Checkers {
	c := NewAmerican()
	c.VariantName = "suicide"
	c.winner = func(_ *Checkers, b *board.Board) board.Side {
		if b.MoveCount() == 0 {
			return b.Turn
		}
		return board.Nobody
	}
	c.evaluate = func(c *Checkers, b *board.Board, m board.Move) int {
		if c.IsDraw(b) {
			return 0
		}
		if s, ok := rules.Decided(c.Winner(b), m.Player); ok {
			return s
		}
		return -c.material(b, m.Player)
	}
	return c
}

// NewKingsCourt has no kings; men capture in every direction and a side with
// no piece left in the central court loses.
func NewKingsCourt() *Checkers {
	c := newVariant("kingscourt", 8, 8, rules.Policy{
		JumpsMandatory:  true,
		MenJumpBackward: true,
	})
	c.winner = func(c *Checkers, b *board.Board) board.Side {
		for _, s := range []board.Side{b.Turn, b.Turn.Opponent()} {
			if !holdsCourt(b, s) {
				return s.Opponent()
			}
		}
		return c.Base.Winner(b)
	}
	return c
}

// holdsCourt reports whether side has a piece in the central square whose
// edge is half the board.
func holdsCourt(b *board.Board, side board.Side) bool {
	lo, hi := b.Ranks/4, b.Ranks-b.Ranks/4
	clo, chi := b.Cols/4, b.Cols-b.Cols/4
	for _, p := range b.Pieces(side) {
		if p.Rank >= lo && p.Rank < hi && p.Col >= clo && p.Col < chi {
			return true
		}
	}
	return false
}

// NewRussian is Shashki: men capture backwards, kings fly and captured
// pieces stay on the board until the turn ends.
func NewRussian() *Checkers {
	return newVariant("russian", 8, 8, russianPolicy())
}

func russianPolicy() rules.Policy {
	return rules.Policy{
		JumpsMandatory:     true,
		MenJumpBackward:    true,
		CaptureAtEndOfTurn: true,
		FlyingKings:        true,
		KingingEnabled:     true,
	}
}

// NewDraughts is international draughts on 10x10, where the longest capture
// must be taken.
func NewDraughts() *Checkers {
	flags := russianPolicy()
	flags.MaxJumpsMandatory = true
	return newVariant("draughts", 10, 10, flags)
}

// NewCanadian is draughts on 12x12.
func NewCanadian() *Checkers {
	flags := russianPolicy()
	flags.MaxJumpsMandatory = true
	return newVariant("canadian", 12, 12, flags)
}

// NewDama is Turkish draughts: every square is used, men move forward and
// sideways, kings fly orthogonally.
func NewDama() *Checkers {
	c := newVariant("dama", 8, 8, rules.Policy{
		JumpsMandatory:     true,
		CaptureAtEndOfTurn: true,
		FlyingKings:        true,
		KingingEnabled:     true,
	})
	c.setup = func(_ *Checkers, b *board.Board) {
		for col := 0; col < b.Cols; col++ {
			for _, r := range []int{1, 2} {
				b.Place(board.Pos{Rank: r, Col: col}, board.Far, board.DamaMan)
				b.Place(board.Pos{Rank: b.Ranks - 1 - r, Col: col}, board.Near, board.DamaMan)
			}
		}
	}
	return c
}

// NewBashni is column checkers: a capture takes the top piece of the jumped
// column and puts it under the capturer.
func NewBashni() *Checkers {
	flags := russianPolicy()
	flags.CaptureAtEndOfTurn = false
	flags.StackingCaptures = true
	c := newVariant("bashni", 8, 8, flags)
	c.evaluate = func(c *Checkers, b *board.Board, m board.Move) int {
		if c.IsDraw(b) {
			return 0
		}
		if s, ok := rules.Decided(c.Winner(b), m.Player); ok {
			return s
		}
		return rules.Material(b, m.Player, columnWeight)
	}
	return c
}

// columnWeight counts a column for its top's owner: the top plus the pieces
// of the same colour buried under it.
func columnWeight(p *board.Piece) int {
	w := p.Weight()
	for _, s := range p.Stack {
		if s.Owner == p.Owner {
			w += s.Type.Value()
		}
	}
	return w
}
