package checkers

import (
	"checkerboard/internal/board"
	"checkerboard/internal/rules"
)

// Operator is one cell of the math checkers overlay.
type Operator byte

const (
	NoOp Operator = 0
	Add  Operator = '+'
	Sub  Operator = '-'
	Mul  Operator = '*'
	Div  Operator = '/'
)

var operatorCycle = [...]Operator{Add, Sub, Mul, Div}

// Apply folds v into score.
func (o Operator) Apply(score, v int) int {
	switch o {
	case Add:
		return score + v
	case Sub:
		return score - v
	case Mul:
		return score * v
	case Div:
		if v == 0 {
			return score
		}
		return score / v
	}
	return score
}

func (o Operator) String() string {
	if o == NoOp {
		return ""
	}
	return string(rune(o))
}

// OperatorAt is the overlay operator of p on a board cols wide. Light
// squares carry none; dark squares cycle through the four operators, shifted
// one per rank.
func OperatorAt(cols int, p board.Pos) Operator {
	if !isDark(p.Rank, p.Col) {
		return NoOp
	}
	i := (p.Rank*cols+p.Col)/2 + p.Rank
	return operatorCycle[i%len(operatorCycle)]
}

// NewMathCheckers plays American rules with numbered men. Each capture folds
// the captured piece's number into the capturer's score through the operator
// on the landing square.
func NewMathCheckers() *Checkers {
	c := NewAmerican()
	c.VariantName = "mathcheckers"
	plain := c.setup
	c.setup = func(c *Checkers, b *board.Board) {
		plain(c, b)
		for _, side := range []board.Side{board.Near, board.Far} {
			for i, p := range b.Pieces(side) {
				p.Value = i + 1
			}
		}
	}
	c.captured = func(_ *Checkers, b *board.Board, side board.Side, at board.Pos, victim board.Piece) {
		pl := &b.Players[side]
		pl.Score = OperatorAt(b.Cols, at).Apply(pl.Score, victim.Weight())
	}
	c.evaluate = func(c *Checkers, b *board.Board, m board.Move) int {
		if c.IsDraw(b) {
			return 0
		}
		if s, ok := rules.Decided(c.Winner(b), m.Player); ok {
			return s
		}
		diff := b.Players[m.Player].Score - b.Players[m.Player.Opponent()].Score
		return diff*10 + c.material(b, m.Player)
	}
	return c
}
