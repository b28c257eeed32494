package checkers

import (
	"checkerboard/internal/board"
	"checkerboard/internal/rules"
)

// DrawPlies is the number of consecutive king slides, with no capture and no
// man moved, after which the game is drawn (25 turns for each side).
const DrawPlies = 50

func (c *Checkers) Winner(b *board.Board) board.Side {
	if c.winner != nil {
		return c.winner(c, b)
	}
	return c.Base.Winner(b)
}

func (c *Checkers) IsDraw(b *board.Board) bool {
	if c.draw != nil {
		return c.draw(c, b)
	}
	return kingShuffle(b)
}

func kingShuffle(b *board.Board) bool {
	if len(b.History) < DrawPlies {
		return false
	}
	for _, rec := range b.History[len(b.History)-DrawPlies:] {
		m := rec.Move
		if m.Type != board.Slide || !m.StartType.Is(board.FlagKing) || m.HasCaptures() {
			return false
		}
	}
	return true
}

// Evaluate scores the board after m for m.Player: 0 for a draw, ±MaxScore
// for a decided game, material otherwise.
func (c *Checkers) Evaluate(b *board.Board, m board.Move) int {
	if c.evaluate != nil {
		return c.evaluate(c, b, m)
	}
	if c.IsDraw(b) {
		return 0
	}
	if s, ok := rules.Decided(c.Winner(b), m.Player); ok {
		return s
	}
	return c.material(b, m.Player)
}

func (c *Checkers) material(b *board.Board, side board.Side) int {
	return rules.Material(b, side, (*board.Piece).Weight)
}
