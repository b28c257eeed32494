package checkers

import (
	"checkerboard/internal/board"
	"checkerboard/internal/rules"
)

const (
	// cornerSize is the edge of each side's starting corner.
	cornerSize = 3
	// ugolkiDeadline is the turn after which a side with a piece still at
	// home loses.
	ugolkiDeadline = 40
	// ugolkiLimit is the turn after which an undecided race is drawn.
	ugolkiLimit = 80
)

// NewUgolki is the corners race: men step or hop orthogonally over any piece,
// nothing is captured, and the first side to fill the opposite corner wins.
func NewUgolki() *Checkers {
	c := newVariant("ugolki", 8, 8, rules.Policy{NoCaptures: true})
	c.setup = func(_ *Checkers, b *board.Board) {
		for _, side := range []board.Side{board.Near, board.Far} {
			r0, c0 := home(b, side)
			for r := r0; r < r0+cornerSize; r++ {
				for col := c0; col < c0+cornerSize; col++ {
					b.Place(board.Pos{Rank: r, Col: col}, side, board.DamaMan)
				}
			}
		}
	}
	c.moveSet = func(*Checkers, *board.Piece) deltas {
		return deltas{slides: orthogonal, jumps: orthogonal}
	}
	c.winner = ugolkiWinner
	c.draw = func(_ *Checkers, b *board.Board) bool {
		return turns(b, board.Near) >= ugolkiLimit && turns(b, board.Far) >= ugolkiLimit
	}
	c.evaluate = func(c *Checkers, b *board.Board, m board.Move) int {
		if c.IsDraw(b) {
			return 0
		}
		if s, ok := rules.Decided(c.Winner(b), m.Player); ok {
			return s
		}
		return 10 * (distance(b, m.Player.Opponent()) - distance(b, m.Player))
	}
	return c
}

// home is the top-left corner of side's starting zone. The target zone of a
// side is its opponent's home.
func home(b *board.Board, side board.Side) (int, int) {
	if side == board.Near {
		return b.Ranks - cornerSize, 0
	}
	return 0, b.Cols - cornerSize
}

func inZone(b *board.Board, zone board.Side, p board.Pos) bool {
	r0, c0 := home(b, zone)
	return p.Rank >= r0 && p.Rank < r0+cornerSize && p.Col >= c0 && p.Col < c0+cornerSize
}

func ugolkiWinner(c *Checkers, b *board.Board) board.Side {
	if b.Locked != nil {
		return board.Nobody
	}
	for _, s := range []board.Side{b.Turn.Opponent(), b.Turn} {
		if arrived(b, s) {
			return s
		}
	}
	for _, s := range []board.Side{b.Turn.Opponent(), b.Turn} {
		if turns(b, s) >= ugolkiDeadline && stayedHome(b, s) {
			return s.Opponent()
		}
	}
	return c.Base.Winner(b)
}

func arrived(b *board.Board, side board.Side) bool {
	for _, p := range b.Pieces(side) {
		if !inZone(b, side.Opponent(), p.Pos) {
			return false
		}
	}
	return true
}

func stayedHome(b *board.Board, side board.Side) bool {
	for _, p := range b.Pieces(side) {
		if inZone(b, side, p.Pos) {
			return true
		}
	}
	return false
}

// turns counts the turns side has started.
func turns(b *board.Board, side board.Side) int {
	n := 0
	for _, rec := range b.History {
		if rec.Move.Player == side && !rec.Move.Continuation {
			n++
		}
	}
	return n
}

// distance is the total number of orthogonal steps side's pieces still need
// to reach the target corner.
func distance(b *board.Board, side board.Side) int {
	r0, c0 := home(b, side.Opponent())
	total := 0
	for _, p := range b.Pieces(side) {
		total += gap(p.Rank, r0, r0+cornerSize-1) + gap(p.Col, c0, c0+cornerSize-1)
	}
	return total
}

func gap(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	}
	return 0
}
