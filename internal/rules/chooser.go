package rules

import (
	"context"
	"math/rand/v2"

	"golang.org/x/exp/slices"

	"checkerboard/internal/board"
)

// OrderMoves sorts moves best-first by CompareValue, keeping generation order
// among equals.
func OrderMoves(moves []board.Move) {
	slices.SortStableFunc(moves, func(a, b board.Move) int {
		return b.CompareValue - a.CompareValue
	})
}

// RandomChooser picks uniformly.
type RandomChooser struct {
	Rand *rand.Rand
}

func NewRandomChooser(seed uint64) *RandomChooser {
	return &RandomChooser{Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (c *RandomChooser) ChoosePiece(_ context.Context, _ *board.Board, pieces []*board.Piece) (*board.Piece, bool) {
	if len(pieces) == 0 {
		return nil, false
	}
	return pieces[c.Rand.IntN(len(pieces))], true
}

func (c *RandomChooser) ChooseMove(_ context.Context, _ *board.Board, _ *board.Piece, moves []board.Move) (board.Move, bool) {
	if len(moves) == 0 {
		return board.Move{}, false
	}
	return moves[c.Rand.IntN(len(moves))], true
}

// GreedyChooser plays the move with the best one-ply evaluation, breaking
// ties by CompareValue.
type GreedyChooser struct {
	Rules Rules
	best  *board.Move
}

func (c *GreedyChooser) ChoosePiece(ctx context.Context, b *board.Board, pieces []*board.Piece) (*board.Piece, bool) {
	var all []board.Move
	for _, p := range pieces {
		all = append(all, p.Moves...)
	}
	m, ok := c.pick(b, all)
	if !ok {
		return nil, false
	}
	c.best = &m
	return b.AtPos(m.Start), true
}

func (c *GreedyChooser) ChooseMove(_ context.Context, b *board.Board, piece *board.Piece, moves []board.Move) (board.Move, bool) {
	if c.best != nil && c.best.Start == piece.Pos {
		for _, m := range moves {
			if m.Equal(*c.best) {
				c.best = nil
				return m, true
			}
		}
	}
	c.best = nil
	return c.pick(b, moves)
}

func (c *GreedyChooser) pick(b *board.Board, moves []board.Move) (board.Move, bool) {
	if len(moves) == 0 {
		return board.Move{}, false
	}
	ordered := append([]board.Move(nil), moves...)
	OrderMoves(ordered)
	best, bestScore := ordered[0], 0
	for i, m := range ordered {
		c.Rules.Execute(b, m)
		score := c.Rules.Evaluate(b, m)
		c.Rules.Reverse(b)
		if i == 0 || score > bestScore {
			best, bestScore = m, score
		}
	}
	return best, true
}
