// Package checkers implements the checkers family: one engine whose variants
// differ by policy flags and a few override hooks.
package checkers

import (
	"math/rand/v2"

	"checkerboard/internal/board"
	"checkerboard/internal/rules"
)

var (
	diagonals  = [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	orthogonal = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
)

// deltas is the direction set of one piece.
type deltas struct {
	slides [][2]int
	jumps  [][2]int
	flying bool
}

// Checkers is the checkers strategy. Variants are built by the constructors
// in variants.go and override behaviour through the hook fields.
type Checkers struct {
	rules.Base
	ranks, cols int

	setup    func(c *Checkers, b *board.Board)
	moveSet  func(c *Checkers, p *board.Piece) deltas
	winner   func(c *Checkers, b *board.Board) board.Side
	draw     func(c *Checkers, b *board.Board) bool
	evaluate func(c *Checkers, b *board.Board, m board.Move) int
	// captured runs once per capture credited to side.
	captured func(c *Checkers, b *board.Board, side board.Side, at board.Pos, victim board.Piece)

	// FirstMover picks who opens; defaults to a coin flip.
	FirstMover func() board.Side
}

var _ rules.Rules = (*Checkers)(nil)

func coinFlip() board.Side {
	return board.Side(rand.IntN(2))
}

func (c *Checkers) Dimensions() (int, int) { return c.ranks, c.cols }

func (c *Checkers) NewBoard() *board.Board {
	b := board.New(c.ranks, c.cols)
	c.setup(c, b)
	first := c.FirstMover
	if first == nil {
		first = coinFlip
	}
	b.Turn = first()
	c.ComputeMoves(b)
	return b
}

// ComputeMoves computes the legal moves for the side to move. Inside an open
// ply only the locked piece's follow-ups are computed.
func (c *Checkers) ComputeMoves(b *board.Board) int {
	b.ClearMoves()
	if b.Locked != nil {
		last, ok := b.Last()
		if !ok || !last.HasEnd() || *last.End != *b.Locked {
			board.Invariant("compute moves", "lock at %s without a matching move", *b.Locked)
		}
		c.followUps(b, last)
		return b.MoveCount()
	}

	anyJump := false
	for _, p := range b.Pieces(b.Turn) {
		if c.ComputeSquare(b, p.Pos, nil) {
			anyJump = true
		}
	}
	if anyJump && c.Flags.JumpsMandatory {
		for _, p := range b.Movable() {
			p.Moves = jumpsOnly(p.Moves)
		}
	}
	if anyJump && c.Flags.MaxJumpsMandatory {
		c.keepLongest(b, b.Movable())
	}
	return b.MoveCount()
}

func jumpsOnly(moves []board.Move) []board.Move {
	out := moves[:0]
	for _, m := range moves {
		if m.IsJump() {
			out = append(out, m)
		}
	}
	return out
}

// ComputeSquare computes one square's moves onto its piece.
func (c *Checkers) ComputeSquare(b *board.Board, pos board.Pos, parent *board.Move) bool {
	p := b.AtPos(pos)
	p.Moves = nil
	if p.Type == board.Empty || p.Owner != b.Turn || p.Captured {
		return false
	}
	jumps := c.jumps(b, p, parent)
	moves := jumps
	if parent == nil && !(c.Flags.JumpsMandatory && len(jumps) > 0) {
		moves = append(moves, c.slides(b, p)...)
	}
	p.Moves = moves
	return len(jumps) > 0
}

func (c *Checkers) deltasOf(p *board.Piece) deltas {
	if c.moveSet != nil {
		return c.moveSet(c, p)
	}
	return c.defaultDeltas(p)
}

func (c *Checkers) defaultDeltas(p *board.Piece) deltas {
	f := p.Owner.Forward()
	switch p.Type {
	case board.Checker:
		d := deltas{slides: [][2]int{{f, -1}, {f, 1}}}
		d.jumps = d.slides
		if c.Flags.MenJumpBackward {
			d.jumps = diagonals
		}
		return d
	case board.DamaMan:
		d := deltas{slides: [][2]int{{f, 0}, {0, -1}, {0, 1}}}
		d.jumps = d.slides
		if c.Flags.MenJumpBackward {
			d.jumps = orthogonal
		}
		return d
	case board.King:
		return deltas{slides: diagonals, jumps: diagonals}
	case board.FlyingKing:
		return deltas{slides: diagonals, jumps: diagonals, flying: true}
	case board.DamaKing:
		return deltas{slides: orthogonal, jumps: orthogonal, flying: c.Flags.FlyingKings}
	}
	return deltas{}
}

// reverses reports whether stepping d from the end of parent would turn the
// chain back through the square it just left.
func reverses(parent *board.Move, d [2]int) bool {
	if parent == nil || !parent.IsJump() {
		return false
	}
	dr, dc := parent.Direction()
	return dr == -d[0] && dc == -d[1]
}

// canJumpOver reports whether mover may jump the occupant v.
func (c *Checkers) canJumpOver(mover, v *board.Piece) bool {
	if v.Type == board.Empty || v.Type == board.Blocked || v.Captured {
		return false
	}
	if c.Flags.NoCaptures {
		return true
	}
	if v.Owner == mover.Owner {
		return c.Flags.CanJumpSelf
	}
	return v.Owner != board.Nobody
}

func (c *Checkers) jumps(b *board.Board, p *board.Piece, parent *board.Move) []board.Move {
	d := c.deltasOf(p)
	// Without captures a hop may not return to any square already stood on
	// this ply.
	var seen map[board.Pos]bool
	if c.Flags.NoCaptures && parent != nil {
		seen = visited(b)
		seen[parent.Start] = true
	}
	var out []board.Move
	for _, dd := range d.jumps {
		if reverses(parent, dd) {
			continue
		}
		var m *board.Move
		if d.flying {
			m = c.flyingJump(b, p, dd)
		} else {
			m = c.shortJump(b, p, dd)
		}
		if m == nil || seen[*m.End] {
			continue
		}
		if parent != nil {
			m.AsContinuation()
		}
		out = append(out, *m)
	}
	return out
}

func (c *Checkers) shortJump(b *board.Board, p *board.Piece, d [2]int) *board.Move {
	over := p.Pos.Add(d[0], d[1])
	land := p.Pos.Add(2*d[0], 2*d[1])
	if !b.InBoundsPos(land) || !b.AtPos(land).IsEmpty() {
		return nil
	}
	v := b.AtPos(over)
	if !c.canJumpOver(p, v) {
		return nil
	}
	return c.jumpMove(board.Jump, p, v, land)
}

// flyingJump scans along d: empties are skipped, the first occupant must be
// jumpable or the ray is blocked, and the landing is the square right past it.
func (c *Checkers) flyingJump(b *board.Board, p *board.Piece, d [2]int) *board.Move {
	at := p.Pos.Add(d[0], d[1])
	for b.InBoundsPos(at) && b.AtPos(at).IsEmpty() {
		at = at.Add(d[0], d[1])
	}
	if !b.InBoundsPos(at) {
		return nil
	}
	v := b.AtPos(at)
	if !c.canJumpOver(p, v) {
		return nil
	}
	land := at.Add(d[0], d[1])
	if !b.InBoundsPos(land) || !b.AtPos(land).IsEmpty() {
		return nil
	}
	return c.jumpMove(board.FlyingJump, p, v, land)
}

func (c *Checkers) jumpMove(t board.MoveType, p, v *board.Piece, land board.Pos) *board.Move {
	m := board.NewMove(t, p.Owner).
		SetStart(p.Pos, p.Type).
		SetEnd(land, p.Type).
		SetJumped(v.Pos)
	if !c.Flags.NoCaptures {
		m.AddCapture(v.Pos, v.Type)
	}
	return m
}

func (c *Checkers) slides(b *board.Board, p *board.Piece) []board.Move {
	d := c.deltasOf(p)
	var out []board.Move
	for _, dd := range d.slides {
		at := p.Pos.Add(dd[0], dd[1])
		for b.InBoundsPos(at) && b.AtPos(at).IsEmpty() {
			out = append(out, *board.NewMove(board.Slide, p.Owner).SetStart(p.Pos, p.Type).SetEnd(at, p.Type))
			if !d.flying {
				break
			}
			at = at.Add(dd[0], dd[1])
		}
	}
	return out
}

// promotionRank is the rank on which side's men are crowned.
func (c *Checkers) promotionRank(side board.Side) int {
	if side == board.Near {
		return 0
	}
	return c.ranks - 1
}

func (c *Checkers) promotes(p *board.Piece) bool {
	if !c.Flags.KingingEnabled || p.Rank != c.promotionRank(p.Owner) {
		return false
	}
	return p.Type == board.Checker || p.Type == board.DamaMan
}

func (c *Checkers) crowned(t board.PieceType) board.PieceType {
	switch t {
	case board.DamaMan:
		return board.DamaKing
	case board.Checker:
		if c.Flags.FlyingKings {
			return board.FlyingKing
		}
		return board.King
	}
	return t
}

// keepLongest drops jump moves whose chain captures fewer pieces than the
// longest chain available among pieces.
func (c *Checkers) keepLongest(b *board.Board, pieces []*board.Piece) {
	best := 0
	lengths := make([][]int, len(pieces))
	for i, p := range pieces {
		lengths[i] = make([]int, len(p.Moves))
		for j, m := range p.Moves {
			if !m.IsJump() {
				continue
			}
			l := c.chainLength(b, m)
			lengths[i][j] = l
			if l > best {
				best = l
			}
		}
	}
	if best == 0 {
		return
	}
	for i, p := range pieces {
		kept := p.Moves[:0]
		for j, m := range p.Moves {
			if !m.IsJump() || lengths[i][j] == best {
				kept = append(kept, m)
			}
		}
		p.Moves = kept
	}
}

// chainLength is the number of pieces captured by m plus the longest
// continuation reachable from its landing square. It works on a copy.
func (c *Checkers) chainLength(b *board.Board, m board.Move) int {
	nb := b.Clone()
	c.applyMove(nb, m)
	best := 0
	for _, next := range c.jumps(nb, nb.AtPos(*m.End), &m) {
		if l := c.chainLength(nb, next); l > best {
			best = l
		}
	}
	return len(m.Captures) + best
}
