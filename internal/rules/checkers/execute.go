package checkers

import (
	"checkerboard/internal/board"
)

// Execute applies m. A jump that leaves further jumps, or a man reaching the
// crowning rank, keeps the ply open with the landed piece locked; anything
// else ends the turn and computes the opponent's moves.
func (c *Checkers) Execute(b *board.Board, m board.Move) {
	if b.Locked != nil && m.Start != *b.Locked {
		board.Invariant("execute", "%s while %s holds the ply", m, *b.Locked)
	}
	b.Begin(m)
	ended := true
	switch m.Type {
	case board.End:
	case board.Stack:
		b.Retype(m.Start, m.EndType)
	case board.Slide, board.Jump, board.FlyingJump:
		if p := b.AtPos(m.Start); p.Owner != m.Player {
			board.Invariant("execute", "%s moves a piece owned by %s", m, p.Owner)
		}
		c.applyMove(b, m)
		b.ClearMoves()
		if ended = c.followUps(b, m); !ended {
			b.Lock(*m.End)
		}
	default:
		board.Invariant("execute", "%s is not a checkers move", m.Type)
	}
	if ended {
		c.endTurn(b, m)
	}
	b.Commit()
	if ended {
		c.ComputeMoves(b)
	}
}

// applyMove relocates the mover and settles its captures under the variant's
// capture policy.
func (c *Checkers) applyMove(b *board.Board, m board.Move) {
	b.Relocate(m.Start, *m.End)
	for _, cp := range m.Captures {
		switch {
		case c.Flags.StackingCaptures:
			c.bury(b, *m.End, cp.Pos)
		case c.Flags.CaptureAtEndOfTurn:
			b.Mark(cp.Pos, true)
		default:
			victim := *b.AtPos(cp.Pos)
			b.Clear(cp.Pos)
			c.credit(b, m.Player, *m.End, victim)
		}
	}
}

// bury moves the top of the column at victim to the bottom of the column at
// capturer. The next piece down, if any, becomes the victim column's top.
func (c *Checkers) bury(b *board.Board, capturer, victim board.Pos) {
	v := *b.AtPos(victim)
	b.Modify(capturer, func(p *board.Piece) {
		p.Stack = append(p.Stack, board.Stacked{Owner: v.Owner, Type: v.Type})
	})
	if len(v.Stack) == 0 {
		b.Clear(victim)
		return
	}
	b.Modify(victim, func(p *board.Piece) {
		p.Owner = v.Stack[0].Owner
		p.Type = v.Stack[0].Type
		p.Stack = append([]board.Stacked(nil), v.Stack[1:]...)
		if len(p.Stack) == 0 {
			p.Stack = nil
		}
	})
}

func (c *Checkers) credit(b *board.Board, side board.Side, at board.Pos, victim board.Piece) {
	b.Credit(side, victim.Type)
	if c.captured != nil {
		c.captured(c, b, side, at, victim)
	}
}

// followUps computes the moves still open to the piece that landed after m
// and reports whether the ply is over.
func (c *Checkers) followUps(b *board.Board, m board.Move) bool {
	if !m.HasEnd() {
		return true
	}
	p := b.AtPos(*m.End)
	if c.promotes(p) {
		// Under mandatory jumps a man that can keep capturing does so before
		// being crowned.
		if m.IsJump() && c.Flags.JumpsMandatory && c.ComputeSquare(b, p.Pos, &m) {
			if c.Flags.MaxJumpsMandatory {
				c.keepLongest(b, []*board.Piece{p})
			}
			return false
		}
		p.Moves = []board.Move{*board.NewMove(board.Stack, m.Player).
			SetStart(p.Pos, p.Type).
			SetPromotion(c.crowned(p.Type)).
			AsContinuation()}
		return false
	}
	if !m.IsJump() {
		return true
	}
	if !c.ComputeSquare(b, p.Pos, &m) {
		return true
	}
	if c.Flags.MaxJumpsMandatory {
		c.keepLongest(b, []*board.Piece{p})
	}
	if !c.Flags.JumpsMandatory {
		p.Moves = append(p.Moves, *board.NewMove(board.End, m.Player).
			SetStart(p.Pos, p.Type).
			AsContinuation())
	}
	return false
}

// endTurn sweeps deferred captures, crediting them to the side whose turn is
// ending, and passes the move.
func (c *Checkers) endTurn(b *board.Board, m board.Move) {
	if c.Flags.CaptureAtEndOfTurn {
		at := m.Start
		if m.HasEnd() {
			at = *m.End
		}
		for i := range b.Cells {
			v := b.Cells[i]
			if !v.Captured {
				continue
			}
			b.Clear(v.Pos)
			c.credit(b, b.Turn, at, v)
		}
	}
	b.EndTurn()
}

// Reverse undoes the last executed move and recomputes the legal moves of
// the restored position.
func (c *Checkers) Reverse(b *board.Board) (board.Move, bool) {
	rec, ok := b.Undo()
	if !ok {
		return board.Move{}, false
	}
	c.ComputeMoves(b)
	return rec.Move, true
}

// visited lists the squares the side to move has already stood on during the
// current ply.
func visited(b *board.Board) map[board.Pos]bool {
	seen := make(map[board.Pos]bool)
	for i := len(b.History) - 1; i >= 0; i-- {
		m := b.History[i].Move
		if m.Player != b.Turn {
			break
		}
		seen[m.Start] = true
		if !m.Continuation {
			break
		}
	}
	return seen
}
