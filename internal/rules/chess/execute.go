package chess

import "checkerboard/internal/board"

// Execute plays m. A pawn landing on its last rank keeps the ply open with
// only its swaps legal; every other move passes the turn.
func (c *Chess) Execute(b *board.Board, m board.Move) {
	if b.Locked != nil && m.Start != *b.Locked && m.Type != board.End {
		board.Invariant("execute", "%s while %s holds the ply", m, *b.Locked)
	}
	if m.Type != board.End {
		if p := b.AtPos(m.Start); p.Owner != m.Player {
			board.Invariant("execute", "%s moves a piece owned by %s", m, p.Owner)
		}
	}
	b.Begin(m)
	c.apply(b, m)
	c.refreshChecks(b)
	b.ClearMoves()
	if m.Type != board.Swap && m.EndType == board.PawnToSwap {
		b.Lock(*m.End)
	} else {
		b.EndTurn()
	}
	b.Commit()
	c.ComputeMoves(b)
}

// apply performs the board changes of m without touching turn or lock.
func (c *Chess) apply(b *board.Board, m board.Move) {
	// the opponent's double-stepped pawns stop being capturable en passant
	opp := m.Player.Opponent()
	for i := range b.Cells {
		if q := &b.Cells[i]; q.Type == board.PawnEnPassant && q.Owner == opp {
			b.Retype(q.Pos, board.Pawn)
		}
	}
	switch m.Type {
	case board.Slide, board.Jump:
		for _, cp := range m.Captures {
			b.Clear(cp.Pos)
			b.Credit(m.Player, cp.Type.DisplayType())
		}
		b.Relocate(m.Start, *m.End)
		b.Retype(*m.End, m.EndType)
	case board.Castle:
		b.Relocate(m.Start, *m.End)
		b.Retype(*m.End, m.EndType)
		rook := b.Relocate(*m.RookStart, *m.RookEnd)
		b.Retype(*m.RookEnd, rook.Type.NonIdled())
	case board.Swap:
		b.Retype(m.Start, m.EndType)
	case board.End:
	default:
		board.Invariant("execute", "%s is not a chess move", m.Type)
	}
}

// refreshChecks sets each king's checked sub-state from the attack query.
func (c *Chess) refreshChecks(b *board.Board) {
	for _, side := range []board.Side{board.Near, board.Far} {
		k := c.king(b, side)
		if k == nil {
			continue
		}
		if t := k.Type.WithCheck(c.attacked(b, k.Pos, side.Opponent())); t != k.Type {
			b.Retype(k.Pos, t)
		}
	}
}

// Reverse undoes the last executed move and recomputes the legal moves of
// the restored position.
func (c *Chess) Reverse(b *board.Board) (board.Move, bool) {
	rec, ok := b.Undo()
	if !ok {
		return board.Move{}, false
	}
	c.ComputeMoves(b)
	return rec.Move, true
}

// Forfeit resigns side. If side is to move its only move becomes END.
func (c *Chess) Forfeit(b *board.Board, side board.Side) {
	b.Players[side].Forfeited = true
	if b.Turn == side {
		c.ComputeMoves(b)
	}
}
