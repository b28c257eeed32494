package chess

import (
	"checkerboard/internal/board"
	"checkerboard/internal/rules"
)

// Winner is the opponent of a forfeited side, or of a checkmated side to
// move.
func (c *Chess) Winner(b *board.Board) board.Side {
	for _, s := range []board.Side{board.Near, board.Far} {
		if b.Players[s].Forfeited {
			return s.Opponent()
		}
	}
	if b.Locked != nil || b.MoveCount() > 0 {
		return board.Nobody
	}
	if c.king(b, b.Turn) == nil || c.inCheck(b, b.Turn) {
		return b.Turn.Opponent()
	}
	return board.Nobody
}

// IsDraw holds for stalemate and when only kings are left.
func (c *Chess) IsDraw(b *board.Board) bool {
	if b.Players[board.Near].Forfeited || b.Players[board.Far].Forfeited {
		return false
	}
	if onlyKings(b) {
		return true
	}
	return b.Locked == nil && b.MoveCount() == 0 &&
		c.king(b, b.Turn) != nil && !c.inCheck(b, b.Turn)
}

func onlyKings(b *board.Board) bool {
	for i := range b.Cells {
		p := &b.Cells[i]
		if p.Owner != board.Nobody && !p.Type.IsChessKing() {
			return false
		}
	}
	return true
}

func (c *Chess) Evaluate(b *board.Board, m board.Move) int {
	if c.IsDraw(b) {
		return 0
	}
	if s, ok := rules.Decided(c.Winner(b), m.Player); ok {
		return s
	}
	return rules.Material(b, m.Player, func(p *board.Piece) int { return p.Type.Value() })
}
