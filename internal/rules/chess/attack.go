package chess

import "checkerboard/internal/board"

var knightJumps = [8][2]int{
	{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
	{1, -2}, {1, 2}, {2, -1}, {2, 1},
}

type geometry struct{ ranks, cols int }

// knightTargets returns the on-board knight destinations of every square,
// indexed like Board.Cells. The table is built once per board geometry.
func (c *Chess) knightTargets(b *board.Board) [][]board.Pos {
	g := geometry{b.Ranks, b.Cols}
	if t, ok := c.knights[g]; ok {
		return t
	}
	t := make([][]board.Pos, b.Ranks*b.Cols)
	for r := 0; r < b.Ranks; r++ {
		for col := 0; col < b.Cols; col++ {
			from := board.Pos{Rank: r, Col: col}
			for _, d := range knightJumps {
				if to := from.Add(d[0], d[1]); b.InBoundsPos(to) {
					t[r*b.Cols+col] = append(t[r*b.Cols+col], to)
				}
			}
		}
	}
	if c.knights == nil {
		c.knights = make(map[geometry][][]board.Pos)
	}
	c.knights[g] = t
	return t
}

// attacked reports whether any piece of side by could capture on pos. It
// never modifies the board.
func (c *Chess) attacked(b *board.Board, pos board.Pos, by board.Side) bool {
	r := pos.Rank - by.Forward()
	for _, dc := range []int{-1, 1} {
		if !b.InBounds(r, pos.Col+dc) {
			continue
		}
		if q := b.At(r, pos.Col+dc); q.Owner == by && q.Type.Is(board.FlagPawn) {
			return true
		}
	}

	for _, at := range c.knightTargets(b)[pos.Rank*b.Cols+pos.Col] {
		if q := b.AtPos(at); q.Owner == by && q.Type.Is(board.FlagKnight) {
			return true
		}
	}

	for _, d := range allDirs {
		diag := d[0] != 0 && d[1] != 0
		at := pos.Add(d[0], d[1])
		for dist := 1; b.InBoundsPos(at); dist++ {
			q := b.AtPos(at)
			if q.IsEmpty() {
				at = at.Add(d[0], d[1])
				continue
			}
			if q.Owner == by && reaches(q.Type, diag, dist) {
				return true
			}
			break
		}
	}
	return false
}

// reaches reports whether a piece of type t attacks along a line of the given
// kind at distance dist.
func reaches(t board.PieceType, diag bool, dist int) bool {
	switch {
	case t.IsChessKing():
		return dist == 1
	case t.Is(board.FlagLimitedQueen):
		return dist <= DragonRange
	case diag:
		return t.Is(board.FlagBishopOrQueen)
	}
	return t.Is(board.FlagRookOrQueen)
}

func (c *Chess) inCheck(b *board.Board, side board.Side) bool {
	k := c.king(b, side)
	return k != nil && c.attacked(b, k.Pos, side.Opponent())
}
