// Package chess implements the chess family: orthodox chess and the 10x10
// dragon variant. Move generation is pseudo-legal followed by a legality
// filter that plays every candidate on the board and takes it back.
package chess

import (
	"fmt"

	"golang.org/x/exp/slices"

	"checkerboard/internal/board"
	"checkerboard/internal/rules"
)

// DragonRange caps how far a dragon moves along a line.
const DragonRange = 3

var (
	orthogonal = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagonal   = [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	allDirs    = append(append([][2]int(nil), orthogonal...), diagonal...)
)

// Chess is the chess strategy. It owns the knight table cache, so a value
// must not be shared between goroutines.
type Chess struct {
	rules.Base
	ranks, cols int
	backRank    []board.PieceType
	swaps       []board.PieceType

	knights map[geometry][][]board.Pos

	// FirstMover picks who opens; defaults to Near.
	FirstMover func() board.Side
}

var _ rules.Rules = (*Chess)(nil)

var constructors = map[string]func() *Chess{
	"chess":       NewChess,
	"dragonchess": NewDragonChess,
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
func New(name string) (*Chess, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown chess variant %q", name)
	}
	return ctor(), nil
}

func newVariant(name string, size int, backRank []board.PieceType) *Chess {
	return &Chess{
		Base:     rules.Base{VariantName: name, VariantFamily: rules.FamilyChess},
		ranks:    size,
		cols:     size,
		backRank: backRank,
		swaps:    []board.PieceType{board.Queen, board.Rook, board.Bishop, board.KnightL},
	}
}

// NewChess is orthodox chess. Near plays the white pieces from the last two
// ranks.
func NewChess() *Chess {
	return newVariant("chess", 8, []board.PieceType{
		board.RookIdle, board.KnightL, board.Bishop, board.Queen,
		board.UncheckedKingIdle, board.Bishop, board.KnightR, board.RookIdle,
	})
}

// NewDragonChess is played on 10x10 with a dragon in each corner. Dragons
// move like a queen up to DragonRange squares and castle like rooks.
func NewDragonChess() *Chess {
	return newVariant("dragonchess", 10, []board.PieceType{
		board.DragonIdle, board.KnightL, board.Bishop, board.Rook, board.Queen,
		board.UncheckedKingIdle, board.Rook, board.Bishop, board.KnightR, board.DragonIdle,
	})
}

func (c *Chess) Dimensions() (int, int) { return c.ranks, c.cols }

func (c *Chess) NewBoard() *board.Board {
	b := board.New(c.ranks, c.cols)
	for col, t := range c.backRank {
		b.Place(board.Pos{Rank: 0, Col: col}, board.Far, t)
		b.Place(board.Pos{Rank: 1, Col: col}, board.Far, board.PawnIdle)
		b.Place(board.Pos{Rank: c.ranks - 2, Col: col}, board.Near, board.PawnIdle)
		b.Place(board.Pos{Rank: c.ranks - 1, Col: col}, board.Near, t)
	}
	b.Turn = board.Near
	if c.FirstMover != nil {
		b.Turn = c.FirstMover()
	}
	c.ComputeMoves(b)
	return b
}

// ComputeMoves computes the legal moves of the side to move. A forfeited
// side gets a single END; a pawn awaiting its swap gets only the swaps.
func (c *Chess) ComputeMoves(b *board.Board) int {
	b.ClearMoves()
	if b.Players[b.Turn].Forfeited {
		c.offerEnd(b)
		return b.MoveCount()
	}
	if b.Locked != nil {
		c.ComputeSquare(b, *b.Locked, nil)
		return b.MoveCount()
	}
	for _, p := range b.Pieces(b.Turn) {
		c.ComputeSquare(b, p.Pos, nil)
	}
	return b.MoveCount()
}

func (c *Chess) offerEnd(b *board.Board) {
	var at *board.Piece
	if b.Locked != nil {
		at = b.AtPos(*b.Locked)
	} else {
		at = c.king(b, b.Turn)
	}
	if at == nil {
		return
	}
	at.Moves = []board.Move{*board.NewMove(board.End, b.Turn).SetStart(at.Pos, at.Type)}
}

// ComputeSquare computes the legal moves of one square and reports whether
// any of them captures. parent is unused in chess.
func (c *Chess) ComputeSquare(b *board.Board, pos board.Pos, _ *board.Move) bool {
	p := b.AtPos(pos)
	p.Moves = nil
	if p.IsEmpty() || p.Owner != b.Turn {
		return false
	}
	var legal []board.Move
	captures := false
	for _, m := range c.candidates(b, p) {
		if m.Type != board.Swap && !c.legal(b, m) {
			continue
		}
		legal = append(legal, m)
		captures = captures || m.HasCaptures()
	}
	b.AtPos(pos).Moves = legal
	return captures
}

// legal plays m, asks whether the mover's king is attacked and takes m back.
func (c *Chess) legal(b *board.Board, m board.Move) bool {
	b.Begin(m)
	c.apply(b, m)
	b.Commit()
	defer b.Undo()
	k := c.king(b, m.Player)
	return k == nil || !c.attacked(b, k.Pos, m.Player.Opponent())
}

func (c *Chess) candidates(b *board.Board, p *board.Piece) []board.Move {
	t := p.Type
	switch {
	case t == board.PawnToSwap:
		return c.swapMoves(p)
	case t.Is(board.FlagPawn):
		return c.pawnMoves(b, p)
	case t.Is(board.FlagKnight):
		var out []board.Move
		for _, to := range c.knightTargets(b)[p.Rank*b.Cols+p.Col] {
			if m, ok := c.step(p, b.AtPos(to)); ok {
				out = append(out, m)
			}
		}
		return out
	case t.IsChessKing():
		return append(c.rays(b, p, allDirs, 1), c.castles(b, p)...)
	case t.Is(board.FlagLimitedQueen):
		return c.rays(b, p, allDirs, DragonRange)
	}
	var out []board.Move
	if t.Is(board.FlagRookOrQueen) {
		out = append(out, c.rays(b, p, orthogonal, 0)...)
	}
	if t.Is(board.FlagBishopOrQueen) {
		out = append(out, c.rays(b, p, diagonal, 0)...)
	}
	return out
}

// moved is the type a piece takes after moving.
func moved(t board.PieceType) board.PieceType {
	if t.IsChessKing() {
		return t.NonIdled().WithCheck(false)
	}
	return t.NonIdled()
}

// step moves p onto target: a slide if empty, a capture if an opponent,
// nothing otherwise.
func (c *Chess) step(p, target *board.Piece) (board.Move, bool) {
	end := moved(p.Type)
	switch {
	case target.IsEmpty():
		return *board.NewMove(board.Slide, p.Owner).SetStart(p.Pos, p.Type).SetEnd(target.Pos, end), true
	case target.IsOpponent(p.Owner):
		return *board.NewMove(board.Jump, p.Owner).
			SetStart(p.Pos, p.Type).
			SetEnd(target.Pos, end).
			AddCapture(target.Pos, target.Type), true
	}
	return board.Move{}, false
}

// rays casts along dirs up to limit squares (0 for no limit), stopping at the
// first occupied square.
func (c *Chess) rays(b *board.Board, p *board.Piece, dirs [][2]int, limit int) []board.Move {
	var out []board.Move
	for _, d := range dirs {
		at := p.Pos.Add(d[0], d[1])
		for n := 1; b.InBoundsPos(at) && (limit == 0 || n <= limit); n++ {
			target := b.AtPos(at)
			if m, ok := c.step(p, target); ok {
				out = append(out, m)
			}
			if !target.IsEmpty() {
				break
			}
			at = at.Add(d[0], d[1])
		}
	}
	return out
}

// lastRank is the rank where side's pawns are swapped.
func (c *Chess) lastRank(side board.Side) int {
	if side == board.Near {
		return 0
	}
	return c.ranks - 1
}

func (c *Chess) pawnEnd(side board.Side, to board.Pos) board.PieceType {
	if to.Rank == c.lastRank(side) {
		return board.PawnToSwap
	}
	return board.Pawn
}

func (c *Chess) pawnMoves(b *board.Board, p *board.Piece) []board.Move {
	f := p.Owner.Forward()
	var out []board.Move
	one := p.Pos.Add(f, 0)
	if b.InBoundsPos(one) && b.AtPos(one).IsEmpty() {
		out = append(out, *board.NewMove(board.Slide, p.Owner).
			SetStart(p.Pos, p.Type).
			SetEnd(one, c.pawnEnd(p.Owner, one)))
		two := one.Add(f, 0)
		if p.Type.IsIdle() && b.InBoundsPos(two) && b.AtPos(two).IsEmpty() {
			out = append(out, *board.NewMove(board.Slide, p.Owner).
				SetStart(p.Pos, p.Type).
				SetEnd(two, board.PawnEnPassant))
		}
	}
	for _, dc := range []int{-1, 1} {
		to := p.Pos.Add(f, dc)
		if !b.InBoundsPos(to) {
			continue
		}
		target := b.AtPos(to)
		if target.IsOpponent(p.Owner) {
			out = append(out, *board.NewMove(board.Jump, p.Owner).
				SetStart(p.Pos, p.Type).
				SetEnd(to, c.pawnEnd(p.Owner, to)).
				AddCapture(to, target.Type))
			continue
		}
		if !target.IsEmpty() {
			continue
		}
		beside := b.AtPos(p.Pos.Add(0, dc))
		if beside.Type == board.PawnEnPassant && beside.IsOpponent(p.Owner) {
			out = append(out, *board.NewMove(board.Jump, p.Owner).
				SetStart(p.Pos, p.Type).
				SetEnd(to, c.pawnEnd(p.Owner, to)).
				AddCapture(beside.Pos, beside.Type).
				SetEnPassant(beside.Pos))
		}
	}
	return out
}

func (c *Chess) swapMoves(p *board.Piece) []board.Move {
	out := make([]board.Move, 0, len(c.swaps))
	for _, t := range c.swaps {
		out = append(out, *board.NewMove(board.Swap, p.Owner).
			SetStart(p.Pos, p.Type).
			SetEnd(p.Pos, t).
			AsContinuation())
	}
	return out
}

// castles offers castling from an idle unchecked king toward the first piece
// along its rank when that piece is an own idle rook or dragon at least three
// files away and every square between them is empty and unattacked.
func (c *Chess) castles(b *board.Board, p *board.Piece) []board.Move {
	if p.Type != board.UncheckedKingIdle {
		return nil
	}
	var out []board.Move
	for _, dc := range []int{-1, 1} {
		at, dist := p.Pos.Add(0, dc), 1
		for b.InBoundsPos(at) && b.AtPos(at).IsEmpty() {
			at, dist = at.Add(0, dc), dist+1
		}
		if !b.InBoundsPos(at) || dist < 3 {
			continue
		}
		rook := b.AtPos(at)
		if rook.Owner != p.Owner || (rook.Type != board.RookIdle && rook.Type != board.DragonIdle) {
			continue
		}
		safe := true
		for i := 1; i < dist && safe; i++ {
			safe = !c.attacked(b, p.Pos.Add(0, i*dc), p.Owner.Opponent())
		}
		if !safe {
			continue
		}
		out = append(out, *board.NewMove(board.Castle, p.Owner).
			SetStart(p.Pos, p.Type).
			SetEnd(p.Pos.Add(0, 2*dc), board.UncheckedKing).
			SetCastle(rook.Pos, p.Pos.Add(0, dc)))
	}
	return out
}

// king finds side's king, or nil.
func (c *Chess) king(b *board.Board, side board.Side) *board.Piece {
	for i := range b.Cells {
		p := &b.Cells[i]
		if p.Owner == side && p.Type.IsChessKing() {
			return p
		}
	}
	return nil
}
