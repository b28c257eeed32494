package board

import (
	"fmt"
	"strings"
)

// Player is one of the two player slots.
type Player struct {
	Name      string      `json:"name,omitempty"`
	Captured  []PieceType `json:"captured,omitempty"`
	Score     int         `json:"score,omitempty"`
	ElapsedMs int64       `json:"elapsedMs,omitempty"`
	Forfeited bool        `json:"forfeited,omitempty"`
}

// Record is one entry of the undo stack: the executed move plus the pre-image
// of everything it changed.
type Record struct {
	Move     Move    `json:"move"`
	Turn     Side    `json:"turn"`
	Locked   *Pos    `json:"locked,omitempty"`
	Cells    []Piece `json:"cells,omitempty"`
	Scores   [2]int  `json:"scores"`
	Captured [2]int  `json:"captured"`
}

// Board is the grid, the players, whose turn it is and the undo stack.
// Exactly one Piece occupies every cell.
type Board struct {
	Ranks   int       `json:"ranks"`
	Cols    int       `json:"cols"`
	Cells   []Piece   `json:"cells"`
	Turn    Side      `json:"turn"`
	Players [2]Player `json:"players"`
	History []Record  `json:"history,omitempty"`

	// Locked is the piece holding the ply open (pending chain jump, promotion
	// or swap choice). Only its moves are legal while set.
	Locked *Pos `json:"locked,omitempty"`

	// Selected is a UI cursor; the engine never reads it.
	Selected *Pos `json:"-"`

	pending *Record
}

// New returns a ranks x cols board of Empty cells with Near to move.
func New(ranks, cols int) *Board {
	if ranks <= 0 || cols <= 0 {
		Invariant("new board", "bad dimensions %dx%d", ranks, cols)
	}
	b := &Board{Ranks: ranks, Cols: cols, Cells: make([]Piece, ranks*cols), Turn: Near}
	for r := 0; r < ranks; r++ {
		for c := 0; c < cols; c++ {
			b.Cells[r*cols+c] = emptyAt(Pos{Rank: r, Col: c})
		}
	}
	return b
}

func emptyAt(p Pos) Piece {
	return Piece{Pos: p, Owner: Nobody, Type: Empty}
}

func (b *Board) InBounds(r, c int) bool {
	return r >= 0 && r < b.Ranks && c >= 0 && c < b.Cols
}

func (b *Board) InBoundsPos(p Pos) bool { return b.InBounds(p.Rank, p.Col) }

// At returns the occupant of r,c. Out of bounds is an invariant violation.
func (b *Board) At(r, c int) *Piece {
	if !b.InBounds(r, c) {
		Invariant("board at", "%d,%d outside %dx%d", r, c, b.Ranks, b.Cols)
	}
	return &b.Cells[r*b.Cols+c]
}

func (b *Board) AtPos(p Pos) *Piece { return b.At(p.Rank, p.Col) }

// Place puts a fresh piece at p, replacing whatever was there.
func (b *Board) Place(p Pos, owner Side, t PieceType) *Piece {
	b.touch(p)
	cell := b.AtPos(p)
	*cell = Piece{Pos: p, Owner: owner, Type: t}
	return cell
}

// Clear replaces the occupant of p with an Empty piece.
func (b *Board) Clear(p Pos) {
	b.touch(p)
	*b.AtPos(p) = emptyAt(p)
}

// Retype changes the type of the occupant of p in place.
func (b *Board) Retype(p Pos, t PieceType) {
	b.touch(p)
	b.AtPos(p).Type = t
}

// Mark sets the deferred-capture marker on the occupant of p.
func (b *Board) Mark(p Pos, captured bool) {
	b.touch(p)
	b.AtPos(p).Captured = captured
}

// Modify runs fn on the occupant of p after recording its pre-image.
func (b *Board) Modify(p Pos, fn func(*Piece)) {
	b.touch(p)
	fn(b.AtPos(p))
}

// Relocate moves the occupant of from to to (which it overwrites) and leaves
// an Empty piece behind. The moved piece keeps owner, value and stack.
func (b *Board) Relocate(from, to Pos) *Piece {
	if from == to {
		return b.AtPos(to)
	}
	b.touch(from)
	b.touch(to)
	src := b.AtPos(from)
	moved := *src
	moved.Pos = to
	moved.Moves = nil
	*b.AtPos(to) = moved
	*src = emptyAt(from)
	return b.AtPos(to)
}

// Begin opens an undo record for m. Every mutation through the Board methods
// until Commit is recorded.
func (b *Board) Begin(m Move) {
	if b.pending != nil {
		Invariant("begin", "record for %s still open", b.pending.Move)
	}
	if m.Player != b.Turn {
		Invariant("begin", "move %s submitted on %s's turn", m, b.Turn)
	}
	rec := &Record{Move: m, Turn: b.Turn}
	if b.Locked != nil {
		l := *b.Locked
		rec.Locked = &l
	}
	for i := range b.Players {
		rec.Scores[i] = b.Players[i].Score
		rec.Captured[i] = len(b.Players[i].Captured)
	}
	b.pending = rec
}

// Commit closes the open record and pushes it on the undo stack.
func (b *Board) Commit() {
	if b.pending == nil {
		Invariant("commit", "no open record")
	}
	b.History = append(b.History, *b.pending)
	b.pending = nil
}

func (b *Board) touch(p Pos) {
	if b.pending == nil {
		return
	}
	for i := range b.pending.Cells {
		if b.pending.Cells[i].Pos == p {
			return
		}
	}
	b.pending.Cells = append(b.pending.Cells, b.AtPos(p).clone())
}

// Undo pops the most recent record and restores the board to exactly the
// state before it, including the computed moves of every touched cell.
func (b *Board) Undo() (Record, bool) {
	if b.pending != nil {
		Invariant("undo", "record for %s still open", b.pending.Move)
	}
	if len(b.History) == 0 {
		return Record{}, false
	}
	rec := b.History[len(b.History)-1]
	b.History = b.History[:len(b.History)-1]
	for i := len(rec.Cells) - 1; i >= 0; i-- {
		c := rec.Cells[i].clone()
		*b.AtPos(c.Pos) = c
	}
	b.Turn = rec.Turn
	b.Locked = nil
	if rec.Locked != nil {
		l := *rec.Locked
		b.Locked = &l
	}
	for i := range b.Players {
		b.Players[i].Score = rec.Scores[i]
		b.Players[i].Captured = b.Players[i].Captured[:rec.Captured[i]]
	}
	return rec, true
}

// Last returns the most recently executed move.
func (b *Board) Last() (Move, bool) {
	if len(b.History) == 0 {
		return Move{}, false
	}
	return b.History[len(b.History)-1].Move, true
}

// Credit appends a captured type to side's tally.
func (b *Board) Credit(side Side, t PieceType) {
	b.Players[side].Captured = append(b.Players[side].Captured, t)
}

// EndTurn passes the move to the opponent, releases any lock and clears
// every piece's computed moves.
func (b *Board) EndTurn() {
	b.Turn = b.Turn.Opponent()
	b.Locked = nil
	b.ClearMoves()
}

func (b *Board) Lock(p Pos) { b.Locked = &p }

func (b *Board) ClearMoves() {
	for i := range b.Cells {
		b.Cells[i].Moves = nil
	}
}

// Movable lists the pieces with at least one computed move, row-major.
func (b *Board) Movable() []*Piece {
	var out []*Piece
	for i := range b.Cells {
		if len(b.Cells[i].Moves) > 0 {
			out = append(out, &b.Cells[i])
		}
	}
	return out
}

// MoveCount is the total number of computed moves on the board.
func (b *Board) MoveCount() int {
	n := 0
	for i := range b.Cells {
		n += len(b.Cells[i].Moves)
	}
	return n
}

// AllMoves flattens every piece's computed moves.
func (b *Board) AllMoves() []Move {
	var out []Move
	for i := range b.Cells {
		out = append(out, b.Cells[i].Moves...)
	}
	return out
}

// Pieces lists the live (not capture-marked) pieces of side.
func (b *Board) Pieces(side Side) []*Piece {
	var out []*Piece
	for i := range b.Cells {
		p := &b.Cells[i]
		if p.Owner == side && p.Type != Empty && !p.Captured {
			out = append(out, p)
		}
	}
	return out
}

func (b *Board) Count(side Side) int { return len(b.Pieces(side)) }

// Clone deep-copies the board, including history, excluding any open record.
func (b *Board) Clone() *Board {
	c := *b
	c.pending = nil
	c.Cells = make([]Piece, len(b.Cells))
	for i := range b.Cells {
		c.Cells[i] = b.Cells[i].clone()
	}
	c.History = append([]Record(nil), b.History...)
	for i := range b.Players {
		c.Players[i].Captured = append([]PieceType(nil), b.Players[i].Captured...)
	}
	if b.Locked != nil {
		l := *b.Locked
		c.Locked = &l
	}
	c.Selected = nil
	return &c
}

// String renders the grid, rank 0 on top.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.Ranks; r++ {
		for c := 0; c < b.Cols; c++ {
			p := b.At(r, c)
			switch {
			case p.Type == Empty:
				sb.WriteString(" .. ")
			case p.Owner == Nobody:
				fmt.Fprintf(&sb, " %s ", p.Type.Code())
			case p.Captured:
				fmt.Fprintf(&sb, "x%s%d", p.Type.Code(), p.Owner)
			default:
				fmt.Fprintf(&sb, " %s%d", p.Type.Code(), p.Owner)
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "turn: %s\n", b.Turn)
	return sb.String()
}
