package rules

import (
	"errors"

	"checkerboard/internal/board"
)

var (
	// ErrInvariant is the unrecoverable class; see board.InvariantError.
	ErrInvariant = board.ErrInvariant
	// ErrAborted is returned when a chooser declines to pick a piece or move.
	ErrAborted = errors.New("ply aborted by chooser")
	// ErrGameOver is returned when stepping a finished game.
	ErrGameOver = errors.New("game is over")
)

// MaxScore is the evaluation magnitude of a decided game.
const MaxScore = 1_000_000

// Family groups variants whose move generation is structurally the same.
type Family string

const (
	FamilyCheckers Family = "checkers"
	FamilyChess    Family = "chess"
)

// Policy holds the declarative variant flags.
type Policy struct {
	JumpsMandatory     bool `json:"jumpsMandatory"`
	MaxJumpsMandatory  bool `json:"maxJumpsMandatory"`
	CanJumpSelf        bool `json:"canJumpSelf"`
	MenJumpBackward    bool `json:"menJumpBackward"`
	CaptureAtEndOfTurn bool `json:"captureAtEndOfTurn"`
	FlyingKings        bool `json:"flyingKings"`
	KingingEnabled     bool `json:"kingingEnabled"`
	NoCaptures         bool `json:"noCaptures"`
	StackingCaptures   bool `json:"stackingCaptures"`
}

// Rules is a variant strategy. It holds no board state of its own beyond
// per-variant caches and operates on the board passed in. A Rules value is
// not safe for concurrent use; give each game its own.
type Rules interface {
	Name() string
	Family() Family
	Policy() Policy

	// NewBoard sets up the starting position with the first mover's moves
	// already computed.
	NewBoard() *board.Board

	// ComputeMoves computes the legal moves of the side to move (only the
	// locked piece's if a ply is open) onto the pieces and returns the total.
	ComputeMoves(b *board.Board) int

	// ComputeSquare computes the moves of one square. parent is the move
	// that opened the current chain, nil at the start of a ply. It reports
	// whether the square has at least one jump.
	ComputeSquare(b *board.Board, pos board.Pos, parent *board.Move) bool

	// Execute applies m, pushes it on the undo stack and leaves the board
	// with the next legal moves computed: either follow-ups for the mover or
	// the opponent's moves when the turn ended.
	Execute(b *board.Board, m board.Move)

	// Reverse undoes the most recent move and recomputes legal moves.
	Reverse(b *board.Board) (board.Move, bool)

	// Winner reports the winning side, or Nobody. Legal moves must be computed.
	Winner(b *board.Board) board.Side

	IsDraw(b *board.Board) bool

	// Evaluate scores the board after m from m.Player's point of view.
	Evaluate(b *board.Board, m board.Move) int
}

// Forfeiter is implemented by variants that model resignation on the board
// itself.
type Forfeiter interface {
	Forfeit(b *board.Board, side board.Side)
}

// Base carries the name, family and policy every variant shares and supplies
// default predicates.
type Base struct {
	VariantName   string
	VariantFamily Family
	Flags         Policy
}

func (r *Base) Name() string             { return r.VariantName }
func (r *Base) Family() Family           { return r.VariantFamily }
func (r *Base) Policy() Policy           { return r.Flags }
func (r *Base) IsDraw(*board.Board) bool { return false }

// Winner is the default no-legal-moves rule: the side to move loses.
func (r *Base) Winner(b *board.Board) board.Side {
	if b.MoveCount() == 0 {
		return b.Turn.Opponent()
	}
	return board.Nobody
}

// Decided converts a winner into a score for side.
func Decided(winner, side board.Side) (int, bool) {
	switch winner {
	case board.Nobody:
		return 0, false
	case side:
		return MaxScore, true
	default:
		return -MaxScore, true
	}
}

// Material sums weights for side minus the opponent's. Capture-marked pieces
// are already gone for scoring purposes.
func Material(b *board.Board, side board.Side, weight func(*board.Piece) int) int {
	score := 0
	for i := range b.Cells {
		p := &b.Cells[i]
		if p.Type == board.Empty || p.Owner == board.Nobody || p.Captured {
			continue
		}
		if p.Owner == side {
			score += weight(p)
		} else {
			score -= weight(p)
		}
	}
	return score
}
