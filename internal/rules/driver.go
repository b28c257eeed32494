package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"checkerboard/internal/board"
)

// Outcome is the state of a game as seen by the driving loop.
type Outcome int

const (
	Ongoing Outcome = iota
	NearWins
	FarWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Ongoing:
		return "ongoing"
	case NearWins:
		return "near wins"
	case FarWins:
		return "far wins"
	case Draw:
		return "draw"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Winner maps a decided outcome to its side.
func (o Outcome) Winner() board.Side {
	switch o {
	case NearWins:
		return board.Near
	case FarWins:
		return board.Far
	}
	return board.Nobody
}

func winOutcome(s board.Side) Outcome {
	if s == board.Near {
		return NearWins
	}
	return FarWins
}

// Chooser selects a piece and then one of its moves. Returning false aborts
// the ply. This is the only place the driving loop blocks.
type Chooser interface {
	ChoosePiece(ctx context.Context, b *board.Board, pieces []*board.Piece) (*board.Piece, bool)
	ChooseMove(ctx context.Context, b *board.Board, piece *board.Piece, moves []board.Move) (board.Move, bool)
}

// Driver runs the choose/execute loop for one board.
type Driver struct {
	Rules   Rules
	Board   *board.Board
	Players [2]Chooser
	Log     zerolog.Logger
}

func NewDriver(r Rules, b *board.Board, near, far Chooser) *Driver {
	return &Driver{
		Rules:   r,
		Board:   b,
		Players: [2]Chooser{near, far},
		Log:     zerolog.Nop(),
	}
}

// Outcome evaluates the board. A side to move without legal moves always
// ends the game.
func (d *Driver) Outcome() Outcome {
	return Evaluate(d.Rules, d.Board)
}

// Evaluate reports the outcome of b under r. Legal moves must be computed.
func Evaluate(r Rules, b *board.Board) Outcome {
	if r.IsDraw(b) {
		return Draw
	}
	if w := r.Winner(b); w != board.Nobody {
		return winOutcome(w)
	}
	if b.MoveCount() == 0 {
		return winOutcome(b.Turn.Opponent())
	}
	return Ongoing
}

// Step asks the side to move for a piece and a move and executes it.
func (d *Driver) Step(ctx context.Context) (Outcome, error) {
	if o := d.Outcome(); o != Ongoing {
		return o, ErrGameOver
	}
	b := d.Board
	side := b.Turn
	chooser := d.Players[side]
	if chooser == nil {
		return Ongoing, fmt.Errorf("no chooser seated for %s", side)
	}

	start := time.Now()
	piece, ok := chooser.ChoosePiece(ctx, b, b.Movable())
	if !ok || piece == nil {
		return Ongoing, ErrAborted
	}
	moves := append([]board.Move(nil), piece.Moves...)
	m, ok := chooser.ChooseMove(ctx, b, piece, moves)
	if !ok {
		return Ongoing, ErrAborted
	}
	b.Players[side].ElapsedMs += time.Since(start).Milliseconds()

	d.Rules.Execute(b, m)
	o := d.Outcome()
	d.Log.Debug().
		Str("variant", d.Rules.Name()).
		Int("ply", len(b.History)).
		Stringer("move", m).
		Stringer("outcome", o).
		Msg("executed")
	return o, nil
}

// Run steps until the game ends, a step fails, or maxPlies moves have been
// executed (0 means no limit).
func (d *Driver) Run(ctx context.Context, maxPlies int) (Outcome, error) {
	for n := 0; maxPlies == 0 || n < maxPlies; n++ {
		if err := ctx.Err(); err != nil {
			return Ongoing, err
		}
		o, err := d.Step(ctx)
		if err != nil {
			return o, err
		}
		if o != Ongoing {
			return o, nil
		}
	}
	return d.Outcome(), nil
}
