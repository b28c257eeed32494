package board

import "fmt"

// Flag is a movement class. A piece type carries a set of them.
type Flag uint8

const (
	FlagKing Flag = 1 << iota
	FlagPawn
	FlagRookOrQueen
	FlagBishopOrQueen
	FlagKnight
	FlagLimitedQueen
	FlagChecker
)

// PieceType is the closed set of occupant kinds. Several tags are sub-states of
// one logical piece (idle, checked, en passant) so that undo can restore them.
type PieceType uint8

const (
	Empty PieceType = iota
	Pawn
	PawnIdle
	PawnEnPassant
	PawnToSwap
	Bishop
	KnightL
	KnightR
	Rook
	RookIdle
	Dragon
	DragonIdle
	Queen
	CheckedKing
	CheckedKingIdle
	UncheckedKing
	UncheckedKingIdle
	King
	FlyingKing
	Checker
	DamaMan
	DamaKing
	Blocked

	numPieceTypes = int(iota)
)

type typeInfo struct {
	code    string
	value   int
	flags   Flag
	idle    bool
	display PieceType
	idled   PieceType
	active  PieceType
}

var pieceTypes = [numPieceTypes]typeInfo{
	Empty:             {code: "  ", display: Empty, idled: Empty, active: Empty},
	Pawn:              {code: "Pn", value: 1, flags: FlagPawn, display: Pawn, idled: PawnIdle, active: Pawn},
	PawnIdle:          {code: "Pi", value: 1, flags: FlagPawn, idle: true, display: Pawn, idled: PawnIdle, active: Pawn},
	PawnEnPassant:     {code: "Pe", value: 1, flags: FlagPawn, display: Pawn, idled: PawnIdle, active: PawnEnPassant},
	PawnToSwap:        {code: "Ps", value: 1, flags: FlagPawn, display: PawnToSwap, idled: PawnToSwap, active: PawnToSwap},
	Bishop:            {code: "Bi", value: 3, flags: FlagBishopOrQueen, display: Bishop, idled: Bishop, active: Bishop},
	KnightL:           {code: "Nl", value: 3, flags: FlagKnight, display: KnightL, idled: KnightL, active: KnightL},
	KnightR:           {code: "Nr", value: 3, flags: FlagKnight, display: KnightL, idled: KnightR, active: KnightR},
	Rook:              {code: "Ro", value: 5, flags: FlagRookOrQueen, display: Rook, idled: RookIdle, active: Rook},
	RookIdle:          {code: "Ri", value: 5, flags: FlagRookOrQueen, idle: true, display: Rook, idled: RookIdle, active: Rook},
	Dragon:            {code: "Dr", value: 6, flags: FlagLimitedQueen, display: Dragon, idled: DragonIdle, active: Dragon},
	DragonIdle:        {code: "Di", value: 6, flags: FlagLimitedQueen, idle: true, display: Dragon, idled: DragonIdle, active: Dragon},
	Queen:             {code: "Qu", value: 9, flags: FlagRookOrQueen | FlagBishopOrQueen, display: Queen, idled: Queen, active: Queen},
	CheckedKing:       {code: "Kc", value: 100, flags: FlagKing, display: King, idled: CheckedKingIdle, active: CheckedKing},
	CheckedKingIdle:   {code: "KC", value: 100, flags: FlagKing, idle: true, display: King, idled: CheckedKingIdle, active: CheckedKing},
	UncheckedKing:     {code: "Ku", value: 100, flags: FlagKing, display: King, idled: UncheckedKingIdle, active: UncheckedKing},
	UncheckedKingIdle: {code: "KU", value: 100, flags: FlagKing, idle: true, display: King, idled: UncheckedKingIdle, active: UncheckedKing},
	King:              {code: "Ki", value: 3, flags: FlagChecker | FlagKing, display: King, idled: King, active: King},
	FlyingKing:        {code: "Fk", value: 5, flags: FlagChecker | FlagKing, display: King, idled: FlyingKing, active: FlyingKing},
	Checker:           {code: "Ch", value: 1, flags: FlagChecker, display: Checker, idled: Checker, active: Checker},
	DamaMan:           {code: "Dm", value: 1, flags: FlagChecker, display: Checker, idled: DamaMan, active: DamaMan},
	DamaKing:          {code: "Dk", value: 5, flags: FlagChecker | FlagKing, display: King, idled: DamaKing, active: DamaKing},
	Blocked:           {code: "XX", display: Blocked, idled: Blocked, active: Blocked},
}

func (t PieceType) info() typeInfo {
	if int(t) >= numPieceTypes {
		Invariant("piece type", "unknown piece type %d", uint8(t))
	}
	return pieceTypes[t]
}

// Code is the two character display code.
func (t PieceType) Code() string { return t.info().code }

// Value is the heuristic material value.
func (t PieceType) Value() int { return t.info().value }

func (t PieceType) Flags() Flag { return t.info().flags }

// Is reports whether t carries any of the flags in f.
func (t PieceType) Is(f Flag) bool { return t.info().flags&f != 0 }

// IsIdle reports whether t is the "has not moved yet" sub-state.
func (t PieceType) IsIdle() bool { return t.info().idle }

// DisplayType collapses sub-states to the logical piece (chess and checkers
// kings to King, all plain pawns to Pawn, ...).
func (t PieceType) DisplayType() PieceType { return t.info().display }

// Idled returns the idle counterpart. Types without one return themselves.
func (t PieceType) Idled() PieceType { return t.info().idled }

// NonIdled returns the moved counterpart. Types without one return themselves.
func (t PieceType) NonIdled() PieceType { return t.info().active }

// IsChessKing reports whether t is one of the four chess king sub-states.
func (t PieceType) IsChessKing() bool {
	switch t {
	case CheckedKing, CheckedKingIdle, UncheckedKing, UncheckedKingIdle:
		return true
	}
	return false
}

// WithCheck returns the king sub-state with the checked flag set as given,
// keeping idleness. Non-king types are returned unchanged.
func (t PieceType) WithCheck(checked bool) PieceType {
	if !t.IsChessKing() {
		return t
	}
	idle := t.IsIdle()
	switch {
	case checked && idle:
		return CheckedKingIdle
	case checked:
		return CheckedKing
	case idle:
		return UncheckedKingIdle
	default:
		return UncheckedKing
	}
}

func (t PieceType) String() string {
	switch t {
	case Empty:
		return "EMPTY"
	case Pawn:
		return "PAWN"
	case PawnIdle:
		return "PAWN_IDLE"
	case PawnEnPassant:
		return "PAWN_ENPASSANT"
	case PawnToSwap:
		return "PAWN_TOSWAP"
	case Bishop:
		return "BISHOP"
	case KnightL:
		return "KNIGHT_L"
	case KnightR:
		return "KNIGHT_R"
	case Rook:
		return "ROOK"
	case RookIdle:
		return "ROOK_IDLE"
	case Dragon:
		return "DRAGON"
	case DragonIdle:
		return "DRAGON_IDLE"
	case Queen:
		return "QUEEN"
	case CheckedKing:
		return "CHECKED_KING"
	case CheckedKingIdle:
		return "CHECKED_KING_IDLE"
	case UncheckedKing:
		return "UNCHECKED_KING"
	case UncheckedKingIdle:
		return "UNCHECKED_KING_IDLE"
	case King:
		return "KING"
	case FlyingKing:
		return "FLYING_KING"
	case Checker:
		return "CHECKER"
	case DamaMan:
		return "DAMA_MAN"
	case DamaKing:
		return "DAMA_KING"
	case Blocked:
		return "BLOCKED"
	default:
		return fmt.Sprintf("piece(%d)", uint8(t))
	}
}
