package checkerboard

import (
	"checkerboard/internal/board"
	"checkerboard/internal/rules"
)

type cellView struct {
	Rank     int      `json:"rank"`
	Col      int      `json:"col"`
	Owner    string   `json:"owner"`
	Type     string   `json:"type"`
	Code     string   `json:"code"`
	Captured bool     `json:"captured,omitempty"`
	Value    int      `json:"value,omitempty"`
	Stack    []string `json:"stack,omitempty"`
}

type playerView struct {
	ID        string   `json:"id"`
	Side      string   `json:"side"`
	Score     int      `json:"score"`
	Captured  []string `json:"captured,omitempty"`
	ElapsedMs int64    `json:"elapsedMs"`
	Forfeited bool     `json:"forfeited,omitempty"`
}

type stateView struct {
	Variant  string       `json:"variant"`
	Family   string       `json:"family"`
	Ranks    int          `json:"ranks"`
	Cols     int          `json:"cols"`
	Cells    []cellView   `json:"cells"`
	Players  []playerView `json:"players"`
	Turn     string       `json:"turn"`
	TurnSide string       `json:"turnSide"`
	You      string       `json:"you"`
	Locked   *board.Pos   `json:"locked,omitempty"`
	LastMove string       `json:"lastMove,omitempty"`
	Plies    int          `json:"plies"`
	Done     bool         `json:"done"`
	Outcome  string       `json:"outcome"`
	Winner   string       `json:"winner,omitempty"`
}

// State renders the board for playerID. Every player sees the full board.
func (m *Match) State(playerID string) any {
	b := m.Board
	view := stateView{
		Variant:  m.Variant,
		Family:   string(m.rules.Family()),
		Ranks:    b.Ranks,
		Cols:     b.Cols,
		Turn:     m.Players[b.Turn],
		TurnSide: b.Turn.String(),
		You:      m.Seat(playerID).String(),
		Locked:   b.Locked,
		LastMove: m.last,
		Plies:    len(b.History),
	}
	for i := range b.Cells {
		p := &b.Cells[i]
		if p.IsEmpty() {
			continue
		}
		cv := cellView{
			Rank:     p.Rank,
			Col:      p.Col,
			Owner:    p.Owner.String(),
			Type:     p.Type.String(),
			Code:     p.Type.Code(),
			Captured: p.Captured,
			Value:    p.Value,
		}
		for _, s := range p.Stack {
			cv.Stack = append(cv.Stack, s.Owner.String()+":"+s.Type.Code())
		}
		view.Cells = append(view.Cells, cv)
	}
	for _, side := range []board.Side{board.Near, board.Far} {
		pl := b.Players[side]
		pv := playerView{
			ID:        m.Players[side],
			Side:      side.String(),
			Score:     pl.Score,
			ElapsedMs: pl.ElapsedMs,
			Forfeited: pl.Forfeited,
		}
		for _, t := range pl.Captured {
			pv.Captured = append(pv.Captured, t.String())
		}
		view.Players = append(view.Players, pv)
	}
	o := m.Outcome()
	view.Outcome = o.String()
	if o != rules.Ongoing {
		view.Done = true
		if w := o.Winner(); w != board.Nobody {
			view.Winner = m.Players[w]
		} else {
			view.Winner = "draw"
		}
	}
	return view
}
