package checkerboard

import (
	"context"
	"encoding/json"
	"testing"

	"checkerboard/internal/board"
	"checkerboard/internal/game"
	"checkerboard/internal/rules"
	"checkerboard/internal/rules/chess"
)

func newChessMatch(t *testing.T) (*Game, *Match) {
	t.Helper()
	g := New(func() rules.Rules { return chess.NewChess() })
	return g, g.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice", "bob"}}).(*Match)
}

func countType(actions []game.Action, typ string) int {
	n := 0
	for _, a := range actions {
		if a.Type == typ {
			n++
		}
	}
	return n
}

func firstMove(t *testing.T, m *Match, playerID string) game.Action {
	t.Helper()
	for _, a := range m.ValidActions(playerID) {
		if a.Type == ActionMove {
			return a
		}
	}
	t.Fatalf("%s has no move", playerID)
	return game.Action{}
}

func TestRegisterAll(t *testing.T) {
	reg := game.NewRegistry()
	RegisterAll(reg)
	infos := reg.List()
	if len(infos) != 12 {
		t.Fatalf("expected 12 variants, got %d", len(infos))
	}
	g, ok := reg.Get("draughts")
	if !ok {
		t.Fatal("draughts not registered")
	}
	if info := g.Info(); info.Family != "checkers" || info.Ranks != 10 || info.Cols != 10 || info.MaxPlayers != 2 {
		t.Fatalf("unexpected draughts info %+v", info)
	}
	g, ok = reg.Get("dragonchess")
	if !ok || g.Info().Family != "chess" || g.Info().Ranks != 10 {
		t.Fatalf("unexpected dragonchess info %+v", g.Info())
	}
}

func TestLookup(t *testing.T) {
	f, err := Lookup("bashni")
	if err != nil {
		t.Fatalf("lookup bashni: %v", err)
	}
	a, b := f(), f()
	if a == b || a.Name() != "bashni" {
		t.Fatalf("expected fresh bashni strategies, got %v and %v", a, b)
	}
	if f, err := Lookup("chess"); err != nil || f().Family() != "chess" {
		t.Fatalf("lookup chess: %v", err)
	}
	if _, err := Lookup("backgammon"); err == nil {
		t.Fatal("expected an error for an unknown variant")
	}
	if n := len(Variants()); n != 12 {
		t.Fatalf("expected 12 variants, got %d", n)
	}
}

func TestValidActionsBySeat(t *testing.T) {
	_, m := newChessMatch(t)
	alice := m.ValidActions("alice")
	if countType(alice, ActionMove) != 20 || countType(alice, ActionForfeit) != 1 {
		t.Fatalf("expected 20 moves and a forfeit, got %d actions", len(alice))
	}
	if bob := m.ValidActions("bob"); len(bob) != 1 || bob[0].Type != ActionForfeit {
		t.Fatalf("expected only forfeit for bob, got %v", bob)
	}
	if m.ValidActions("carol") != nil {
		t.Fatal("unseated players have no actions")
	}
}

func TestApplyMove(t *testing.T) {
	_, m := newChessMatch(t)
	a := firstMove(t, m, "alice")
	if err := m.ApplyAction("alice", a); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if m.Board.Turn != board.Far || len(m.Board.History) != 1 {
		t.Fatalf("expected far to move after one ply, got %s / %d", m.Board.Turn, len(m.Board.History))
	}
	var mp MovePayload
	if err := json.Unmarshal(a.Payload, &mp); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if m.LastNotation() != mp.Notation {
		t.Fatalf("last notation %q, want %q", m.LastNotation(), mp.Notation)
	}
	if countType(m.ValidActions("bob"), ActionMove) != 20 {
		t.Fatal("expected bob to have 20 replies")
	}
}

func TestApplyRejects(t *testing.T) {
	_, m := newChessMatch(t)
	bad := func(rank, col, index int) game.Action {
		data, _ := json.Marshal(MovePayload{Rank: rank, Col: col, Index: index})
		return game.Action{Type: ActionMove, Payload: data}
	}
	tests := []struct {
		name   string
		player string
		action game.Action
	}{
		{"wrong turn", "bob", firstMove(t, m, "alice")},
		{"stranger", "carol", firstMove(t, m, "alice")},
		{"off board", "alice", bad(9, 0, 0)},
		{"opponent piece", "alice", bad(1, 0, 0)},
		{"empty square", "alice", bad(4, 4, 0)},
		{"bad index", "alice", bad(6, 0, 5)},
		{"garbage payload", "alice", game.Action{Type: ActionMove, Payload: []byte("{")}},
		{"unknown type", "alice", game.Action{Type: "castle"}},
		{"nothing to undo", "alice", game.Action{Type: ActionUndo}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.ApplyAction(tt.player, tt.action); err == nil {
				t.Fatal("expected error")
			}
			if len(m.Board.History) != 0 {
				t.Fatal("rejected action changed the board")
			}
		})
	}
}

func TestUndoOwnMoveOnly(t *testing.T) {
	_, m := newChessMatch(t)
	before := m.Board.String()
	if err := m.ApplyAction("alice", firstMove(t, m, "alice")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if countType(m.ValidActions("bob"), ActionUndo) != 0 {
		t.Fatal("bob cannot undo alice's move")
	}
	if err := m.ApplyAction("bob", game.Action{Type: ActionUndo}); err == nil {
		t.Fatal("expected bob's undo to fail")
	}
	if countType(m.ValidActions("alice"), ActionUndo) != 1 {
		t.Fatal("alice should be offered undo")
	}
	if err := m.ApplyAction("alice", game.Action{Type: ActionUndo}); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if m.Board.String() != before || m.Board.Turn != board.Near || m.Board.MoveCount() != 20 {
		t.Fatal("undo did not restore the opening")
	}
}

func TestForfeit(t *testing.T) {
	for _, variant := range []Factory{
		func() rules.Rules { return chess.NewChess() },
		func() rules.Rules { return chess.NewDragonChess() },
	} {
		g := New(variant)
		m := g.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice", "bob"}}).(*Match)
		opening := firstMove(t, m, "alice")
		if err := m.ApplyAction("bob", game.Action{Type: ActionForfeit}); err != nil {
			t.Fatalf("%s forfeit: %v", g.Info().Name, err)
		}
		if !m.IsOver() || m.Outcome() != rules.NearWins {
			t.Fatalf("%s: expected near wins, got %s", g.Info().Name, m.Outcome())
		}
		res := m.Results()
		if len(res) != 2 || res[0].PlayerID != "alice" || res[0].Rank != 1 || res[1].Rank != 2 {
			t.Fatalf("unexpected results %+v", res)
		}
		if m.ValidActions("alice") != nil {
			t.Fatal("a finished game offers no actions")
		}
		if err := m.ApplyAction("alice", opening); err == nil {
			t.Fatal("expected game is over")
		}
	}
}

func TestCheckersForfeit(t *testing.T) {
	reg := game.NewRegistry()
	RegisterAll(reg)
	g, _ := reg.Get("russian")
	m := g.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice", "bob"}}).(*Match)
	if err := m.ApplyAction("alice", game.Action{Type: ActionForfeit}); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	if m.Outcome() != rules.FarWins {
		t.Fatalf("expected far wins, got %s", m.Outcome())
	}
	if s := m.State("bob").(stateView); !s.Done || s.Winner != "bob" {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	g, m := newChessMatch(t)
	for i, p := range []string{"alice", "bob", "alice"} {
		if err := m.ApplyAction(p, firstMove(t, m, p)); err != nil {
			t.Fatalf("ply %d: %v", i, err)
		}
	}
	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored := g.NewMatch(game.MatchConfig{PlayerIDs: []string{"_", "_"}}).(*Match)
	if err := restored.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Players != m.Players || restored.Board.String() != m.Board.String() {
		t.Fatal("restored match differs")
	}
	want, _ := json.Marshal(m.ValidActions("bob"))
	got, _ := json.Marshal(restored.ValidActions("bob"))
	if string(want) != string(got) {
		t.Fatalf("restored actions differ\nwant %s\ngot  %s", want, got)
	}
	if err := restored.ApplyAction("bob", game.Action{Type: ActionUndo}); err == nil {
		t.Fatal("undo history should survive persistence, and belongs to alice")
	}
	if err := restored.ApplyAction("alice", game.Action{Type: ActionUndo}); err != nil {
		t.Fatalf("undo after restore: %v", err)
	}

	other := New(func() rules.Rules { return chess.NewDragonChess() }).NewMatch(game.MatchConfig{})
	if err := other.UnmarshalJSON(data); err == nil {
		t.Fatal("expected variant mismatch error")
	}
}

func TestPlayFinishesTheTurn(t *testing.T) {
	reg := game.NewRegistry()
	RegisterAll(reg)
	for _, name := range []string{"checkers", "russian", "bashni", "chess"} {
		t.Run(name, func(t *testing.T) {
			g, _ := reg.Get(name)
			m := g.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice", "bot"}}).(*Match)
			mover := m.Players[m.Board.Turn]
			idle := m.Players[m.Board.Turn.Opponent()]

			played, err := m.Play(context.Background(), idle)
			if err != nil || len(played) != 0 {
				t.Fatalf("off-turn play should do nothing, got %d actions / %v", len(played), err)
			}
			played, err = m.Play(context.Background(), mover)
			if err != nil {
				t.Fatalf("play: %v", err)
			}
			if len(played) == 0 || m.Players[m.Board.Turn] != idle || m.Board.Locked != nil {
				t.Fatalf("expected the turn to pass to %s after %d actions", idle, len(played))
			}
			if m.LastNotation() == "" {
				t.Fatal("expected notation of the played move")
			}
		})
	}
}

func TestStateView(t *testing.T) {
	_, m := newChessMatch(t)
	s := m.State("bob").(stateView)
	if s.You != "far" || s.Turn != "alice" || s.TurnSide != "near" || s.Done {
		t.Fatalf("unexpected state header %+v", s)
	}
	if len(s.Cells) != 32 || len(s.Players) != 2 || s.Outcome != "ongoing" {
		t.Fatalf("expected 32 pieces and an ongoing game, got %d / %s", len(s.Cells), s.Outcome)
	}
	if s.Ranks != 8 || s.Cols != 8 || s.Family != "chess" {
		t.Fatalf("unexpected geometry %dx%d %s", s.Ranks, s.Cols, s.Family)
	}
}
