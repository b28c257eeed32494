package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"nhooyr.io/websocket"

	"checkerboard/internal/session"
	"checkerboard/internal/storage"
)

// --- Static File Test ---

func TestStaticFileServing(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "test") {
		t.Fatalf("expected test content, got %s", string(body))
	}
}

// --- WebSocket Join & Encoding Tests ---

func TestWebSocketJoin(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code := createSessionViaAPI(t, env.ts, "checkers", "alice")

	aliceConn := wsConnect(t, env.ts, code, "alice")
	defer aliceConn.Close(websocket.StatusNormalClosure, "")
	readState(t, ctx, aliceConn) // drain alice's initial state

	bobConn := wsConnect(t, env.ts, code, "bob")
	defer bobConn.Close(websocket.StatusNormalClosure, "")

	// Both receive state broadcast with both players
	aliceState := readState(t, ctx, aliceConn)
	bobState := readState(t, ctx, bobConn)

	if len(aliceState.SessionInfo.Players) != 2 {
		t.Fatalf("alice: expected 2 players, got %d", len(aliceState.SessionInfo.Players))
	}
	if len(bobState.SessionInfo.Players) != 2 {
		t.Fatalf("bob: expected 2 players, got %d", len(bobState.SessionInfo.Players))
	}
	if !containsPlayer(aliceState.SessionInfo.Players, "alice") || !containsPlayer(aliceState.SessionInfo.Players, "bob") {
		t.Fatalf("expected both players: %v", aliceState.SessionInfo.Players)
	}
	if aliceState.State != nil {
		t.Fatalf("expected no board before start, got %v", aliceState.State)
	}
}

func TestWebSocketJoinEncodingNotDoubleEncoded(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("correct format succeeds", func(t *testing.T) {
		ctx, cancel := timeoutCtx(t)
		defer cancel()

		code := createSessionViaAPI(t, env.ts, "checkers", "alice")
		aliceConn := wsConnect(t, env.ts, code, "alice")
		defer aliceConn.Close(websocket.StatusNormalClosure, "")
		readState(t, ctx, aliceConn)

		conn, _, err := websocket.Dial(ctx, wsURL(env.ts, code), nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		// Correct format: payload is a JSON object
		raw := `{"type":"join","payload":{"playerId":"bob"}}`
		if err := conn.Write(ctx, websocket.MessageText, []byte(raw)); err != nil {
			t.Fatalf("write: %v", err)
		}

		msg, err := readWS(ctx, conn)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != "state" {
			t.Fatalf("expected state, got %q", msg.Type)
		}
	})

	t.Run("double-encoded format fails", func(t *testing.T) {
		ctx, cancel := timeoutCtx(t)
		defer cancel()

		code := createSessionViaAPI(t, env.ts, "checkers", "alice")
		conn, _, err := websocket.Dial(ctx, wsURL(env.ts, code), nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		// Double-encoded: payload is a JSON string, not an object
		raw := `{"type":"join","payload":"{\"playerId\":\"charlie\"}"}`
		if err := conn.Write(ctx, websocket.MessageText, []byte(raw)); err != nil {
			t.Fatalf("write: %v", err)
		}

		errMsg := readError(t, ctx, conn)
		if !strings.Contains(errMsg, "invalid join payload") {
			t.Fatalf("expected 'invalid join payload', got %q", errMsg)
		}
	})
}

// --- WebSocket Game Flow Tests ---

func TestWebSocketStartGame(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	_, _, _, start := startedPair(t, ctx, env)

	if start.SessionInfo.Status != session.StatusPlaying {
		t.Fatalf("expected playing, got %s", start.SessionInfo.Status)
	}
	sm := stateMap(t, start)
	if sm["turn"] != "alice" || sm["turnSide"] != "near" || sm["you"] != "near" {
		t.Fatalf("expected alice to open as near, got turn=%v side=%v you=%v", sm["turn"], sm["turnSide"], sm["you"])
	}
	if sm["variant"] != "chess" || sm["ranks"] != float64(8) {
		t.Fatalf("unexpected board header %v/%v", sm["variant"], sm["ranks"])
	}
	cells, ok := sm["cells"].([]any)
	if !ok || len(cells) != 32 {
		t.Fatalf("expected 32 occupied squares, got %v", sm["cells"])
	}
	// 20 opening moves plus forfeit
	if len(start.ValidActions) != 21 {
		t.Fatalf("expected 21 actions for alice, got %d", len(start.ValidActions))
	}
}

func TestWebSocketPlayUntilForfeit(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code, aliceConn, bobConn, start := startedPair(t, ctx, env)

	// alice moves, bob replies, then bob resigns
	if err := sendWS(ctx, aliceConn, "action", firstOf(t, start, "move")); err != nil {
		t.Fatalf("send move: %v", err)
	}
	readState(t, ctx, aliceConn)
	bobTurn := readState(t, ctx, bobConn)
	if stateMap(t, bobTurn)["turn"] != "bob" {
		t.Fatalf("expected bob to move, got %v", stateMap(t, bobTurn)["turn"])
	}

	if err := sendWS(ctx, bobConn, "action", firstOf(t, bobTurn, "move")); err != nil {
		t.Fatalf("send reply: %v", err)
	}
	readState(t, ctx, aliceConn)
	readState(t, ctx, bobConn)

	if err := sendWS(ctx, bobConn, "action", forfeitAction()); err != nil {
		t.Fatalf("send forfeit: %v", err)
	}
	final := readState(t, ctx, aliceConn)
	readState(t, ctx, bobConn)

	fm := stateMap(t, final)
	if fm["done"] != true || fm["winner"] != "alice" {
		t.Fatalf("expected alice to win, got done=%v winner=%v", fm["done"], fm["winner"])
	}
	if final.SessionInfo.Status != session.StatusFinished {
		t.Fatalf("expected finished, got %s", final.SessionInfo.Status)
	}
	if len(final.ValidActions) != 0 {
		t.Fatalf("expected no actions after the game, got %v", final.ValidActions)
	}
	var winnerFound bool
	for _, r := range final.Results {
		if r.PlayerID == "alice" && r.Rank == 1 {
			winnerFound = true
		}
	}
	if !winnerFound {
		t.Fatalf("expected alice to rank first, results: %+v", final.Results)
	}

	var moves []storage.MoveRow
	getJSON(t, env.ts.URL+"/api/sessions/"+code+"/moves", &moves)
	if len(moves) != 3 {
		t.Fatalf("expected 3 logged actions, got %+v", moves)
	}
	if moves[0].PlayerID != "alice" || moves[2].Action != "forfeit" || moves[2].Notation != "far forfeits" {
		t.Fatalf("unexpected move log %+v", moves)
	}
}

func TestWebSocketUndo(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	_, aliceConn, bobConn, start := startedPair(t, ctx, env)

	if err := sendWS(ctx, aliceConn, "action", firstOf(t, start, "move")); err != nil {
		t.Fatalf("send move: %v", err)
	}
	afterMove := readState(t, ctx, aliceConn)
	readState(t, ctx, bobConn)

	if err := sendWS(ctx, aliceConn, "action", firstOf(t, afterMove, "undo")); err != nil {
		t.Fatalf("send undo: %v", err)
	}
	undone := readState(t, ctx, aliceConn)
	readState(t, ctx, bobConn)

	um := stateMap(t, undone)
	if um["turn"] != "alice" || um["plies"] != float64(0) {
		t.Fatalf("expected alice to move again at ply 0, got turn=%v plies=%v", um["turn"], um["plies"])
	}
}

func TestWebSocketPlayAgainstBot(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code := createSessionViaAPI(t, env.ts, "chess", "alice")
	var bot addBotResponse
	postJSON(t, env.ts.URL+"/api/sessions/"+code+"/bot", "", &bot)

	aliceConn := wsConnect(t, env.ts, code, "alice")
	defer aliceConn.Close(websocket.StatusNormalClosure, "")
	readState(t, ctx, aliceConn)

	if err := sendWS(ctx, aliceConn, "start", nil); err != nil {
		t.Fatalf("send start: %v", err)
	}
	start := readState(t, ctx, aliceConn)

	if err := sendWS(ctx, aliceConn, "action", firstOf(t, start, "move")); err != nil {
		t.Fatalf("send move: %v", err)
	}
	reply := readState(t, ctx, aliceConn)

	rm := stateMap(t, reply)
	if rm["turn"] != "alice" || rm["plies"] != float64(2) {
		t.Fatalf("expected the bot to have answered, got turn=%v plies=%v", rm["turn"], rm["plies"])
	}

	var moves []storage.MoveRow
	getJSON(t, env.ts.URL+"/api/sessions/"+code+"/moves", &moves)
	if len(moves) != 2 || moves[1].PlayerID != bot.PlayerID {
		t.Fatalf("expected alice's move and the bot's reply, got %+v", moves)
	}
}

func TestWebSocketActionEncodingCorrectness(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	_, aliceConn, _, start := startedPair(t, ctx, env)

	if err := sendWS(ctx, aliceConn, "action", firstOf(t, start, "move")); err != nil {
		t.Fatalf("send action: %v", err)
	}

	// Read raw WS bytes and check encoding
	_, data, err := aliceConn.Read(ctx)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	// payload should be an object, not a double-encoded string
	switch raw["payload"].(type) {
	case map[string]any:
		// correct
	case string:
		t.Fatal("payload is a string (double-encoded), expected a JSON object")
	default:
		t.Fatalf("unexpected payload type: %T", raw["payload"])
	}
}

// --- WebSocket Error Handling Tests ---

func TestWebSocketActionWrongTurn(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	_, _, bobConn, start := startedPair(t, ctx, env)

	// bob replays alice's move while it is alice's turn
	if err := sendWS(ctx, bobConn, "action", firstOf(t, start, "move")); err != nil {
		t.Fatalf("send action: %v", err)
	}

	errMsg := readError(t, ctx, bobConn)
	if !strings.Contains(errMsg, "not your turn") {
		t.Fatalf("expected 'not your turn', got %q", errMsg)
	}
}

func TestWebSocketJoinAsBotRejected(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code := createSessionViaAPI(t, env.ts, "chess", "alice")
	var bot addBotResponse
	postJSON(t, env.ts.URL+"/api/sessions/"+code+"/bot", "", &bot)

	conn := wsConnect(t, env.ts, code, bot.PlayerID)
	defer conn.Close(websocket.StatusNormalClosure, "")

	if msg := readError(t, ctx, conn); !strings.Contains(msg, "reserved") {
		t.Fatalf("expected a reserved id error, got %q", msg)
	}
}

func TestWebSocketReconnect(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code, aliceConn, bobConn, start := startedPair(t, ctx, env)

	if err := sendWS(ctx, aliceConn, "action", firstOf(t, start, "move")); err != nil {
		t.Fatalf("send action: %v", err)
	}
	moved := readState(t, ctx, aliceConn)
	readState(t, ctx, bobConn)
	lastMove := stateMap(t, moved)["lastMove"]

	// Close bob's connection
	bobConn.Close(websocket.StatusNormalClosure, "")

	// Reconnect bob
	bobConn2 := wsConnect(t, env.ts, code, "bob")
	defer bobConn2.Close(websocket.StatusNormalClosure, "")

	// Bob should receive fresh state with game preserved
	bobState := readState(t, ctx, bobConn2)

	if bobState.SessionInfo.Status != session.StatusPlaying {
		t.Fatalf("expected playing, got %s", bobState.SessionInfo.Status)
	}
	sm := stateMap(t, bobState)
	if sm["plies"] != float64(1) || sm["turn"] != "bob" || sm["you"] != "far" {
		t.Fatalf("expected bob to move at ply 1, got %v", sm)
	}
	if lastMove == nil || sm["lastMove"] != lastMove {
		t.Fatalf("expected last move %v to survive reconnect, got %v", lastMove, sm["lastMove"])
	}
}
