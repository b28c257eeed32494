package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"checkerboard/internal/game"
	"checkerboard/internal/game/checkerboard"
	"checkerboard/internal/session"
	"checkerboard/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts  *httptest.Server
	mgr *session.Manager
	reg *game.Registry
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := game.NewRegistry()
	checkerboard.RegisterAll(reg)
	mgr := session.NewManager(reg, store, zerolog.Nop())

	webFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html><body>test</body></html>")},
	}
	srv := New(reg, mgr, webFS, zerolog.Nop())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr, reg: reg}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

func createSessionViaAPI(t *testing.T, ts *httptest.Server, gameType, playerID string) string {
	t.Helper()
	body := fmt.Sprintf(`{"gameType":%q,"playerId":%q}`, gameType, playerID)
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var result createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result.Code
}

func postJSON(t *testing.T, url string, body string, into any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if into != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, code string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/sessions/" + code + "/ws"
}

// wsConnect dials a WebSocket, sends a join message, and returns the connection.
// The caller is responsible for closing the connection.
func wsConnect(t *testing.T, ts *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, code), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	if err := sendWS(ctx, conn, "join", joinPayload{PlayerID: playerID}); err != nil {
		t.Fatalf("send join: %v", err)
	}
	return conn
}

// sendWS marshals and sends a typed WebSocket message. Returns an error on failure.
func sendWS(ctx context.Context, conn *websocket.Conn, msgType string, payload any) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(WSMessage{Type: msgType, Payload: p})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// readWS reads and unmarshals a single WebSocket message. Returns an error on failure.
func readWS(ctx context.Context, conn *websocket.Conn) (WSMessage, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return WSMessage{}, err
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return WSMessage{}, err
	}
	return msg, nil
}

// wsSend marshals and writes a pre-built WSMessage, calling t.Fatal on error.
func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal ws message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

// wsRead reads and unmarshals a WebSocket message, calling t.Fatal on error.
func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	msg, err := readWS(ctx, conn)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	return msg
}

// joinMsg builds a WSMessage for a join request.
func joinMsg(playerID string) WSMessage {
	payload, _ := json.Marshal(joinPayload{PlayerID: playerID})
	return WSMessage{Type: "join", Payload: payload}
}

// readState reads a WebSocket message and expects it to be a "state" message.
func readState(t *testing.T, ctx context.Context, conn *websocket.Conn) statePayload {
	t.Helper()
	msg, err := readWS(ctx, conn)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if msg.Type != "state" {
		t.Fatalf("expected state message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var sp statePayload
	if err := json.Unmarshal(msg.Payload, &sp); err != nil {
		t.Fatalf("unmarshal state payload: %v", err)
	}
	return sp
}

// readError reads a WebSocket message and expects it to be an "error" message.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	msg, err := readWS(ctx, conn)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Message
}

// --- Game helpers ---

// firstOf picks the first offered action of the given type.
func firstOf(t *testing.T, sp statePayload, actionType string) actionPayload {
	t.Helper()
	for _, a := range sp.ValidActions {
		if a.Type == actionType {
			return actionPayload{Action: a}
		}
	}
	t.Fatalf("no %s action offered in %+v", actionType, sp.ValidActions)
	return actionPayload{}
}

func forfeitAction() actionPayload {
	return actionPayload{Action: game.Action{Type: checkerboard.ActionForfeit}}
}

// stateMap extracts State from a statePayload as map[string]any, failing the test if
// the type assertion fails.
func stateMap(t *testing.T, sp statePayload) map[string]any {
	t.Helper()
	m, ok := sp.State.(map[string]any)
	if !ok {
		t.Fatalf("expected State to be map[string]any, got %T", sp.State)
	}
	return m
}

func containsPlayer(players []string, id string) bool {
	for _, p := range players {
		if p == id {
			return true
		}
	}
	return false
}

// startedPair seats alice (NEAR) and bob (FAR) over websockets, starts a chess
// match and drains the resulting broadcasts.
func startedPair(t *testing.T, ctx context.Context, env *testEnv) (code string, alice, bob *websocket.Conn, start statePayload) {
	t.Helper()
	code = createSessionViaAPI(t, env.ts, "chess", "alice")

	alice = wsConnect(t, env.ts, code, "alice")
	t.Cleanup(func() { alice.Close(websocket.StatusNormalClosure, "") })
	readState(t, ctx, alice)

	bob = wsConnect(t, env.ts, code, "bob")
	t.Cleanup(func() { bob.Close(websocket.StatusNormalClosure, "") })
	readState(t, ctx, alice)
	readState(t, ctx, bob)

	if err := sendWS(ctx, alice, "start", nil); err != nil {
		t.Fatalf("send start: %v", err)
	}
	start = readState(t, ctx, alice)
	readState(t, ctx, bob)
	return code, alice, bob, start
}
