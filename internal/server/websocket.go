package server

import (
	"context"
	"encoding/json"
	"net/http"

	"nhooyr.io/websocket"

	"checkerboard/internal/game"
	"checkerboard/internal/session"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	PlayerID string `json:"playerId"`
}

type actionPayload struct {
	Action game.Action `json:"action"`
}

type statePayload struct {
	State        any                 `json:"state"`
	ValidActions []game.Action       `json:"validActions"`
	SessionInfo  session.Info        `json:"sessionInfo"`
	Results      []game.PlayerResult `json:"results,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	log := s.log.With().Str("code", code).Str("rid", GetRequestID(r.Context())).Logger()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, "first message must be a join")
		return
	}
	var join joinPayload
	if err := json.Unmarshal(msg.Payload, &join); err != nil || join.PlayerID == "" {
		sendWSError(ctx, conn, "invalid join payload")
		return
	}

	playerID := join.PlayerID
	send := make(chan []byte, 64)

	// Try to reconnect existing player, or add new one
	if p := sess.GetPlayer(playerID); p != nil && p.Bot {
		sendWSError(ctx, conn, "player id is reserved")
		return
	}
	if !sess.ConnectPlayer(playerID, send) {
		if err := sess.AddPlayer(playerID); err != nil {
			sendWSError(ctx, conn, err.Error())
			return
		}
		sess.ConnectPlayer(playerID, send)
		s.save(sess)
	}
	log = log.With().Str("player", playerID).Logger()
	log.Info().Msg("player connected")

	// Notify all players about the roster change
	s.broadcastState(sess)

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for msg := range send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: "invalid message"})
			continue
		}
		s.handleMessage(ctx, sess, playerID, send, msg)
	}

	// Keep the seat so the player can reconnect.
	log.Info().Msg("player disconnected")
}

func (s *Server) handleMessage(ctx context.Context, sess *session.Session, playerID string, send chan []byte, msg WSMessage) {
	switch msg.Type {
	case "action":
		var ap actionPayload
		if err := json.Unmarshal(msg.Payload, &ap); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: "invalid action payload"})
			return
		}
		played, err := sess.Apply(ctx, playerID, ap.Action)
		if err != nil && len(played) == 0 {
			sendWSMsg(send, "error", errorPayload{Message: err.Error()})
			return
		}
		if err != nil {
			s.log.Error().Err(err).Str("code", sess.Code).Msg("bot move")
		}
		s.record(sess, played)
		s.broadcastState(sess)

	case "start":
		if sess.Info().HostID != playerID {
			sendWSMsg(send, "error", errorPayload{Message: "only the host can start"})
			return
		}
		if err := sess.Start(); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: err.Error()})
			return
		}
		played, err := sess.Advance(ctx)
		if err != nil {
			s.log.Error().Err(err).Str("code", sess.Code).Msg("bot move")
		}
		s.record(sess, played)
		s.broadcastState(sess)

	default:
		sendWSMsg(send, "error", errorPayload{Message: "unknown message type: " + msg.Type})
	}
}

// broadcastState sends every connected human their own view of the match.
func (s *Server) broadcastState(sess *session.Session) {
	type outgoing struct {
		send    chan []byte
		payload statePayload
	}
	var out []outgoing

	sess.RLock()
	info := sess.InfoLocked()
	for _, pid := range info.Players {
		p := sess.Players[pid]
		if p == nil || p.Bot {
			continue
		}
		sp := statePayload{SessionInfo: info}
		if sess.Match != nil && sess.Status != session.StatusWaiting {
			sp.State = sess.Match.State(pid)
			sp.ValidActions = sess.Match.ValidActions(pid)
			if sess.Match.IsOver() {
				sp.Results = sess.Match.Results()
			}
		}
		out = append(out, outgoing{send: p.Send, payload: sp})
	}
	sess.RUnlock()

	for _, o := range out {
		sendWSMsg(o.send, "state", o.payload)
	}
}

func sendWSMsg(send chan []byte, msgType string, payload any) {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	select {
	case send <- msg:
	default:
	}
}

func sendWSError(ctx context.Context, conn *websocket.Conn, message string) {
	p, _ := json.Marshal(errorPayload{Message: message})
	msg, _ := json.Marshal(WSMessage{Type: "error", Payload: p})
	conn.Write(ctx, websocket.MessageText, msg)
}
