package server

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"checkerboard/internal/game"
	"checkerboard/internal/session"
	"checkerboard/internal/storage"
)

// Server is the HTTP server.
type Server struct {
	mux      *http.ServeMux
	handler  http.Handler
	registry *game.Registry
	manager  *session.Manager
	webFS    fs.FS
	log      zerolog.Logger
}

// New creates a server with all routes.
// webFS should be the "web" subdirectory of the embedded filesystem.
func New(registry *game.Registry, manager *session.Manager, webFS fs.FS, log zerolog.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		registry: registry,
		manager:  manager,
		webFS:    webFS,
		log:      log.With().Str("component", "http").Logger(),
	}
	s.routes()
	s.handler = RequestID(AccessLog(s.log, s.mux))
	return s
}

func (s *Server) routes() {
	// API routes
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{code}", s.handleGetSession)
	s.mux.HandleFunc("GET /api/sessions/{code}/ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /api/sessions/{code}/moves", s.handleListMoves)
	s.mux.HandleFunc("POST /api/sessions/{code}/start", s.handleStartSession)
	s.mux.HandleFunc("POST /api/sessions/{code}/bot", s.handleAddBot)

	// Static files
	s.mux.Handle("/", http.FileServer(http.FS(s.webFS)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

type createSessionRequest struct {
	GameType string `json:"gameType"`
	PlayerID string `json:"playerId"`
}

type createSessionResponse struct {
	Code string `json:"code"`
}

type addBotResponse struct {
	PlayerID string `json:"playerId"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.GameType = strings.TrimSpace(req.GameType)
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.GameType == "" || req.PlayerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gameType and playerId required"})
		return
	}
	if strings.HasPrefix(req.PlayerID, session.BotPrefix) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "player id is reserved"})
		return
	}

	sess, err := s.manager.Create(req.GameType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := sess.AddPlayer(req.PlayerID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.save(sess)

	writeJSON(w, http.StatusCreated, createSessionResponse{Code: sess.Code})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.Start(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.afterStart(r, sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleAddBot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	id, err := sess.AddBot()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.save(sess)
	s.broadcastState(sess)
	writeJSON(w, http.StatusCreated, addBotResponse{PlayerID: id})
}

func (s *Server) handleListMoves(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	moves, err := s.manager.Moves(sess.Code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if moves == nil {
		moves = []storage.MoveRow{}
	}
	writeJSON(w, http.StatusOK, moves)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.manager.Get(r.PathValue("code"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return sess, ok
}

// afterStart lets a bot in the NEAR seat open, persists and broadcasts.
func (s *Server) afterStart(r *http.Request, sess *session.Session) {
	played, err := sess.Advance(r.Context())
	if err != nil {
		s.log.Error().Err(err).Str("code", sess.Code).Msg("bot move")
	}
	s.record(sess, played)
	s.broadcastState(sess)
}

// record appends played actions to the move log and saves the session.
func (s *Server) record(sess *session.Session, played []session.Played) {
	if err := s.manager.RecordMoves(sess, played); err != nil {
		s.log.Error().Err(err).Str("code", sess.Code).Msg("record moves")
	}
	s.save(sess)
}

func (s *Server) save(sess *session.Session) {
	if err := s.manager.SaveMatchState(sess); err != nil {
		s.log.Error().Err(err).Str("code", sess.Code).Msg("save match state")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
