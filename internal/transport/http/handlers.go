package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"leetrace/internal/domain"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomRequest is the body for room creation
type CreateRoomRequest struct {
	Host       string `json:"host"`
	TimeLimit  int    `json:"time_limit"`
	Difficulty string `json:"difficulty"`
	Rounds     int    `json:"rounds"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	RoomID string `json:"room_id"`
	Host   string `json:"host"`
}

// GetRoomResponse is the response for getting room info
type GetRoomResponse struct {
	RoomID       string   `json:"room_id"`
	State        string   `json:"state"`
	Host         string   `json:"host"`
	Players      []string `json:"players"`
	TimeLimit    int      `json:"time_limit"`
	Difficulty   string   `json:"difficulty,omitempty"`
	CurrentRound int      `json:"current_round"`
	TotalRounds  int      `json:"total_rounds"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveRooms  int `json:"activeRooms"`
	TotalPlayers int `json:"totalPlayers"`
}

// handleCreateRoom handles POST /api/rooms. Configuration values are
// clamped to sane ranges here, before they reach the room core.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An empty or malformed body falls back to defaults
		req = CreateRoomRequest{}
	}

	host := strings.TrimSpace(req.Host)
	if host == "" {
		host = "Host"
	}
	timeLimit := req.TimeLimit
	if timeLimit == 0 {
		timeLimit = s.config.Game.DefaultTimeLimit
	}

	settings := domain.RoomSettings{
		TimeLimit:   s.config.ClampTimeLimit(timeLimit),
		Difficulty:  req.Difficulty,
		TotalRounds: s.config.ClampRounds(req.Rounds),
	}

	session, err := s.hub.CreateRoom(host, settings)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "CREATION_FAILED", "Failed to create room")
		return
	}

	s.sendSuccess(w, &CreateRoomResponse{
		RoomID: session.RoomCode(),
		Host:   host,
	})
}

// handleGetRoom handles GET /api/rooms/{roomCode}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomCode := r.PathValue("roomCode")
	if roomCode == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_ROOM_CODE", "Room code is required")
		return
	}

	session, err := s.hub.Get(strings.ToUpper(roomCode))
	if err != nil {
		if err == domain.ErrRoomNotFound {
			s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		} else {
			s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	state := session.RoomState()
	s.sendSuccess(w, &GetRoomResponse{
		RoomID:       state.RoomID,
		State:        state.State,
		Host:         state.Host,
		Players:      state.Players,
		TimeLimit:    state.TimeLimit,
		Difficulty:   state.Difficulty,
		CurrentRound: state.CurrentRound,
		TotalRounds:  state.TotalRounds,
	})
}

// handleListProblems handles GET /api/problems
func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, s.store.Index())
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveRooms:  s.hub.Count(),
		TotalPlayers: s.hub.TotalPlayers(),
	})
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
