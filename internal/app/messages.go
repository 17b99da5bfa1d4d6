package app

import (
	"leetrace/internal/domain"
	"leetrace/internal/problems"
	"leetrace/internal/sandbox"
	"leetrace/internal/scoring"
)

// Server → client message types
const (
	MsgRoomState    = "room_state"
	MsgGameStart    = "game_start"
	MsgTick         = "tick"
	MsgSubmitResult = "submit_result"
	MsgScoreboard   = "scoreboard"
	MsgLocked       = "locked"
	MsgRoundOver    = "round_over"
	MsgBreakTick    = "break_tick"
	MsgGameOver     = "game_over"
	MsgChat         = "chat"
	MsgError        = "error"
)

// RoomStateMsg describes current room membership and configuration
type RoomStateMsg struct {
	Type         string   `json:"type"`
	RoomID       string   `json:"room_id"`
	State        string   `json:"state"`
	Host         string   `json:"host"`
	Players      []string `json:"players"`
	TimeLimit    int      `json:"time_limit"`
	Difficulty   string   `json:"difficulty,omitempty"`
	CurrentRound int      `json:"current_round"`
	TotalRounds  int      `json:"total_rounds"`
}

// ProblemPayload is the problem as exposed to players. Test cases are
// deliberately absent.
type ProblemPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description"`
	EntryPoint  string `json:"entry_point"`
	StarterCode string `json:"starter_code"`
}

// GameStartMsg announces a new round
type GameStartMsg struct {
	Type         string         `json:"type"`
	Problem      ProblemPayload `json:"problem"`
	TimeLimit    int            `json:"time_limit"`
	CurrentRound int            `json:"current_round"`
	TotalRounds  int            `json:"total_rounds"`
}

// TickMsg is the periodic round countdown broadcast
type TickMsg struct {
	Type      string `json:"type"`
	Remaining int    `json:"remaining"`
	Elapsed   int    `json:"elapsed"`
}

// SubmitResultMsg is sent privately to the submitting player
type SubmitResultMsg struct {
	Type         string                 `json:"type"`
	Passed       int                    `json:"passed"`
	Total        int                    `json:"total"`
	Error        string                 `json:"error,omitempty"`
	Solved       bool                   `json:"solved"`
	CharCount    int                    `json:"char_count"`
	SubmitTime   float64                `json:"submit_time"`
	FirstFailure *sandbox.FailureDetail `json:"first_failure,omitempty"`
	Stdout       string                 `json:"stdout"`
	Stderr       string                 `json:"stderr"`
}

// ScoreboardMsg is the live scoreboard broadcast
type ScoreboardMsg struct {
	Type     string          `json:"type"`
	Rankings []scoring.Entry `json:"rankings"`
}

// LockedMsg confirms a lock-in to the locking player
type LockedMsg struct {
	Type string `json:"type"`
}

// RoundOverMsg announces end of a non-final round and the break
type RoundOverMsg struct {
	Type         string          `json:"type"`
	Rankings     []scoring.Entry `json:"rankings"`
	CurrentRound int             `json:"current_round"`
	TotalRounds  int             `json:"total_rounds"`
	BreakSeconds int             `json:"break_seconds"`
}

// BreakTickMsg is the per-second break countdown broadcast
type BreakTickMsg struct {
	Type      string `json:"type"`
	Remaining int    `json:"remaining"`
}

// GameOverMsg announces the terminal end of the game
type GameOverMsg struct {
	Type     string          `json:"type"`
	Rankings []scoring.Entry `json:"rankings"`
}

// ChatMsg carries a sanitized chat line
type ChatMsg struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ErrorMsg reports a non-fatal error
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func roomStateMsg(room *domain.Room) RoomStateMsg {
	return RoomStateMsg{
		Type:         MsgRoomState,
		RoomID:       room.ID,
		State:        room.State.String(),
		Host:         room.Host,
		Players:      room.PlayerNames(),
		TimeLimit:    room.Settings.TimeLimit,
		Difficulty:   room.Settings.Difficulty,
		CurrentRound: room.CurrentRound,
		TotalRounds:  room.Settings.TotalRounds,
	}
}

func gameStartMsg(room *domain.Room) GameStartMsg {
	problem := room.Problem
	return GameStartMsg{
		Type: MsgGameStart,
		Problem: ProblemPayload{
			ID:          problem.ID,
			Title:       problem.Title,
			Difficulty:  problem.Difficulty,
			Description: problems.CleanDescription(problem.Description),
			EntryPoint:  problem.EntryPoint,
			StarterCode: problem.StarterCode,
		},
		TimeLimit:    room.Settings.TimeLimit,
		CurrentRound: room.CurrentRound,
		TotalRounds:  room.Settings.TotalRounds,
	}
}

func scoreboardMsg(room *domain.Room) ScoreboardMsg {
	return ScoreboardMsg{
		Type:     MsgScoreboard,
		Rankings: scoring.Rank(room.Players, false),
	}
}

func errorMsg(message string) ErrorMsg {
	return ErrorMsg{Type: MsgError, Message: message}
}
