package app

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"leetrace/internal/config"
	"leetrace/internal/domain"
	"leetrace/internal/sandbox"
	"leetrace/internal/scoring"
)

// ProblemProvider supplies random problems for rooms. Returned problems are
// guaranteed to carry at least one test case; nil means nothing matched.
type ProblemProvider interface {
	PickRandom(difficulty string) *domain.Problem
}

// CodeRunner executes one submission against its test cases
type CodeRunner interface {
	Run(ctx context.Context, req sandbox.Request) sandbox.Result
}

// MaxChatLength is the maximum chat message length after cleaning
const MaxChatLength = 200

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// RoomSession wraps a room with concurrency control and drives its
// timer/break tasks. All room mutation happens under the session mutex; the
// sandbox call during submit is the one suspension point, and state is
// re-validated after it.
type RoomSession struct {
	room     *domain.Room
	mu       sync.Mutex
	provider ProblemProvider
	runner   CodeRunner
	cfg      config.GameConfig
	logger   *slog.Logger

	// onEmpty is invoked (outside the lock) when the last player leaves
	onEmpty func()

	done      chan struct{}
	closeOnce sync.Once
}

// NewRoomSession creates a session for a freshly created room
func NewRoomSession(room *domain.Room, provider ProblemProvider, runner CodeRunner, cfg config.GameConfig, logger *slog.Logger) *RoomSession {
	return &RoomSession{
		room:     room,
		provider: provider,
		runner:   runner,
		cfg:      cfg,
		logger:   logger.With("roomID", room.ID),
		done:     make(chan struct{}),
	}
}

// SetOnEmpty registers the callback invoked when the room empties out
func (s *RoomSession) SetOnEmpty(fn func()) {
	s.onEmpty = fn
}

// RoomCode returns the room's code
func (s *RoomSession) RoomCode() string {
	return s.room.ID
}

// RoomState returns a snapshot of room membership and configuration
func (s *RoomSession) RoomState() RoomStateMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return roomStateMsg(s.room)
}

// PlayerCount returns the number of players in the room
func (s *RoomSession) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.room.Players)
}

// Join registers a new player in the lobby
func (s *RoomSession) Join(name string, conn domain.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrNameRequired
	}
	if len([]rune(name)) > domain.MaxNameLength {
		return domain.ErrNameTooLong
	}
	if _, exists := s.room.Players[name]; exists {
		return domain.ErrNameTaken
	}
	if s.room.State != domain.StateLobby {
		return domain.ErrGameInProgress
	}

	s.room.Players[name] = domain.NewPlayer(name, conn)
	s.broadcastLocked(roomStateMsg(s.room))

	return nil
}

// Start begins the first round (host only)
func (s *RoomSession) Start(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.IsHost(name) {
		return domain.ErrNotHost
	}
	if s.room.State != domain.StateLobby {
		return domain.ErrGameInProgress
	}
	if len(s.room.Players) < s.cfg.MinPlayers {
		return domain.ErrNotEnoughPlayers
	}

	s.beginRoundLocked()
	return nil
}

// beginRoundLocked picks a problem and starts the next round. A failed pick
// is broadcast as a non-fatal error and leaves the room state untouched.
func (s *RoomSession) beginRoundLocked() {
	problem := s.provider.PickRandom(s.room.Settings.Difficulty)
	if problem == nil {
		s.logger.Warn("no problems available", "difficulty", s.room.Settings.Difficulty)
		s.broadcastLocked(errorMsg("No problems available."))
		return
	}

	s.room.BeginRound(problem, time.Now())
	s.logger.Info("round started",
		"round", s.room.CurrentRound,
		"totalRounds", s.room.Settings.TotalRounds,
		"problemID", problem.ID,
	)

	s.broadcastLocked(gameStartMsg(s.room))

	go s.timerTask()
}

// timerTask broadcasts the remaining time on a fixed interval and ends the
// round when the limit expires. It holds no cancellation handle; it
// self-terminates by observing room state on each wake.
func (s *RoomSession) timerTask() {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		if s.room.State != domain.StatePlaying {
			s.mu.Unlock()
			return
		}

		elapsed := time.Since(s.room.StartTime)
		remaining := time.Duration(s.room.Settings.TimeLimit)*time.Second - elapsed
		if remaining < 0 {
			remaining = 0
		}

		s.broadcastLocked(TickMsg{
			Type:      MsgTick,
			Remaining: int(remaining.Seconds()),
			Elapsed:   int(elapsed.Seconds()),
		})

		if remaining <= 0 {
			s.endRoundLocked()
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		select {
		case <-ticker.C:
		case <-s.done:
			return
		}
	}
}

// endRoundLocked finishes the current round: either schedules the
// inter-round break or terminally ends the game. No-op unless the room is
// actually playing, which makes concurrent triggers (timer expiry and
// all-players-locked) safe.
func (s *RoomSession) endRoundLocked() {
	if s.room.State != domain.StatePlaying {
		return
	}

	rankings := scoring.Rank(s.room.Players, true)
	s.room.State = domain.StateFinished

	if !s.room.IsFinalRound() {
		s.logger.Info("round over", "round", s.room.CurrentRound)
		s.broadcastLocked(RoundOverMsg{
			Type:         MsgRoundOver,
			Rankings:     rankings,
			CurrentRound: s.room.CurrentRound,
			TotalRounds:  s.room.Settings.TotalRounds,
			BreakSeconds: int(s.cfg.BreakDuration.Seconds()),
		})
		go s.breakTask()
		return
	}

	s.room.FinishedAt = time.Now()
	s.logger.Info("game over", "rounds", s.room.CurrentRound)
	s.broadcastLocked(GameOverMsg{Type: MsgGameOver, Rankings: rankings})
}

// breakTask counts down the inter-round break once per second, then starts
// the next round. It aborts if the room leaves the transient finished state
// (manual restart) or the game terminally ends.
func (s *RoomSession) breakTask() {
	for remaining := int(s.cfg.BreakDuration.Seconds()) - 1; remaining >= 0; remaining-- {
		select {
		case <-time.After(time.Second):
		case <-s.done:
			return
		}

		s.mu.Lock()
		if s.room.State != domain.StateFinished || s.room.IsTerminallyFinished() {
			s.mu.Unlock()
			return
		}
		s.broadcastLocked(BreakTickMsg{Type: MsgBreakTick, Remaining: remaining})
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room.State != domain.StateFinished || s.room.IsTerminallyFinished() {
		return
	}
	s.beginRoundLocked()
}

// Submit runs a player's code in the sandbox and records the result. The
// sandbox call happens outside the session lock; room state is re-validated
// afterward before any mutation.
func (s *RoomSession) Submit(ctx context.Context, name, code string) error {
	s.mu.Lock()

	if s.room.State != domain.StatePlaying {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}
	player, err := s.room.GetPlayer(name)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if player.Locked() {
		s.mu.Unlock()
		return domain.ErrAlreadyLocked
	}
	if strings.TrimSpace(code) == "" {
		s.mu.Unlock()
		return domain.ErrEmptySubmission
	}

	problem := s.room.Problem
	startTime := s.room.StartTime
	round := s.room.CurrentRound
	req := sandbox.Request{
		Code:       code,
		EntryPoint: problem.EntryPoint,
		TestCases:  problem.TestCases,
		Preamble:   problem.Preamble,
		AnyOrder:   problem.AnyOrder(),
	}
	s.mu.Unlock()

	result := s.runner.Run(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The round may have ended, or the player may have left or locked in,
	// while the sandbox was running. Drop the result in that case.
	if s.room.State != domain.StatePlaying || s.room.CurrentRound != round {
		return nil
	}
	player, err = s.room.GetPlayer(name)
	if err != nil || player.Locked() {
		return nil
	}

	submitTime := math.Round(time.Since(startTime).Seconds()*100) / 100
	sub := &domain.Submission{
		Code:       code,
		Passed:     result.Passed,
		Total:      result.Total,
		Error:      result.Error,
		TimeMS:     result.TimeMS,
		CharCount:  len(code),
		Solved:     result.Passed == result.Total && result.Total > 0,
		SubmitTime: submitTime,
	}
	player.RecordSubmission(sub)

	s.logger.Info("submission",
		"player", name,
		"passed", result.Passed,
		"total", result.Total,
		"solved", sub.Solved,
	)

	// Private result first, then the scoreboard that reflects it
	s.sendToLocked(player, SubmitResultMsg{
		Type:         MsgSubmitResult,
		Passed:       result.Passed,
		Total:        result.Total,
		Error:        result.Error,
		Solved:       sub.Solved,
		CharCount:    sub.CharCount,
		SubmitTime:   submitTime,
		FirstFailure: result.FirstFailure,
		Stdout:       result.Stdout,
		Stderr:       result.Stderr,
	})
	s.broadcastLocked(scoreboardMsg(s.room))

	return nil
}

// Lock records a player's lock-in. Requires a fully solved best submission.
// If everyone is now locked, the round ends immediately.
func (s *RoomSession) Lock(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room.State != domain.StatePlaying {
		return domain.ErrInvalidState
	}
	player, err := s.room.GetPlayer(name)
	if err != nil {
		return err
	}
	if player.Locked() {
		return domain.ErrAlreadyLocked
	}
	if player.Best == nil || !player.Best.Solved {
		return domain.ErrNotSolved
	}

	lockedAt := math.Round(time.Since(s.room.StartTime).Seconds()*100) / 100
	player.LockedAt = &lockedAt

	s.sendToLocked(player, LockedMsg{Type: MsgLocked})
	s.broadcastLocked(scoreboardMsg(s.room))

	if s.room.AllLocked() {
		s.endRoundLocked()
	}

	return nil
}

// Restart resets a terminally finished room back to the lobby (host only)
func (s *RoomSession) Restart(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.IsHost(name) {
		return domain.ErrNotHost
	}
	if !s.room.IsTerminallyFinished() {
		return domain.ErrGameNotFinished
	}

	s.room.ResetToLobby()
	s.logger.Info("room restarted")
	s.broadcastLocked(roomStateMsg(s.room))

	return nil
}

// Chat sanitizes and broadcasts a chat message. Allowed in any room state.
func (s *RoomSession) Chat(name, message string) error {
	cleaned := sanitizeChat(message)
	if cleaned == "" {
		return domain.ErrEmptyChatMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.room.GetPlayer(name); err != nil {
		return err
	}

	s.broadcastLocked(ChatMsg{Type: MsgChat, Name: name, Message: cleaned})
	return nil
}

// sanitizeChat strips HTML-like markup, collapses whitespace and truncates.
// The display layer must additionally render messages as plain text.
func sanitizeChat(message string) string {
	message = htmlTagRe.ReplaceAllString(message, "")
	message = whitespaceRe.ReplaceAllString(message, " ")
	message = strings.TrimSpace(message)

	runes := []rune(message)
	if len(runes) > MaxChatLength {
		message = string(runes[:MaxChatLength])
	}
	return message
}

// HandleDisconnect removes a player after their connection drops. The last
// player leaving triggers the onEmpty callback, which removes the room from
// the registry.
func (s *RoomSession) HandleDisconnect(name string) {
	s.mu.Lock()

	if err := s.room.RemovePlayer(name); err != nil {
		s.mu.Unlock()
		return
	}
	s.logger.Info("player left", "player", name)

	empty := len(s.room.Players) == 0
	if !empty {
		s.broadcastLocked(roomStateMsg(s.room))
	}
	s.mu.Unlock()

	if empty && s.onEmpty != nil {
		s.onEmpty()
	}
}

// broadcastLocked sends a message to every connected player. A failed send
// degrades that player's connection to disconnected; it never aborts
// delivery to the rest.
func (s *RoomSession) broadcastLocked(message interface{}) {
	for _, player := range s.room.Players {
		if player.Conn == nil {
			continue
		}
		if err := player.Conn.Send(message); err != nil {
			s.logger.Debug("send failed, dropping connection", "player", player.Name, "error", err)
			player.Conn = nil
		}
	}
}

// sendToLocked sends a message to a single player
func (s *RoomSession) sendToLocked(player *domain.Player, message interface{}) {
	if player.Conn == nil {
		return
	}
	if err := player.Conn.Send(message); err != nil {
		player.Conn = nil
	}
}

// gcInfo returns the fields the registry sweep needs
func (s *RoomSession) gcInfo() (state domain.State, terminal bool, createdAt, finishedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.State, s.room.IsTerminallyFinished(), s.room.CreatedAt, s.room.FinishedAt
}

// Close shuts down the session's tasks and connections
func (s *RoomSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		defer s.mu.Unlock()
		for _, player := range s.room.Players {
			if player.Conn != nil {
				player.Conn.Close()
				player.Conn = nil
			}
		}
	})
}
