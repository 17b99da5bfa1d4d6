package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name too long (max 20 chars)")
	ErrNameTaken        = errors.New("name is already taken")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrNotHost          = errors.New("only the host can perform this action")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrNoProblems       = errors.New("no problems available")
	ErrInvalidState     = errors.New("invalid action for current room state")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrAlreadyLocked    = errors.New("already locked in")
	ErrNotSolved        = errors.New("solve the problem before locking in")
	ErrEmptySubmission  = errors.New("empty submission")
	ErrEmptyChatMessage = errors.New("empty chat message")
	ErrGameNotFinished  = errors.New("game is not finished yet")
)
