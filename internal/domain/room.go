package domain

import (
	"sort"
	"time"
)

// State represents the lifecycle state of a room
type State string

const (
	// StateLobby means the room is waiting for players
	StateLobby State = "lobby"
	// StatePlaying means a round is in progress
	StatePlaying State = "playing"
	// StateFinished means a round has ended. This is transient between
	// rounds and terminal after the final round.
	StateFinished State = "finished"
)

func (s State) String() string {
	return string(s)
}

// RoomSettings holds the host-chosen game configuration
type RoomSettings struct {
	TimeLimit   int    // seconds per round
	Difficulty  string // empty means any
	TotalRounds int
}

// Room is the core game state for one match. It carries no locking; the
// session layer owns synchronization.
type Room struct {
	ID           string
	Host         string
	Settings     RoomSettings
	State        State
	Players      map[string]*Player
	Problem      *Problem
	CurrentRound int
	StartTime    time.Time // current round start
	CreatedAt    time.Time // refreshed when a round starts
	FinishedAt   time.Time // set only when the final round ends
}

// NewRoom creates a room in the lobby state
func NewRoom(id, host string, settings RoomSettings) *Room {
	return &Room{
		ID:        id,
		Host:      host,
		Settings:  settings,
		State:     StateLobby,
		Players:   make(map[string]*Player),
		CreatedAt: time.Now(),
	}
}

// GetPlayer returns the player with the given name
func (r *Room) GetPlayer(name string) (*Player, error) {
	player, ok := r.Players[name]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

// PlayerNames returns all player names in sorted order
func (r *Room) PlayerNames() []string {
	names := make([]string, 0, len(r.Players))
	for name := range r.Players {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsHost reports whether the named player is the room host
func (r *Room) IsHost(name string) bool {
	return name == r.Host
}

// RemovePlayer removes a player from the room. If the host leaves and other
// players remain, the first name in sorted order becomes the new host.
func (r *Room) RemovePlayer(name string) error {
	if _, ok := r.Players[name]; !ok {
		return ErrPlayerNotFound
	}
	delete(r.Players, name)

	if name == r.Host && len(r.Players) > 0 {
		r.Host = r.PlayerNames()[0]
	}
	return nil
}

// BeginRound transitions the room into the next round with the given
// problem. Refreshing CreatedAt keeps long multi-round games from being
// reclaimed by the registry sweep during breaks.
func (r *Room) BeginRound(problem *Problem, now time.Time) {
	for _, player := range r.Players {
		player.ResetForRound()
	}
	r.Problem = problem
	r.State = StatePlaying
	r.StartTime = now
	r.CreatedAt = now
	r.CurrentRound++
}

// IsFinalRound reports whether the current round is the last one
func (r *Room) IsFinalRound() bool {
	return r.CurrentRound >= r.Settings.TotalRounds
}

// IsTerminallyFinished reports whether the game is over for good, as opposed
// to the transient finished state between rounds.
func (r *Room) IsTerminallyFinished() bool {
	return r.State == StateFinished && r.IsFinalRound()
}

// AllLocked reports whether every player has locked in. An empty room is
// never considered all-locked.
func (r *Room) AllLocked() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, player := range r.Players {
		if !player.Locked() {
			return false
		}
	}
	return true
}

// ResetToLobby returns a finished room to the lobby for a rematch. Players
// stay; per-round and per-game state clears.
func (r *Room) ResetToLobby() {
	for _, player := range r.Players {
		player.ResetForRound()
	}
	r.State = StateLobby
	r.Problem = nil
	r.CurrentRound = 0
	r.StartTime = time.Time{}
	r.FinishedAt = time.Time{}
	r.CreatedAt = time.Now()
}
