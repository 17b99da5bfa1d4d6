package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetrace/internal/domain"
)

func testSettings() domain.RoomSettings {
	return domain.RoomSettings{TimeLimit: 300, TotalRounds: 3}
}

func testProblem() *domain.Problem {
	return &domain.Problem{
		ID:         "two-sum",
		Title:      "Two Sum",
		EntryPoint: "two_sum",
		TestCases:  []string{"assert two_sum([2,7,11,15], 9) == [0, 1]"},
	}
}

func TestNewRoomStartsInLobby(t *testing.T) {
	room := domain.NewRoom("AB12CD", "alice", testSettings())

	assert.Equal(t, domain.StateLobby, room.State)
	assert.Equal(t, "alice", room.Host)
	assert.Zero(t, room.CurrentRound)
	assert.Empty(t, room.Players)
	assert.False(t, room.CreatedAt.IsZero())
}

func TestPlayerNamesSorted(t *testing.T) {
	room := domain.NewRoom("AB12CD", "carol", testSettings())
	for _, name := range []string{"carol", "alice", "bob"} {
		room.Players[name] = domain.NewPlayer(name, nil)
	}

	assert.Equal(t, []string{"alice", "bob", "carol"}, room.PlayerNames())
}

func TestRemovePlayerPromotesHost(t *testing.T) {
	room := domain.NewRoom("AB12CD", "carol", testSettings())
	for _, name := range []string{"carol", "alice", "bob"} {
		room.Players[name] = domain.NewPlayer(name, nil)
	}

	require.NoError(t, room.RemovePlayer("carol"))

	assert.Equal(t, "alice", room.Host)
	assert.True(t, room.IsHost("alice"))
	assert.False(t, room.IsHost("carol"))
}

func TestRemovePlayerUnknown(t *testing.T) {
	room := domain.NewRoom("AB12CD", "alice", testSettings())

	assert.ErrorIs(t, room.RemovePlayer("ghost"), domain.ErrPlayerNotFound)
}

func TestBeginRoundResetsPlayersAndAdvances(t *testing.T) {
	room := domain.NewRoom("AB12CD", "alice", testSettings())
	player := domain.NewPlayer("alice", nil)
	player.RecordSubmission(&domain.Submission{Passed: 1, Total: 3})
	lockedAt := 12.5
	player.LockedAt = &lockedAt
	room.Players["alice"] = player

	created := room.CreatedAt
	time.Sleep(time.Millisecond)
	now := time.Now()
	room.BeginRound(testProblem(), now)

	assert.Equal(t, domain.StatePlaying, room.State)
	assert.Equal(t, 1, room.CurrentRound)
	assert.Equal(t, now, room.StartTime)
	assert.True(t, room.CreatedAt.After(created), "round start should refresh CreatedAt")
	assert.Nil(t, player.Submission)
	assert.Nil(t, player.Best)
	assert.False(t, player.Locked())
}

func TestFinalRoundDetection(t *testing.T) {
	room := domain.NewRoom("AB12CD", "alice", testSettings())

	room.BeginRound(testProblem(), time.Now())
	assert.False(t, room.IsFinalRound())

	room.State = domain.StateFinished
	assert.False(t, room.IsTerminallyFinished(), "round 1 of 3 is not terminal")

	room.BeginRound(testProblem(), time.Now())
	room.BeginRound(testProblem(), time.Now())
	assert.True(t, room.IsFinalRound())

	room.State = domain.StateFinished
	assert.True(t, room.IsTerminallyFinished())
}

func TestAllLocked(t *testing.T) {
	room := domain.NewRoom("AB12CD", "alice", testSettings())
	assert.False(t, room.AllLocked(), "empty room is never all-locked")

	lockedAt := 5.0
	room.Players["alice"] = &domain.Player{Name: "alice", LockedAt: &lockedAt}
	room.Players["bob"] = &domain.Player{Name: "bob"}
	assert.False(t, room.AllLocked())

	room.Players["bob"].LockedAt = &lockedAt
	assert.True(t, room.AllLocked())
}

func TestResetToLobbyKeepsPlayers(t *testing.T) {
	room := domain.NewRoom("AB12CD", "alice", testSettings())
	room.Players["alice"] = domain.NewPlayer("alice", nil)
	room.Players["bob"] = domain.NewPlayer("bob", nil)

	room.BeginRound(testProblem(), time.Now())
	room.BeginRound(testProblem(), time.Now())
	room.BeginRound(testProblem(), time.Now())
	room.State = domain.StateFinished
	room.FinishedAt = time.Now()

	room.ResetToLobby()

	assert.Equal(t, domain.StateLobby, room.State)
	assert.Zero(t, room.CurrentRound)
	assert.Nil(t, room.Problem)
	assert.True(t, room.FinishedAt.IsZero())
	assert.Len(t, room.Players, 2)
}
