package app

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetrace/internal/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(&stubProvider{problem: anyOrderProblem()}, &stubRunner{}, testGameConfig(), testLogger())
	t.Cleanup(hub.Close)
	return hub
}

func defaultSettings() domain.RoomSettings {
	return domain.RoomSettings{TimeLimit: 300, TotalRounds: 1}
}

func TestCreateRoomAndGet(t *testing.T) {
	hub := newTestHub(t)

	session, err := hub.CreateRoom("alice", defaultSettings())
	require.NoError(t, err)

	got, err := hub.Get(session.RoomCode())
	require.NoError(t, err)
	assert.Same(t, session, got)
	assert.Equal(t, 1, hub.Count())

	_, err = hub.Get("NOSUCH")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomCodeFormat(t *testing.T) {
	codeRe := regexp.MustCompile(`^[0-9A-F]{6}$`)
	for i := 0; i < 20; i++ {
		assert.Regexp(t, codeRe, generateCode())
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	hub := newTestHub(t)

	session, err := hub.CreateRoom("alice", defaultSettings())
	require.NoError(t, err)
	code := session.RoomCode()

	hub.Remove(code)
	hub.Remove(code) // sweep and disconnect may race on the same room

	_, err = hub.Get(code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Zero(t, hub.Count())
}

func TestLastPlayerLeavingRemovesRoom(t *testing.T) {
	hub := newTestHub(t)

	session, err := hub.CreateRoom("alice", defaultSettings())
	require.NoError(t, err)
	require.NoError(t, session.Join("alice", &fakeConn{}))

	session.HandleDisconnect("alice")

	_, err = hub.Get(session.RoomCode())
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestTotalPlayers(t *testing.T) {
	hub := newTestHub(t)

	a, err := hub.CreateRoom("alice", defaultSettings())
	require.NoError(t, err)
	b, err := hub.CreateRoom("carol", defaultSettings())
	require.NoError(t, err)

	require.NoError(t, a.Join("alice", &fakeConn{}))
	require.NoError(t, a.Join("bob", &fakeConn{}))
	require.NoError(t, b.Join("carol", &fakeConn{}))

	assert.Equal(t, 3, hub.TotalPlayers())
}

func TestExpiredRoomsPolicy(t *testing.T) {
	hub := newTestHub(t)
	now := time.Now()

	setRoom := func(s *RoomSession, state domain.State, round int, createdAt, finishedAt time.Time) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.room.State = state
		s.room.CurrentRound = round
		s.room.CreatedAt = createdAt
		s.room.FinishedAt = finishedAt
	}

	mustCreate := func() *RoomSession {
		s, err := hub.CreateRoom("alice", defaultSettings())
		require.NoError(t, err)
		return s
	}

	// Mid-game rooms are never reclaimed, no matter how old
	playing := mustCreate()
	setRoom(playing, domain.StatePlaying, 1, now.Add(-24*time.Hour), time.Time{})

	// Terminally finished rooms linger for FinishedRetention after the game
	freshDone := mustCreate()
	setRoom(freshDone, domain.StateFinished, 1, now.Add(-24*time.Hour), now.Add(-time.Minute))

	staleDone := mustCreate()
	setRoom(staleDone, domain.StateFinished, 1, now.Add(-24*time.Hour), now.Add(-2*time.Hour))

	// Lobbies fall under the catch-all age ceiling
	freshLobby := mustCreate()
	oldLobby := mustCreate()
	setRoom(oldLobby, domain.StateLobby, 0, now.Add(-3*time.Hour), time.Time{})

	expired := hub.expiredRooms(now)
	assert.ElementsMatch(t, []string{staleDone.RoomCode(), oldLobby.RoomCode()}, expired)

	hub.sweep()
	assert.Equal(t, 3, hub.Count())

	for _, s := range []*RoomSession{playing, freshDone, freshLobby} {
		_, err := hub.Get(s.RoomCode())
		assert.NoError(t, err)
	}
}

func TestSweepSurvivesPanic(t *testing.T) {
	hub := newTestHub(t)
	// A nil session would panic inside gcInfo; the sweep must recover
	hub.mu.Lock()
	hub.sessions["BROKEN"] = nil
	hub.mu.Unlock()

	assert.NotPanics(t, func() { hub.sweep() })

	hub.mu.Lock()
	delete(hub.sessions, "BROKEN")
	hub.mu.Unlock()
}
