package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"leetrace/internal/config"
	"leetrace/internal/domain"
)

const roomCodeBytes = 3 // hex-encoded to a 6-character code

// Hub is the process-wide registry of active room sessions. It owns room
// code generation and the periodic sweep that reclaims abandoned rooms.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*RoomSession

	provider ProblemProvider
	runner   CodeRunner
	cfg      config.GameConfig
	logger   *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub and starts its garbage collection loop
func NewHub(provider ProblemProvider, runner CodeRunner, cfg config.GameConfig, logger *slog.Logger) *Hub {
	hub := &Hub{
		sessions: make(map[string]*RoomSession),
		provider: provider,
		runner:   runner,
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}

	go hub.sweepLoop()

	return hub
}

// CreateRoom creates a new room with a unique code and registers it
func (h *Hub) CreateRoom(host string, settings domain.RoomSettings) (*RoomSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var code string
	for attempts := 0; attempts < 10; attempts++ {
		code = generateCode()
		if _, exists := h.sessions[code]; !exists {
			break
		}
	}
	if _, exists := h.sessions[code]; exists {
		return nil, fmt.Errorf("failed to generate unique room code")
	}

	room := domain.NewRoom(code, host, settings)
	session := NewRoomSession(room, h.provider, h.runner, h.cfg, h.logger)
	session.SetOnEmpty(func() { h.Remove(code) })
	h.sessions[code] = session

	h.logger.Info("room created", "roomID", code, "host", host, "rounds", settings.TotalRounds)

	return session, nil
}

// Get returns a room session by code
func (h *Hub) Get(code string) (*RoomSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return session, nil
}

// Remove deletes a room session. Idempotent: both the GC sweep and the
// last-player-disconnect path may race to remove the same room.
func (h *Hub) Remove(code string) {
	h.mu.Lock()
	session, ok := h.sessions[code]
	if ok {
		delete(h.sessions, code)
	}
	h.mu.Unlock()

	if ok {
		session.Close()
		h.logger.Info("room removed", "roomID", code)
	}
}

// Count returns the number of active rooms
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// TotalPlayers returns the number of players across all rooms
func (h *Hub) TotalPlayers() int {
	h.mu.RLock()
	sessions := make([]*RoomSession, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	total := 0
	for _, s := range sessions {
		total += s.PlayerCount()
	}
	return total
}

// Close shuts down the hub and all sessions
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for _, session := range h.sessions {
			session.Close()
		}
		h.sessions = make(map[string]*RoomSession)
	})
}

// sweepLoop periodically reclaims expired rooms until the hub closes
func (h *Hub) sweepLoop() {
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// sweep removes rooms that are eligible for garbage collection. A panic in
// one cycle is logged and must not halt future cycles.
func (h *Hub) sweep() {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("room sweep panicked", "panic", r)
		}
	}()

	for _, code := range h.expiredRooms(time.Now()) {
		h.logger.Info("reclaiming expired room", "roomID", code)
		h.Remove(code)
	}
}

// expiredRooms returns codes of rooms eligible for reclamation:
//   - Rooms mid-game are never reclaimed, regardless of age.
//   - Terminally finished rooms expire FinishedRetention after the game
//     ended (falling back to the creation time if no finish time is set).
//   - Everything else (lobbies and break-state rooms) expires MaxRoomAge
//     after creation; starting a round refreshes that timestamp.
func (h *Hub) expiredRooms(now time.Time) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var expired []string
	for code, session := range h.sessions {
		state, terminal, createdAt, finishedAt := session.gcInfo()

		if state == domain.StatePlaying {
			continue
		}

		if terminal {
			end := finishedAt
			if end.IsZero() {
				end = createdAt
			}
			if now.Sub(end) >= h.cfg.FinishedRetention {
				expired = append(expired, code)
			}
			continue
		}

		if now.Sub(createdAt) >= h.cfg.MaxRoomAge {
			expired = append(expired, code)
		}
	}
	return expired
}

// generateCode returns a 6-character uppercase hex room code
func generateCode() string {
	b := make([]byte, roomCodeBytes)
	rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}
