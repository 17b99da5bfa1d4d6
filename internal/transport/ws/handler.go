package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"leetrace/internal/app"
)

// Handler handles WebSocket connections
type Handler struct {
	hub      *app.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *app.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests for GET /ws/{roomCode}
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.PathValue("roomCode"))
	if roomCode == "" {
		http.Error(w, "roomCode is required", http.StatusBadRequest)
		return
	}

	session, err := h.hub.Get(roomCode)
	if err != nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	connID := uuid.New().String()
	client := NewClient(conn, session, connID, h.logger)

	h.logger.Info("websocket connected", "roomID", roomCode, "connID", connID)

	client.Run()
}
