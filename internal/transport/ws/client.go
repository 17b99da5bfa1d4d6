package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"leetrace/internal/app"
	"leetrace/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Submissions carry whole
	// source files, so this is larger than a typical chat payload.
	maxMessageSize = 64 * 1024

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents one WebSocket connection to a room. It implements
// domain.Conn so the session can push broadcasts to it.
type Client struct {
	conn       *websocket.Conn
	session    *app.RoomSession
	connID     string
	playerName string // empty until a successful join
	send       chan []byte
	done       chan struct{}
	logger     *slog.Logger
	mu         sync.Mutex
	closed     bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, session *app.RoomSession, connID string, logger *slog.Logger) *Client {
	return &Client{
		conn:    conn,
		session: session,
		connID:  connID,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Send implements domain.Conn
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "connID", c.connID)
		return nil
	}
}

// Close implements domain.Conn
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		if c.playerName != "" {
			c.session.HandleDisconnect(c.playerName)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		if !c.safeHandle(message) {
			break
		}
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// safeHandle dispatches one message, converting handler panics into a
// reconnect hint for the client. Returns false when the session should end.
func (c *Client) safeHandle(data []byte) (ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("message handler panicked",
				"panic", r,
				"player", c.playerName,
				"connID", c.connID,
			)
			c.sendError(ErrCodeInternalError, "Something went wrong. Please rejoin.")
			ok = false
		}
	}()

	c.handleMessage(data)
	return ok
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	// Everything except join and ping requires a joined player
	switch msg.Type {
	case MsgJoin, MsgPing:
	default:
		if c.playerName == "" {
			c.sendError(ErrCodeNotJoined, "Join the room first")
			return
		}
	}

	switch msg.Type {
	case MsgJoin:
		c.handleJoin(msg.Payload)
	case MsgStart:
		c.handleError(c.session.Start(c.playerName))
	case MsgSubmit:
		c.handleSubmit(msg.Payload)
	case MsgLock:
		c.handleError(c.session.Lock(c.playerName))
	case MsgRestart:
		c.handleError(c.session.Restart(c.playerName))
	case MsgChat:
		c.handleChat(msg.Payload)
	case MsgPing:
		c.Send(PongMessage{Type: "pong"})
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleJoin handles a join message
func (c *Client) handleJoin(payload interface{}) {
	if c.playerName != "" {
		c.sendError(ErrCodeInvalidAction, "Already joined")
		return
	}

	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}
	name, ok := payloadMap["name"].(string)
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Name is required")
		return
	}
	// The session stores players keyed by trimmed name; track the same key
	name = strings.TrimSpace(name)

	if err := c.session.Join(name, c); err != nil {
		c.handleError(err)
		return
	}

	c.playerName = name
	c.logger.Info("player joined", "player", name, "roomID", c.session.RoomCode())
}

// handleSubmit handles a submit message
func (c *Client) handleSubmit(payload interface{}) {
	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}
	code, ok := payloadMap["code"].(string)
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Code is required")
		return
	}

	c.handleError(c.session.Submit(context.Background(), c.playerName, code))
}

// handleChat handles a chat message
func (c *Client) handleChat(payload interface{}) {
	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}
	message, ok := payloadMap["message"].(string)
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Message must be a string")
		return
	}

	c.handleError(c.session.Chat(c.playerName, message))
}

// handleError maps a domain error to an error message for this client only
func (c *Client) handleError(err error) {
	if err == nil {
		return
	}

	switch err {
	case domain.ErrNameRequired, domain.ErrNameTooLong:
		c.sendError(ErrCodeInvalidName, err.Error())
	case domain.ErrNameTaken:
		c.sendError(ErrCodeNameTaken, err.Error())
	case domain.ErrNotHost:
		c.sendError(ErrCodeNotHost, err.Error())
	case domain.ErrGameInProgress, domain.ErrNotEnoughPlayers, domain.ErrInvalidState,
		domain.ErrAlreadyLocked, domain.ErrNotSolved, domain.ErrEmptySubmission,
		domain.ErrEmptyChatMessage, domain.ErrGameNotFinished:
		c.sendError(ErrCodeInvalidAction, err.Error())
	default:
		c.sendError(ErrCodeInternalError, err.Error())
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.Send(ErrorMessage{
		Type:    "error",
		Code:    code,
		Message: message,
	})
}
