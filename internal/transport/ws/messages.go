package ws

// MessageType represents the type of an inbound WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgJoin    MessageType = "join"
	MsgStart   MessageType = "start"
	MsgSubmit  MessageType = "submit"
	MsgLock    MessageType = "lock"
	MsgRestart MessageType = "restart"
	MsgChat    MessageType = "chat"
	MsgPing    MessageType = "ping"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// JoinPayload is the payload for a join message
type JoinPayload struct {
	Name string `json:"name"`
}

// SubmitPayload is the payload for a submit message
type SubmitPayload struct {
	Code string `json:"code"`
}

// ChatPayload is the payload for a chat message
type ChatPayload struct {
	Message string `json:"message"`
}

// Error codes sent back to the offending session
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeRoomNotFound   = "ROOM_NOT_FOUND"
	ErrCodeInvalidName    = "INVALID_NAME"
	ErrCodeNameTaken      = "NAME_TAKEN"
	ErrCodeInvalidAction  = "INVALID_ACTION"
	ErrCodeNotHost        = "NOT_HOST"
	ErrCodeNotJoined      = "NOT_JOINED"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

// ErrorMessage is sent to a single client when its request is rejected
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongMessage answers a client ping
type PongMessage struct {
	Type string `json:"type"`
}
