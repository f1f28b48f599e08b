package websocket

import "encoding/json"

// Client-originated actions.
const (
	ActionCreateRoom = "create-room"
	ActionJoinRoom   = "join-room"
	ActionMakeMove   = "make-move"
	ActionPlayAgain  = "play-again"
)

// Server-originated actions.
const (
	ActionGameStart    = "game-start"
	ActionGameUpdate   = "game-update"
	ActionOpponentLeft = "opponent-left"
)

// Message is the wire envelope: an action name plus an action-specific payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreateRoomReply struct {
	RoomID       string `json:"roomId"`
	PlayerSymbol string `json:"playerSymbol"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

type JoinRoomReply struct {
	Success      bool   `json:"success"`
	PlayerSymbol string `json:"playerSymbol,omitempty"`
	Message      string `json:"message,omitempty"`
}

type MakeMoveRequest struct {
	RoomID       string `json:"roomId"`
	Index        int    `json:"index"`
	PlayerSymbol string `json:"playerSymbol"`
}

type PlayAgainRequest struct {
	RoomID string `json:"roomId"`
}
