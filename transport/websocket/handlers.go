package websocket

import (
	"encoding/json"
	"errors"

	"github.com/gridlinegames/tictactoe-relay/internal/apperror"
	"github.com/gridlinegames/tictactoe-relay/internal/entity"
)

const (
	msgRoomNotFound = "Room not found."
	msgRoomFull     = "Room is full."
)

func (that *Server) handleCreateRoom(c *client, _ json.RawMessage) {
	log := that.logger.With("method", "handleCreateRoom", "connID", c.id)

	room, err := that.rooms.CreateRoom(c.id)
	if err != nil {
		log.Error("failed to create room", "error", err)
		return
	}

	reply := CreateRoomReply{
		RoomID:       room.ID,
		PlayerSymbol: entity.SymbolX,
	}

	if err = c.send(ActionCreateRoom, reply); err != nil {
		log.Error("failed to send create reply", "roomID", room.ID, "error", err)
	}
}

func (that *Server) handleJoinRoom(c *client, payload json.RawMessage) {
	log := that.logger.With("method", "handleJoinRoom", "connID", c.id)

	var req JoinRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Debug("dropping malformed join payload", "error", err)
		return
	}

	room, err := that.rooms.JoinRoom(req.RoomID, c.id)
	if err != nil {
		reply := JoinRoomReply{Success: false, Message: joinFailureMessage(err)}

		if sendErr := c.send(ActionJoinRoom, reply); sendErr != nil {
			log.Error("failed to send join failure", "roomID", req.RoomID, "error", sendErr)
		}

		return
	}

	// Both players learn the opponent is seated before the joiner's own ack.
	that.broadcast(room, ActionGameStart)

	reply := JoinRoomReply{
		Success:      true,
		PlayerSymbol: entity.SymbolO,
	}

	if err = c.send(ActionJoinRoom, reply); err != nil {
		log.Error("failed to send join reply", "roomID", room.ID, "error", err)
	}
}

func (that *Server) handleMakeMove(c *client, payload json.RawMessage) {
	log := that.logger.With("method", "handleMakeMove", "connID", c.id)

	var req MakeMoveRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Debug("dropping malformed move payload", "error", err)
		return
	}

	// Rejected moves are silently dropped: the sender may be desynced and
	// gets resynced by the next accepted broadcast, not by error traffic.
	room, err := that.rooms.MakeMove(req.RoomID, req.PlayerSymbol, req.Index)
	if err != nil {
		log.Debug("move dropped",
			"roomID", req.RoomID,
			"symbol", req.PlayerSymbol,
			"index", req.Index,
			"reason", err,
		)
		return
	}

	that.broadcast(room, ActionGameUpdate)
}

func (that *Server) handlePlayAgain(c *client, payload json.RawMessage) {
	log := that.logger.With("method", "handlePlayAgain", "connID", c.id)

	var req PlayAgainRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Debug("dropping malformed rematch payload", "error", err)
		return
	}

	room, err := that.rooms.RestartRoom(req.RoomID)
	if err != nil {
		log.Debug("rematch dropped", "roomID", req.RoomID, "reason", err)
		return
	}

	that.broadcast(room, ActionGameUpdate)
}

func joinFailureMessage(err error) string {
	if errors.Is(err, apperror.ErrRoomFull) {
		return msgRoomFull
	}

	return msgRoomNotFound
}
